package res

import (
	"time"

	"chat-backend/entity"
	"chat-backend/enum"
)

type ParticipantInfo struct {
	UserID            string               `json:"userId"`
	Username          string               `json:"username,omitempty"`
	ProfilePictureURL string               `json:"profilePictureUrl,omitempty"`
	Role              enum.ParticipantRole `json:"role"`
	IsActive          bool                 `json:"isActive"`
	JoinedAt          time.Time            `json:"joinedAt"`
}

type ChatResponse struct {
	ID           string            `json:"id"`
	ChatType     enum.ChatType     `json:"chatType"`
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	PictureURL   string            `json:"pictureUrl,omitempty"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Participants []ParticipantInfo `json:"participants,omitempty"`
	UnreadCount  int64             `json:"unreadCount"`
	MessageCount int64             `json:"messageCount,omitempty"`
}

// FromChat maps a chat row and its participant rows; display fields on the
// participants are filled in separately by the identity lookup.
func FromChat(chat *entity.Chat, participants []entity.ChatParticipant) ChatResponse {
	infos := make([]ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		infos = append(infos, ParticipantInfo{
			UserID:   p.UserID,
			Role:     p.Role,
			IsActive: p.IsActive,
			JoinedAt: p.JoinedAt,
		})
	}
	return ChatResponse{
		ID:           chat.ID,
		ChatType:     chat.ChatType,
		Name:         chat.Name,
		Description:  chat.Description,
		PictureURL:   chat.PictureURL,
		CreatedBy:    chat.CreatedByID,
		CreatedAt:    chat.CreatedAt,
		UpdatedAt:    chat.UpdatedAt,
		Participants: infos,
	}
}
