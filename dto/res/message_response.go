package res

import (
	"time"

	"chat-backend/document"
	"chat-backend/enum"
)

type ReactionInfo struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReadReceiptInfo struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username,omitempty"`
	ReadAt   time.Time `json:"readAt"`
}

type MessageResponse struct {
	ID                   string             `json:"id"`
	ChatID               string             `json:"chatId"`
	SenderID             string             `json:"senderId"`
	SenderUsername       string             `json:"senderUsername,omitempty"`
	SenderProfilePicture string             `json:"senderProfilePicture,omitempty"`
	Content              string             `json:"content"`
	MessageType          enum.MessageType   `json:"messageType"`
	FileMeta             *document.FileMeta `json:"fileMeta,omitempty"`
	ReplyTo              string             `json:"replyTo,omitempty"`
	SentAt               time.Time          `json:"sentAt"`
	EditedAt             *time.Time         `json:"editedAt,omitempty"`
	IsDeleted            bool               `json:"isDeleted"`
	Reactions            []ReactionInfo     `json:"reactions"`
	ReadBy               []ReadReceiptInfo  `json:"readBy"`
	IsRead               bool               `json:"isRead"`
}

// FromMessage maps the raw document; username enrichment happens read-time in
// the service so stored data never carries display fields.
func FromMessage(msg *document.Message) MessageResponse {
	reactions := make([]ReactionInfo, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		reactions = append(reactions, ReactionInfo{
			UserID:    r.UserID,
			Emoji:     r.Emoji,
			CreatedAt: r.CreatedAt,
		})
	}
	readBy := make([]ReadReceiptInfo, 0, len(msg.ReadBy))
	for _, rb := range msg.ReadBy {
		readBy = append(readBy, ReadReceiptInfo{
			UserID: rb.UserID,
			ReadAt: rb.ReadAt,
		})
	}
	return MessageResponse{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: msg.Type,
		FileMeta:    msg.FileMeta,
		ReplyTo:     msg.ReplyTo,
		SentAt:      msg.SentAt,
		EditedAt:    msg.EditedAt,
		IsDeleted:   msg.IsDeleted(),
		Reactions:   reactions,
		ReadBy:      readBy,
	}
}

type TypingResponse struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type ReadReceiptNotification struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	ReaderID  string    `json:"readerId"`
	ReadAt    time.Time `json:"readAt"`
}
