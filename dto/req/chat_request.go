package req

type CreateChatRequest struct {
	ChatType       string   `json:"chatType" validate:"required,oneof=PRIVATE GROUP"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	PictureURL     string   `json:"pictureUrl,omitempty"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,dive,required"`
}

type UpdateChatRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	PictureURL  string `json:"pictureUrl,omitempty" validate:"omitempty,url"`
}

type AddParticipantsRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
}
