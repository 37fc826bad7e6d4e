package req

type FileMetaRequest struct {
	FileName     string `json:"fileName,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type SendMessageRequest struct {
	ChatID      string           `json:"chatId" validate:"required"`
	Content     string           `json:"content" validate:"required"`
	MessageType string           `json:"messageType,omitempty"`
	ReplyTo     string           `json:"replyTo,omitempty"`
	FileMeta    *FileMetaRequest `json:"fileMeta,omitempty"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

type ReadReceiptRequest struct {
	ChatID     string   `json:"chatId" validate:"required"`
	MessageIDs []string `json:"messageIds" validate:"required,min=1,dive,required"`
}

type TypingRequest struct {
	ChatID   string `json:"chatId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}
