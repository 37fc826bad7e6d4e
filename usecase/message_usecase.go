package usecase

import (
	"context"

	"chat-backend/dto/req"
	"chat-backend/dto/res"
)

type MessageUsecase interface {
	SendMessage(ctx context.Context, senderID string, payload *req.SendMessageRequest) (res.MessageResponse, error)
	GetChatMessages(ctx context.Context, userID, chatID string, page, size int) ([]res.MessageResponse, error)
	GetMessageByID(ctx context.Context, userID, messageID string) (res.MessageResponse, error)
	EditMessage(ctx context.Context, userID, messageID string, payload *req.EditMessageRequest) (res.MessageResponse, error)
	DeleteMessage(ctx context.Context, userID, messageID string) error
	AddReaction(ctx context.Context, userID, messageID string, payload *req.ReactionRequest) (res.MessageResponse, error)
	RemoveReaction(ctx context.Context, userID, messageID, emoji string) (res.MessageResponse, error)
	MarkMessagesAsRead(ctx context.Context, userID string, payload *req.ReadReceiptRequest) error
	SearchMessages(ctx context.Context, userID, chatID, term string) ([]res.MessageResponse, error)
	HandleTyping(ctx context.Context, userID string, payload *req.TypingRequest) error
	GetTypingUsers(ctx context.Context, userID, chatID string) ([]res.TypingResponse, error)
}
