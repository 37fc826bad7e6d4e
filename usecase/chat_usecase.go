package usecase

import (
	"context"

	"chat-backend/dto/req"
	"chat-backend/dto/res"
)

type ChatUsecase interface {
	CreateChat(ctx context.Context, creatorID string, payload *req.CreateChatRequest) (res.ChatResponse, error)
	GetChatByID(ctx context.Context, userID, chatID string) (res.ChatResponse, error)
	GetUserChats(ctx context.Context, userID, typeFilter string) ([]res.ChatResponse, error)
	UpdateGroupChat(ctx context.Context, userID, chatID string, payload *req.UpdateChatRequest) (res.ChatResponse, error)
	AddParticipants(ctx context.Context, actorID, chatID string, payload *req.AddParticipantsRequest) (res.ChatResponse, error)
	RemoveParticipant(ctx context.Context, actorID, chatID, targetID string) (res.ChatResponse, error)
	PromoteToAdmin(ctx context.Context, actorID, chatID, targetID string) (res.ChatResponse, error)
	LeaveChat(ctx context.Context, userID, chatID string) error
	DeleteChat(ctx context.Context, userID, chatID string) error
}
