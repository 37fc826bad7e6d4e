package usecase

import (
	"context"

	"chat-backend/dto/req"
	"chat-backend/dto/res"
)

type AuthUsecase interface {
	RegisterUser(ctx context.Context, payload *req.RegisterRequest) (res.RegisterResponse, error)
	LoginUser(ctx context.Context, payload *req.LoginRequest) (res.LoginResponse, error)
	GetUser(ctx context.Context, userID string) (res.UserInfo, error)
}
