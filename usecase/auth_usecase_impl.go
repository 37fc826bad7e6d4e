package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"chat-backend/apperr"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/entity"
	"chat-backend/security"
)

type AuthUsecaseImpl struct {
	users    UserStore
	Validate *validator.Validate
	Logger   *logrus.Logger
	JWT      *security.JWT
}

func NewAuthUsecase(users UserStore, validate *validator.Validate, logger *logrus.Logger, jwt *security.JWT) AuthUsecase {
	return &AuthUsecaseImpl{users: users, Validate: validate, Logger: logger, JWT: jwt}
}

func (uc *AuthUsecaseImpl) RegisterUser(ctx context.Context, payload *req.RegisterRequest) (res.RegisterResponse, error) {
	if err := uc.Validate.Struct(payload); err != nil {
		return res.RegisterResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid register request", err)
	}

	if existing, err := uc.users.FindByUsernameOrEmail(ctx, payload.Username); err != nil {
		return res.RegisterResponse{}, apperr.WrapInternal("failed to check username", err)
	} else if existing != nil {
		return res.RegisterResponse{}, apperr.Conflict("username already taken")
	}
	if existing, err := uc.users.FindByUsernameOrEmail(ctx, payload.Email); err != nil {
		return res.RegisterResponse{}, apperr.WrapInternal("failed to check email", err)
	} else if existing != nil {
		return res.RegisterResponse{}, apperr.Conflict("email already registered")
	}

	hashed, err := security.HashPassword(payload.Password)
	if err != nil {
		return res.RegisterResponse{}, apperr.WrapInternal("failed to hash password", err)
	}

	user := &entity.User{
		Username: payload.Username,
		Email:    payload.Email,
		Password: hashed,
	}
	if err := uc.users.Save(ctx, user); err != nil {
		// The pre-check races with concurrent registrations; the unique
		// index is the authority.
		return res.RegisterResponse{}, apperr.Wrap(apperr.CodeConflict, "username or email already registered", err)
	}
	uc.Logger.Infof("User %s registered", user.Username)

	return res.RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (uc *AuthUsecaseImpl) LoginUser(ctx context.Context, payload *req.LoginRequest) (res.LoginResponse, error) {
	if err := uc.Validate.Struct(payload); err != nil {
		return res.LoginResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid login request", err)
	}

	user, err := uc.users.FindByUsernameOrEmail(ctx, payload.Username)
	if err != nil {
		return res.LoginResponse{}, apperr.WrapInternal("failed to look up user", err)
	}
	// Unknown user and wrong password report the same error.
	if user == nil || !security.ComparePassword(user.Password, payload.Password) {
		return res.LoginResponse{}, apperr.New(apperr.CodeForbidden, "invalid credentials")
	}

	token, err := uc.JWT.GenerateToken(user)
	if err != nil {
		return res.LoginResponse{}, apperr.WrapInternal("failed to generate token", err)
	}
	uc.Logger.Infof("User %s logged in", user.Username)

	return res.LoginResponse{
		Token: token,
		User: res.UserInfo{
			ID:                user.ID,
			Username:          user.Username,
			ProfilePictureURL: user.ProfilePictureURL,
		},
	}, nil
}

func (uc *AuthUsecaseImpl) GetUser(ctx context.Context, userID string) (res.UserInfo, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return res.UserInfo{}, apperr.WrapInternal("failed to look up user", err)
	}
	if user == nil {
		return res.UserInfo{}, apperr.ErrUserNotFound
	}
	return res.UserInfo{
		ID:                user.ID,
		Username:          user.Username,
		ProfilePictureURL: user.ProfilePictureURL,
	}, nil
}
