package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"chat-backend/apperr"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/usecase"
)

type AuthHandler struct {
	usecase.AuthUsecase
	*logrus.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{AuthUsecase: authUsecase, Logger: logger}
}

func (handler *AuthHandler) RegisterUser(ctx *fiber.Ctx) error {
	payload := new(req.RegisterRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	registerResponse, err := handler.AuthUsecase.RegisterUser(ctx.Context(), payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to register new user")
		return err
	}

	response := res.CommonResponse[res.RegisterResponse]{
		Message:    "Successfully to register new user",
		StatusCode: fiber.StatusCreated,
		Data:       registerResponse,
	}
	handler.Logger.Infof("Success register user with id: %s", registerResponse.ID)
	return ctx.Status(fiber.StatusCreated).JSON(response)
}

func (handler *AuthHandler) LoginUser(ctx *fiber.Ctx) error {
	payload := new(req.LoginRequest)
	if err := ctx.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	loginResponse, err := handler.AuthUsecase.LoginUser(ctx.Context(), payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to login")
		return err
	}

	response := res.CommonResponse[res.LoginResponse]{
		Message:    "Successfully to login",
		StatusCode: fiber.StatusOK,
		Data:       loginResponse,
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}

func (handler *AuthHandler) GetCurrentUser(ctx *fiber.Ctx) error {
	userID, _ := ctx.Locals("user_id").(string)

	userResponse, err := handler.AuthUsecase.GetUser(ctx.Context(), userID)
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.UserInfo]{
		Message:    "Successfully to get current user",
		StatusCode: fiber.StatusOK,
		Data:       userResponse,
	}
	return ctx.Status(fiber.StatusOK).JSON(response)
}
