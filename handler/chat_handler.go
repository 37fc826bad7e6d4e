package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"chat-backend/apperr"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/usecase"
)

type ChatHandler struct {
	usecase.ChatUsecase
	*logrus.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		ChatUsecase: chatUsecase,
		Logger:      logger,
	}
}

func (handler *ChatHandler) CreateChat(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	payload := new(req.CreateChatRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	chatResponse, err := handler.ChatUsecase.CreateChat(c.Context(), userID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to create chat")
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to create chat",
		StatusCode: fiber.StatusCreated,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func (handler *ChatHandler) GetAllChats(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	typeFilter := c.Query("type")

	chatResponses, err := handler.ChatUsecase.GetUserChats(c.Context(), userID, typeFilter)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to get chats")
		return err
	}

	response := res.CommonResponse[[]res.ChatResponse]{
		Message:    "Successfully to get all chats",
		StatusCode: fiber.StatusOK,
		Data:       chatResponses,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) GetChatByID(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	chatResponse, err := handler.ChatUsecase.GetChatByID(c.Context(), userID, chatID)
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to get chat",
		StatusCode: fiber.StatusOK,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) UpdateChat(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	payload := new(req.UpdateChatRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	chatResponse, err := handler.ChatUsecase.UpdateGroupChat(c.Context(), userID, chatID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to update chat")
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to update chat",
		StatusCode: fiber.StatusOK,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) AddParticipants(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	payload := new(req.AddParticipantsRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	chatResponse, err := handler.ChatUsecase.AddParticipants(c.Context(), userID, chatID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to add participants")
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to add participants",
		StatusCode: fiber.StatusOK,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) RemoveParticipant(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")
	targetID := c.Params("userId")

	chatResponse, err := handler.ChatUsecase.RemoveParticipant(c.Context(), userID, chatID, targetID)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to remove participant")
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to remove participant",
		StatusCode: fiber.StatusOK,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) PromoteToAdmin(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")
	targetID := c.Params("userId")

	chatResponse, err := handler.ChatUsecase.PromoteToAdmin(c.Context(), userID, chatID, targetID)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to promote participant")
		return err
	}

	response := res.CommonResponse[res.ChatResponse]{
		Message:    "Successfully to promote participant",
		StatusCode: fiber.StatusOK,
		Data:       chatResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) LeaveChat(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	if err := handler.ChatUsecase.LeaveChat(c.Context(), userID, chatID); err != nil {
		handler.Logger.WithError(err).Error("Failed to leave chat")
		return err
	}

	response := res.CommonResponse[any]{
		Message:    "Successfully to leave chat",
		StatusCode: fiber.StatusOK,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	if err := handler.ChatUsecase.DeleteChat(c.Context(), userID, chatID); err != nil {
		handler.Logger.WithError(err).Error("Failed to delete chat")
		return err
	}

	response := res.CommonResponse[any]{
		Message:    "Successfully to delete chat",
		StatusCode: fiber.StatusOK,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}
