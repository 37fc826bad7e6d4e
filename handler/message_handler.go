package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"chat-backend/apperr"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/usecase"
)

type MessageHandler struct {
	usecase.MessageUsecase
	*logrus.Logger
	maxPageSize int
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, logger *logrus.Logger, maxPageSize int) *MessageHandler {
	return &MessageHandler{
		MessageUsecase: messageUsecase,
		Logger:         logger,
		maxPageSize:    maxPageSize,
	}
}

func (handler *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	payload := new(req.SendMessageRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	messageResponse, err := handler.MessageUsecase.SendMessage(c.Context(), userID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to send message")
		return err
	}

	response := res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to send message",
		StatusCode: fiber.StatusCreated,
		Data:       messageResponse,
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func (handler *MessageHandler) GetChatMessages(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	page, size := handler.pagination(c)
	messageResponses, err := handler.MessageUsecase.GetChatMessages(c.Context(), userID, chatID, page, size)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to get messages")
		return err
	}

	response := res.CommonResponse[[]res.MessageResponse]{
		Message:    "Successfully to get messages",
		StatusCode: fiber.StatusOK,
		Data:       messageResponses,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) SearchMessages(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")
	term := c.Query("q")
	if term == "" {
		return apperr.BadRequest("search term is required")
	}

	messageResponses, err := handler.MessageUsecase.SearchMessages(c.Context(), userID, chatID, term)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to search messages")
		return err
	}

	response := res.CommonResponse[[]res.MessageResponse]{
		Message:    "Successfully to search messages",
		StatusCode: fiber.StatusOK,
		Data:       messageResponses,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) GetMessageByID(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	messageID := c.Params("messageId")

	messageResponse, err := handler.MessageUsecase.GetMessageByID(c.Context(), userID, messageID)
	if err != nil {
		return err
	}

	response := res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to get message",
		StatusCode: fiber.StatusOK,
		Data:       messageResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) EditMessage(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	messageID := c.Params("messageId")

	payload := new(req.EditMessageRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	messageResponse, err := handler.MessageUsecase.EditMessage(c.Context(), userID, messageID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to edit message")
		return err
	}

	response := res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to edit message",
		StatusCode: fiber.StatusOK,
		Data:       messageResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	messageID := c.Params("messageId")

	if err := handler.MessageUsecase.DeleteMessage(c.Context(), userID, messageID); err != nil {
		handler.Logger.WithError(err).Error("Failed to delete message")
		return err
	}

	response := res.CommonResponse[any]{
		Message:    "Successfully to delete message",
		StatusCode: fiber.StatusOK,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) AddReaction(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	messageID := c.Params("messageId")

	payload := new(req.ReactionRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	messageResponse, err := handler.MessageUsecase.AddReaction(c.Context(), userID, messageID, payload)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to add reaction")
		return err
	}

	response := res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to add reaction",
		StatusCode: fiber.StatusOK,
		Data:       messageResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) RemoveReaction(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	messageID := c.Params("messageId")
	emoji := c.Query("emoji")
	if emoji == "" {
		return apperr.BadRequest("emoji is required")
	}

	messageResponse, err := handler.MessageUsecase.RemoveReaction(c.Context(), userID, messageID, emoji)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to remove reaction")
		return err
	}

	response := res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to remove reaction",
		StatusCode: fiber.StatusOK,
		Data:       messageResponse,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) MarkMessagesAsRead(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	payload := new(req.ReadReceiptRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}

	if err := handler.MessageUsecase.MarkMessagesAsRead(c.Context(), userID, payload); err != nil {
		handler.Logger.WithError(err).Error("Failed to mark messages as read")
		return err
	}

	response := res.CommonResponse[any]{
		Message:    "Successfully to mark messages as read",
		StatusCode: fiber.StatusOK,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) HandleTyping(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	payload := new(req.TypingRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "malformed request body", err)
	}
	payload.ChatID = chatID

	if err := handler.MessageUsecase.HandleTyping(c.Context(), userID, payload); err != nil {
		handler.Logger.WithError(err).Error("Failed to handle typing indicator")
		return err
	}

	response := res.CommonResponse[any]{
		Message:    "Successfully to update typing indicator",
		StatusCode: fiber.StatusOK,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) GetTypingUsers(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	result, err := handler.MessageUsecase.GetTypingUsers(c.Context(), userID, chatID)
	if err != nil {
		handler.Logger.WithError(err).Error("Failed to list typing users")
		return err
	}

	response := res.CommonResponse[[]res.TypingResponse]{
		Message:    "Successfully to get typing users",
		StatusCode: fiber.StatusOK,
		Data:       result,
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

func (handler *MessageHandler) pagination(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "0"))
	if page < 0 {
		page = 0
	}
	size, _ = strconv.Atoi(c.Query("size", strconv.Itoa(handler.maxPageSize)))
	if size <= 0 || size > handler.maxPageSize {
		size = handler.maxPageSize
	}
	return page, size
}
