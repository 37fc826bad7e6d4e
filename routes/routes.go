package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"chat-backend/handler"
	"chat-backend/middleware"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.AuthHandler
	*handler.ChatHandler
	*handler.MessageHandler
}

func (rc *ConfigRoute) GetRoute() {
	rc.GetPublicRoute()
	rc.GetProtectedRoute()
}

func (rc *ConfigRoute) GetPublicRoute() {
	app := rc.App.Group("/api/v1")
	app.Post("/auth/register", rc.AuthHandler.RegisterUser)
	app.Post("/auth/login", rc.AuthHandler.LoginUser)
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1")
	app.Use(rc.Middleware.JWTProtected, rc.Middleware.ExtractUserID)

	app.Get("/auth/me", rc.AuthHandler.GetCurrentUser)

	app.Post("/chats", rc.ChatHandler.CreateChat)
	app.Get("/chats", rc.ChatHandler.GetAllChats)
	app.Get("/chats/:chatId", rc.ChatHandler.GetChatByID)
	app.Put("/chats/:chatId", rc.ChatHandler.UpdateChat)
	app.Delete("/chats/:chatId", rc.ChatHandler.DeleteChat)
	app.Post("/chats/:chatId/participants", rc.ChatHandler.AddParticipants)
	app.Delete("/chats/:chatId/participants/:userId", rc.ChatHandler.RemoveParticipant)
	app.Put("/chats/:chatId/participants/:userId/promote", rc.ChatHandler.PromoteToAdmin)
	app.Post("/chats/:chatId/leave", rc.ChatHandler.LeaveChat)

	app.Get("/chats/:chatId/messages", rc.MessageHandler.GetChatMessages)
	app.Get("/chats/:chatId/messages/search", rc.MessageHandler.SearchMessages)
	app.Post("/chats/:chatId/typing", rc.MessageHandler.HandleTyping)
	app.Get("/chats/:chatId/typing", rc.MessageHandler.GetTypingUsers)

	app.Post("/messages", rc.MessageHandler.SendMessage)
	app.Get("/messages/:messageId", rc.MessageHandler.GetMessageByID)
	app.Put("/messages/:messageId", rc.MessageHandler.EditMessage)
	app.Delete("/messages/:messageId", rc.MessageHandler.DeleteMessage)
	app.Post("/messages/:messageId/reactions", rc.MessageHandler.AddReaction)
	app.Delete("/messages/:messageId/reactions", rc.MessageHandler.RemoveReaction)
	app.Post("/messages/read", rc.MessageHandler.MarkMessagesAsRead)
}

func (rc *ConfigRoute) GetWebSocketRoute(wsHandler *handler.WebSocketHandler) {
	rc.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	rc.App.Get("/ws", websocket.New(wsHandler.HandleWebSocket))
}
