package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"

	"chat-backend/broadcast"
	"chat-backend/dto/req"
	"chat-backend/security"
	"chat-backend/usecase"
)

// WebSocketHandler bridges connections to the broadcast hub. Each connection
// subscribes to its chat topics plus the per-user receipt queue; inbound
// frames are dispatched to the same usecases the REST surface runs, so both
// transports share one behavior.
type WebSocketHandler struct {
	*logrus.Logger
	hub      *broadcast.Hub
	jwt      *security.JWT
	chats    usecase.ChatUsecase
	messages usecase.MessageUsecase
}

// inboundFrame is the client-to-server envelope.
type inboundFrame struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func NewWebSocketHandler(hub *broadcast.Hub, jwt *security.JWT, chats usecase.ChatUsecase, messages usecase.MessageUsecase, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		Logger:   logger,
		hub:      hub,
		jwt:      jwt,
		chats:    chats,
		messages: messages,
	}
}

func (handler *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	ctx := context.Background()

	token := c.Query("token")
	userID, err := handler.jwt.GetUserIdFromToken(token)
	if err != nil {
		handler.Logger.WithError(err).Warn("WebSocket rejected: invalid token")
		c.Close()
		return
	}

	topics, err := handler.topicsFor(ctx, userID, c.Query("chatId"))
	if err != nil {
		handler.Logger.WithError(err).Warnf("WebSocket rejected for user %s", userID)
		c.Close()
		return
	}

	sub := handler.hub.Subscribe(topics...)
	defer sub.Unsubscribe()
	handler.Logger.Infof("User %s connected over WebSocket (%d topics)", userID, len(topics))

	done := make(chan struct{})
	go handler.writeLoop(c, sub, done)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		handler.dispatch(ctx, userID, data)
	}
	close(done)
	handler.Logger.Infof("User %s disconnected", userID)
}

// topicsFor resolves the subscription set. A chatId query pins the
// connection to one chat; otherwise it follows every chat the user is in.
// The per-user receipt queue is always included.
func (handler *WebSocketHandler) topicsFor(ctx context.Context, userID, chatID string) ([]string, error) {
	topics := []string{broadcast.UserQueue(userID, broadcast.QueueReadReceipt)}
	if chatID != "" {
		if _, err := handler.chats.GetChatByID(ctx, userID, chatID); err != nil {
			return nil, err
		}
		return append(topics, broadcast.ChatTopic(chatID)), nil
	}

	chats, err := handler.chats.GetUserChats(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	for _, chat := range chats {
		topics = append(topics, broadcast.ChatTopic(chat.ID))
	}
	return topics, nil
}

func (handler *WebSocketHandler) writeLoop(c *websocket.Conn, sub *broadcast.Subscription, done <-chan struct{}) {
	for {
		select {
		case envelope, ok := <-sub.C:
			if !ok {
				return
			}
			if err := c.WriteJSON(envelope); err != nil {
				handler.Logger.Warnf("WebSocket write failed: %v", err)
				c.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (handler *WebSocketHandler) dispatch(ctx context.Context, userID string, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		handler.Logger.Warnf("Malformed WebSocket frame: %v", err)
		return
	}

	switch frame.Action {
	case "send":
		var payload req.SendMessageRequest
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			handler.Logger.Warnf("Malformed send payload: %v", err)
			return
		}
		if _, err := handler.messages.SendMessage(ctx, userID, &payload); err != nil {
			handler.Logger.WithError(err).Warn("WebSocket send failed")
		}
	case "typing":
		var payload req.TypingRequest
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			handler.Logger.Warnf("Malformed typing payload: %v", err)
			return
		}
		if err := handler.messages.HandleTyping(ctx, userID, &payload); err != nil {
			handler.Logger.WithError(err).Warn("WebSocket typing update failed")
		}
	case "read":
		var payload req.ReadReceiptRequest
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			handler.Logger.Warnf("Malformed read payload: %v", err)
			return
		}
		if err := handler.messages.MarkMessagesAsRead(ctx, userID, &payload); err != nil {
			handler.Logger.WithError(err).Warn("WebSocket read receipt failed")
		}
	default:
		handler.Logger.Warnf("Unknown WebSocket action: %q", frame.Action)
	}
}
