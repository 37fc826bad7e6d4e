package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"chat-backend/apperr"
	"chat-backend/broadcast"
	"chat-backend/document"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/entity"
	"chat-backend/enum"
)

// MessageUsecaseImpl orchestrates the message path: membership validation, the
// dual write (content store first, index row second), conversation recency,
// and realtime fan-out. Broadcasting is fire-and-forget; a committed write
// is never rolled back because a notification failed.
type MessageUsecaseImpl struct {
	chats       ChatRepository
	messages    MessageRepository
	metadata    MetadataRepository
	presence    PresenceRepository
	users       UserDirectory
	broadcaster broadcast.Broadcaster
	validate    *validator.Validate
	logger      *logrus.Logger
	timeout     time.Duration
}

func NewMessageUsecase(
	chats ChatRepository,
	messages MessageRepository,
	metadata MetadataRepository,
	presence PresenceRepository,
	users UserDirectory,
	broadcaster broadcast.Broadcaster,
	validate *validator.Validate,
	logger *logrus.Logger,
	timeout time.Duration,
) MessageUsecase {
	return &MessageUsecaseImpl{
		chats:       chats,
		messages:    messages,
		metadata:    metadata,
		presence:    presence,
		users:       users,
		broadcaster: broadcaster,
		validate:    validate,
		logger:      logger,
		timeout:     timeout,
	}
}

// opCtx bounds every store interaction with the configured deadline on top
// of whatever deadline the caller already carries.
func (uc *MessageUsecaseImpl) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, uc.timeout)
}

func (uc *MessageUsecaseImpl) SendMessage(ctx context.Context, senderID string, payload *req.SendMessageRequest) (res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.validate.Struct(payload); err != nil {
		return res.MessageResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid message request", err)
	}
	msgType, ok := enum.ParseMessageType(payload.MessageType)
	if !ok {
		return res.MessageResponse{}, apperr.BadRequest("invalid message type")
	}

	if _, err := uc.findChat(ctx, payload.ChatID); err != nil {
		return res.MessageResponse{}, err
	}

	participant, err := uc.chats.FindParticipant(ctx, payload.ChatID, senderID)
	if err != nil {
		return res.MessageResponse{}, apperr.WrapInternal("failed to check membership", err)
	}
	if participant == nil {
		return res.MessageResponse{}, apperr.ErrNotParticipant
	}
	if !participant.IsActive {
		return res.MessageResponse{}, apperr.ErrLeftChat
	}

	sender, err := uc.users.FindByID(ctx, senderID)
	if err != nil {
		return res.MessageResponse{}, apperr.WrapInternal("failed to resolve sender", err)
	}
	if sender == nil {
		return res.MessageResponse{}, apperr.ErrUserNotFound
	}

	msg := &document.Message{
		ChatID:   payload.ChatID,
		SenderID: senderID,
		Content:  payload.Content,
		Type:     msgType,
		ReplyTo:  payload.ReplyTo,
		SentAt:   time.Now(),
	}
	if payload.FileMeta != nil {
		msg.FileMeta = &document.FileMeta{
			FileName:     payload.FileMeta.FileName,
			FileSize:     payload.FileMeta.FileSize,
			MimeType:     payload.FileMeta.MimeType,
			Duration:     payload.FileMeta.Duration,
			ThumbnailURL: payload.FileMeta.ThumbnailURL,
		}
	}

	// Dual write, content store first. Order is fixed so the failure window
	// is always "document durable, index missing", which the reconciler can
	// repair; the reverse would leave dangling index rows.
	if err := uc.messages.Insert(ctx, msg); err != nil {
		return res.MessageResponse{}, apperr.WrapInternal("failed to store message", err)
	}
	uc.logger.Infof("Message %s stored for chat %s", msg.ID, msg.ChatID)

	indexRow := &entity.MessageMetadata{
		ChatID:       msg.ChatID,
		SenderID:     senderID,
		MessageDocID: msg.ID,
		MessageType:  msgType,
		IsDeleted:    false,
		SentAt:       msg.SentAt,
	}
	if err := uc.metadata.Save(ctx, indexRow); err != nil {
		// The message is already visible to readers. Retrying here risks a
		// duplicate; surface the inconsistency and let the reconciliation
		// pass create the missing row.
		uc.logger.WithError(err).Errorf("Index write failed for message %s; left for reconciliation", msg.ID)
		return res.MessageResponse{}, apperr.Wrap(apperr.CodeInternal, "message stored but index write failed", err)
	}

	if err := uc.chats.TouchChat(ctx, msg.ChatID, msg.SentAt); err != nil {
		uc.logger.WithError(err).Warnf("Failed to touch chat %s", msg.ChatID)
	}

	response := res.FromMessage(msg)
	response.SenderUsername = sender.Username
	response.SenderProfilePicture = sender.ProfilePictureURL

	uc.broadcaster.Publish(broadcast.ChatTopic(msg.ChatID), broadcast.EventMessageCreated, response)
	return response, nil
}

func (uc *MessageUsecaseImpl) GetChatMessages(ctx context.Context, userID, chatID string, page, size int) ([]res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	messages, err := uc.messages.FindPage(ctx, chatID, page, size)
	if err != nil {
		return nil, apperr.WrapInternal("failed to load messages", err)
	}

	responses := make([]res.MessageResponse, 0, len(messages))
	names := newUserCache(uc.users)
	for i := range messages {
		responses = append(responses, uc.enrich(ctx, &messages[i], userID, names))
	}
	return responses, nil
}

func (uc *MessageUsecaseImpl) GetMessageByID(ctx context.Context, userID, messageID string) (res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if err := uc.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return res.MessageResponse{}, err
	}
	return uc.enrich(ctx, msg, userID, newUserCache(uc.users)), nil
}

func (uc *MessageUsecaseImpl) EditMessage(ctx context.Context, userID, messageID string, payload *req.EditMessageRequest) (res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.validate.Struct(payload); err != nil {
		return res.MessageResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid edit request", err)
	}

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if msg.SenderID != userID {
		return res.MessageResponse{}, apperr.ErrNotSender
	}
	if msg.IsDeleted() {
		return res.MessageResponse{}, apperr.ErrMessageDeleted
	}

	updated, err := uc.messages.UpdateContent(ctx, messageID, payload.Content, time.Now())
	if err != nil {
		// The store reports losing the race with a delete as ErrMessageDeleted;
		// anything else is a retryable store failure.
		if errors.Is(err, apperr.ErrMessageDeleted) {
			return res.MessageResponse{}, err
		}
		return res.MessageResponse{}, apperr.WrapInternal("failed to update message content", err)
	}
	uc.logger.Infof("Message %s edited by %s", messageID, userID)

	response := uc.enrich(ctx, updated, userID, newUserCache(uc.users))
	uc.broadcaster.Publish(broadcast.ChatTopic(updated.ChatID), broadcast.EventMessageEdited, response)
	return response, nil
}

func (uc *MessageUsecaseImpl) DeleteMessage(ctx context.Context, userID, messageID string) error {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != userID {
		participant, err := uc.chats.FindParticipant(ctx, msg.ChatID, userID)
		if err != nil {
			return apperr.WrapInternal("failed to check membership", err)
		}
		if participant == nil || !participant.IsActive {
			return apperr.ErrNotParticipant
		}
		if participant.Role != enum.RoleAdmin {
			return apperr.Forbidden("can only delete your own messages or be an admin")
		}
	}

	if err := uc.messages.SoftDelete(ctx, messageID, time.Now()); err != nil {
		return apperr.WrapInternal("failed to delete message", err)
	}
	// Mirror the tombstone onto the index row; on failure the reconciler
	// converges the flag.
	if err := uc.metadata.SetDeleted(ctx, messageID, true); err != nil {
		uc.logger.WithError(err).Errorf("Failed to mirror delete flag for message %s", messageID)
	}
	uc.logger.Infof("Message %s deleted by %s", messageID, userID)

	uc.broadcaster.Publish(broadcast.ChatTopic(msg.ChatID), broadcast.EventMessageDeleted, map[string]string{
		"messageId": messageID,
		"chatId":    msg.ChatID,
	})
	return nil
}

func (uc *MessageUsecaseImpl) AddReaction(ctx context.Context, userID, messageID string, payload *req.ReactionRequest) (res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.validate.Struct(payload); err != nil {
		return res.MessageResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid reaction request", err)
	}

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if err := uc.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return res.MessageResponse{}, err
	}

	updated, err := uc.messages.AddReaction(ctx, messageID, document.Reaction{
		UserID:    userID,
		Emoji:     payload.Emoji,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return res.MessageResponse{}, err
	}

	response := uc.enrich(ctx, updated, userID, newUserCache(uc.users))
	uc.broadcaster.Publish(broadcast.ChatTopic(updated.ChatID), broadcast.EventMessageReaction, response)
	return response, nil
}

func (uc *MessageUsecaseImpl) RemoveReaction(ctx context.Context, userID, messageID, emoji string) (res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return res.MessageResponse{}, err
	}
	if err := uc.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return res.MessageResponse{}, err
	}

	// Removing an absent pair is a no-op success, not an error.
	updated, err := uc.messages.RemoveReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return res.MessageResponse{}, err
	}

	response := uc.enrich(ctx, updated, userID, newUserCache(uc.users))
	uc.broadcaster.Publish(broadcast.ChatTopic(updated.ChatID), broadcast.EventMessageReaction, response)
	return response, nil
}

func (uc *MessageUsecaseImpl) MarkMessagesAsRead(ctx context.Context, userID string, payload *req.ReadReceiptRequest) error {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.validate.Struct(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "invalid read receipt request", err)
	}
	if err := uc.requireParticipant(ctx, payload.ChatID, userID); err != nil {
		return err
	}

	for _, messageID := range payload.MessageIDs {
		receipt := document.ReadReceipt{UserID: userID, ReadAt: time.Now()}
		msg, err := uc.messages.AddReadReceipt(ctx, messageID, receipt)
		if err != nil {
			return apperr.WrapInternal("failed to record read receipt", err)
		}
		if msg == nil {
			// Already read, or the message is gone; both skip silently.
			continue
		}
		// Each newly created receipt notifies the original sender directly,
		// not the whole chat.
		uc.broadcaster.PublishToUser(msg.SenderID, broadcast.QueueReadReceipt, broadcast.EventReadReceipt,
			res.ReadReceiptNotification{
				MessageID: messageID,
				ChatID:    msg.ChatID,
				ReaderID:  userID,
				ReadAt:    receipt.ReadAt,
			})
	}
	return nil
}

func (uc *MessageUsecaseImpl) SearchMessages(ctx context.Context, userID, chatID, term string) ([]res.MessageResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	messages, err := uc.messages.Search(ctx, chatID, term)
	if err != nil {
		return nil, apperr.WrapInternal("failed to search messages", err)
	}

	responses := make([]res.MessageResponse, 0, len(messages))
	names := newUserCache(uc.users)
	for i := range messages {
		responses = append(responses, uc.enrich(ctx, &messages[i], userID, names))
	}
	return responses, nil
}

func (uc *MessageUsecaseImpl) HandleTyping(ctx context.Context, userID string, payload *req.TypingRequest) error {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.validate.Struct(payload); err != nil {
		return apperr.Wrap(apperr.CodeBadRequest, "invalid typing request", err)
	}
	if err := uc.requireActiveParticipant(ctx, payload.ChatID, userID); err != nil {
		return err
	}

	indicator := document.TypingIndicator{
		ChatID:    payload.ChatID,
		UserID:    userID,
		IsTyping:  payload.IsTyping,
		Timestamp: time.Now(),
	}
	if err := uc.presence.SetTyping(ctx, indicator); err != nil {
		return apperr.WrapInternal("failed to store typing indicator", err)
	}

	response := res.TypingResponse{
		ChatID:   payload.ChatID,
		UserID:   userID,
		IsTyping: payload.IsTyping,
	}
	if user, err := uc.users.FindByID(ctx, userID); err == nil && user != nil {
		response.Username = user.Username
	}
	uc.broadcaster.Publish(broadcast.ChatTopic(payload.ChatID), broadcast.EventTyping, response)
	return nil
}

// GetTypingUsers snapshots who has a live typing indicator in the chat. The
// caller is excluded from the result.
func (uc *MessageUsecaseImpl) GetTypingUsers(ctx context.Context, userID, chatID string) ([]res.TypingResponse, error) {
	ctx, cancel := uc.opCtx(ctx)
	defer cancel()

	if err := uc.requireActiveParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	ids, err := uc.presence.TypingUsers(ctx, chatID)
	if err != nil {
		return nil, apperr.WrapInternal("failed to list typing users", err)
	}

	names := newUserCache(uc.users)
	responses := make([]res.TypingResponse, 0, len(ids))
	for _, id := range ids {
		if id == userID {
			continue
		}
		response := res.TypingResponse{ChatID: chatID, UserID: id, IsTyping: true}
		if user := names.get(ctx, id); user != nil {
			response.Username = user.Username
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (uc *MessageUsecaseImpl) findChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	chat, err := uc.chats.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrChatNotFound
		}
		return nil, apperr.WrapInternal("failed to load chat", err)
	}
	return chat, nil
}

// requireParticipant admits anyone with a participant row, active or left;
// former members keep read access to history they were part of.
func (uc *MessageUsecaseImpl) requireParticipant(ctx context.Context, chatID, userID string) error {
	participant, err := uc.chats.FindParticipant(ctx, chatID, userID)
	if err != nil {
		return apperr.WrapInternal("failed to check membership", err)
	}
	if participant == nil {
		return apperr.ErrNotParticipant
	}
	return nil
}

func (uc *MessageUsecaseImpl) requireActiveParticipant(ctx context.Context, chatID, userID string) error {
	active, err := uc.chats.IsActiveParticipant(ctx, chatID, userID)
	if err != nil {
		return apperr.WrapInternal("failed to check membership", err)
	}
	if !active {
		return apperr.ErrNotParticipant
	}
	return nil
}

// userCache memoizes directory lookups within one enrichment pass.
type userCache struct {
	users UserDirectory
	byID  map[string]*entity.User
}

func newUserCache(users UserDirectory) *userCache {
	return &userCache{users: users, byID: make(map[string]*entity.User)}
}

func (c *userCache) get(ctx context.Context, id string) *entity.User {
	if user, ok := c.byID[id]; ok {
		return user
	}
	user, err := c.users.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	c.byID[id] = user
	return user
}

// enrich resolves display fields at read time; a failed lookup leaves the
// field empty instead of failing the response.
func (uc *MessageUsecaseImpl) enrich(ctx context.Context, msg *document.Message, viewerID string, names *userCache) res.MessageResponse {
	response := res.FromMessage(msg)
	if sender := names.get(ctx, msg.SenderID); sender != nil {
		response.SenderUsername = sender.Username
		response.SenderProfilePicture = sender.ProfilePictureURL
	}
	for i := range response.Reactions {
		if user := names.get(ctx, response.Reactions[i].UserID); user != nil {
			response.Reactions[i].Username = user.Username
		}
	}
	for i := range response.ReadBy {
		if user := names.get(ctx, response.ReadBy[i].UserID); user != nil {
			response.ReadBy[i].Username = user.Username
		}
	}
	response.IsRead = msg.IsReadBy(viewerID)
	return response
}
