package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"chat-backend/apperr"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/entity"
	"chat-backend/enum"
)

// ChatUsecaseImpl is the Conversation Registry: chat lifecycle, membership
// and roles. The message path only consults it, never mutates through it.
type ChatUsecaseImpl struct {
	chats    ChatRepository
	messages MessageRepository
	metadata MetadataRepository
	users    UserDirectory
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewChatUsecase(chats ChatRepository, messages MessageRepository, metadata MetadataRepository, users UserDirectory, validate *validator.Validate, logger *logrus.Logger) ChatUsecase {
	return &ChatUsecaseImpl{chats: chats, messages: messages, metadata: metadata, users: users, Validate: validate, Logger: logger}
}

func (uc *ChatUsecaseImpl) CreateChat(ctx context.Context, creatorID string, payload *req.CreateChatRequest) (res.ChatResponse, error) {
	if err := uc.Validate.Struct(payload); err != nil {
		return res.ChatResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid chat request", err)
	}
	chatType, ok := enum.ParseChatType(payload.ChatType)
	if !ok {
		return res.ChatResponse{}, apperr.BadRequest("invalid chat type, valid values: PRIVATE, GROUP")
	}

	creator, err := uc.users.FindByID(ctx, creatorID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to resolve creator", err)
	}
	if creator == nil {
		return res.ChatResponse{}, apperr.ErrUserNotFound
	}

	switch chatType {
	case enum.ChatTypePrivate:
		return uc.createPrivateChat(ctx, creatorID, payload)
	default:
		return uc.createGroupChat(ctx, creatorID, payload)
	}
}

func (uc *ChatUsecaseImpl) createPrivateChat(ctx context.Context, creatorID string, payload *req.CreateChatRequest) (res.ChatResponse, error) {
	if len(payload.ParticipantIDs) != 1 {
		return res.ChatResponse{}, apperr.BadRequest("private chat must have exactly 1 other participant")
	}
	otherID := payload.ParticipantIDs[0]
	if otherID == creatorID {
		return res.ChatResponse{}, apperr.ErrSelfPrivateChat
	}

	other, err := uc.users.FindByID(ctx, otherID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to resolve participant", err)
	}
	if other == nil {
		return res.ChatResponse{}, apperr.ErrUserNotFound
	}

	pairKey := entity.PrivatePairKey(creatorID, otherID)

	// Idempotent: an existing private chat between the pair is returned
	// rather than duplicated.
	if existing, err := uc.chats.FindPrivateChatByPairKey(ctx, pairKey); err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to look up private chat", err)
	} else if existing != nil {
		uc.Logger.Infof("Private chat %s already exists for pair %s", existing.ID, pairKey)
		return uc.buildChatResponse(ctx, existing, creatorID)
	}

	chat := &entity.Chat{
		ChatType:    enum.ChatTypePrivate,
		CreatedByID: creatorID,
		PairKey:     &pairKey,
	}
	participants := []entity.ChatParticipant{
		{UserID: creatorID, Role: enum.RoleMember, IsActive: true, NotificationsEnabled: true},
		{UserID: otherID, Role: enum.RoleMember, IsActive: true, NotificationsEnabled: true},
	}

	if err := uc.chats.CreateChatWithParticipants(ctx, chat, participants); err != nil {
		// Two simultaneous creations race on the pair key; the unique index
		// picks a winner and the loser returns the winner's chat.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, findErr := uc.chats.FindPrivateChatByPairKey(ctx, pairKey)
			if findErr == nil && winner != nil {
				return uc.buildChatResponse(ctx, winner, creatorID)
			}
		}
		return res.ChatResponse{}, apperr.WrapInternal("failed to create private chat", err)
	}

	uc.Logger.Infof("Created private chat %s for pair %s", chat.ID, pairKey)
	return uc.buildChatResponse(ctx, chat, creatorID)
}

func (uc *ChatUsecaseImpl) createGroupChat(ctx context.Context, creatorID string, payload *req.CreateChatRequest) (res.ChatResponse, error) {
	others := make([]string, 0, len(payload.ParticipantIDs))
	for _, id := range payload.ParticipantIDs {
		if id != creatorID {
			others = append(others, id)
		}
	}
	if len(others) < 2 {
		return res.ChatResponse{}, apperr.BadRequest("group chat must have at least 2 other participants")
	}
	if strings.TrimSpace(payload.Name) == "" {
		return res.ChatResponse{}, apperr.BadRequest("group chat must have a name")
	}

	participants := []entity.ChatParticipant{
		{UserID: creatorID, Role: enum.RoleAdmin, IsActive: true, NotificationsEnabled: true},
	}
	for _, id := range others {
		member, err := uc.users.FindByID(ctx, id)
		if err != nil {
			return res.ChatResponse{}, apperr.WrapInternal("failed to resolve participant", err)
		}
		if member == nil {
			return res.ChatResponse{}, apperr.NotFound("participant " + id + " not found")
		}
		participants = append(participants, entity.ChatParticipant{
			UserID: id, Role: enum.RoleMember, IsActive: true, NotificationsEnabled: true,
		})
	}

	chat := &entity.Chat{
		ChatType:    enum.ChatTypeGroup,
		Name:        payload.Name,
		Description: payload.Description,
		PictureURL:  payload.PictureURL,
		CreatedByID: creatorID,
	}
	if err := uc.chats.CreateChatWithParticipants(ctx, chat, participants); err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to create group chat", err)
	}

	uc.Logger.Infof("Created group chat %s with %d participants", chat.ID, len(participants))
	return uc.buildChatResponse(ctx, chat, creatorID)
}

func (uc *ChatUsecaseImpl) GetChatByID(ctx context.Context, userID, chatID string) (res.ChatResponse, error) {
	chat, err := uc.findChat(ctx, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	participant, err := uc.chats.FindParticipant(ctx, chatID, userID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to check membership", err)
	}
	if participant == nil {
		return res.ChatResponse{}, apperr.ErrNotParticipant
	}

	response, err := uc.buildChatResponse(ctx, chat, userID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	// The index is the authoritative count; the detail view carries it so
	// clients do not have to page through the content store.
	count, err := uc.metadata.CountByChat(ctx, chatID)
	if err != nil {
		uc.Logger.WithError(err).Warnf("Failed to count messages for chat %s", chatID)
		count = 0
	}
	response.MessageCount = count
	return response, nil
}

func (uc *ChatUsecaseImpl) GetUserChats(ctx context.Context, userID, typeFilter string) ([]res.ChatResponse, error) {
	var chatType enum.ChatType
	if typeFilter != "" {
		parsed, ok := enum.ParseChatType(typeFilter)
		if !ok {
			return nil, apperr.BadRequest("invalid chat type filter")
		}
		chatType = parsed
	}

	chats, err := uc.chats.FindChatsByUserID(ctx, userID, chatType)
	if err != nil {
		return nil, apperr.WrapInternal("failed to list chats", err)
	}

	responses := make([]res.ChatResponse, 0, len(chats))
	for i := range chats {
		response, err := uc.buildChatResponse(ctx, &chats[i], userID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (uc *ChatUsecaseImpl) UpdateGroupChat(ctx context.Context, userID, chatID string, payload *req.UpdateChatRequest) (res.ChatResponse, error) {
	if err := uc.Validate.Struct(payload); err != nil {
		return res.ChatResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid chat update", err)
	}
	if strings.TrimSpace(payload.Name) == "" && payload.Description == "" && payload.PictureURL == "" {
		return res.ChatResponse{}, apperr.BadRequest("chat update must change at least one field")
	}

	chat, err := uc.requireGroupAdmin(ctx, userID, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}

	if strings.TrimSpace(payload.Name) != "" {
		chat.Name = payload.Name
	}
	if payload.Description != "" {
		chat.Description = payload.Description
	}
	if payload.PictureURL != "" {
		chat.PictureURL = payload.PictureURL
	}
	if err := uc.chats.Update(ctx, chat); err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to update chat", err)
	}
	return uc.buildChatResponse(ctx, chat, userID)
}

func (uc *ChatUsecaseImpl) AddParticipants(ctx context.Context, actorID, chatID string, payload *req.AddParticipantsRequest) (res.ChatResponse, error) {
	if err := uc.Validate.Struct(payload); err != nil {
		return res.ChatResponse{}, apperr.Wrap(apperr.CodeBadRequest, "invalid participants request", err)
	}
	chat, err := uc.requireGroupAdmin(ctx, actorID, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}

	for _, userID := range payload.UserIDs {
		existing, err := uc.chats.FindParticipant(ctx, chatID, userID)
		if err != nil {
			return res.ChatResponse{}, apperr.WrapInternal("failed to check participant", err)
		}
		if existing != nil {
			if !existing.IsActive {
				if err := uc.chats.ReactivateParticipant(ctx, chatID, userID); err != nil {
					return res.ChatResponse{}, apperr.WrapInternal("failed to reactivate participant", err)
				}
				uc.Logger.Infof("Reactivated participant %s in chat %s", userID, chatID)
			}
			continue
		}

		member, err := uc.users.FindByID(ctx, userID)
		if err != nil {
			return res.ChatResponse{}, apperr.WrapInternal("failed to resolve user", err)
		}
		if member == nil {
			return res.ChatResponse{}, apperr.NotFound("user " + userID + " not found")
		}
		participant := &entity.ChatParticipant{
			ChatID: chatID, UserID: userID,
			Role: enum.RoleMember, IsActive: true, NotificationsEnabled: true,
		}
		if err := uc.chats.SaveParticipant(ctx, participant); err != nil {
			return res.ChatResponse{}, apperr.WrapInternal("failed to add participant", err)
		}
		uc.Logger.Infof("Added participant %s to chat %s", userID, chatID)
	}
	return uc.buildChatResponse(ctx, chat, actorID)
}

func (uc *ChatUsecaseImpl) RemoveParticipant(ctx context.Context, actorID, chatID, targetID string) (res.ChatResponse, error) {
	chat, err := uc.requireGroupAdmin(ctx, actorID, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}

	target, err := uc.chats.FindParticipant(ctx, chatID, targetID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to check participant", err)
	}
	if target == nil || !target.IsActive {
		return res.ChatResponse{}, apperr.NotFound("participant not found in this chat")
	}

	if target.Role == enum.RoleAdmin {
		if err := uc.requireNotLastAdmin(ctx, chatID); err != nil {
			return res.ChatResponse{}, err
		}
	}

	if err := uc.chats.DeactivateParticipant(ctx, chatID, targetID); err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to remove participant", err)
	}
	uc.Logger.Infof("Removed participant %s from chat %s", targetID, chatID)
	return uc.buildChatResponse(ctx, chat, actorID)
}

func (uc *ChatUsecaseImpl) PromoteToAdmin(ctx context.Context, actorID, chatID, targetID string) (res.ChatResponse, error) {
	chat, err := uc.requireGroupAdmin(ctx, actorID, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}

	target, err := uc.chats.FindParticipant(ctx, chatID, targetID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to check participant", err)
	}
	if target == nil || !target.IsActive {
		return res.ChatResponse{}, apperr.NotFound("participant not found in this chat")
	}

	if err := uc.chats.UpdateParticipantRole(ctx, chatID, targetID, enum.RoleAdmin); err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to promote participant", err)
	}
	uc.Logger.Infof("Promoted participant %s to admin in chat %s", targetID, chatID)
	return uc.buildChatResponse(ctx, chat, actorID)
}

func (uc *ChatUsecaseImpl) LeaveChat(ctx context.Context, userID, chatID string) error {
	chat, err := uc.findChat(ctx, chatID)
	if err != nil {
		return err
	}

	participant, err := uc.chats.FindParticipant(ctx, chatID, userID)
	if err != nil {
		return apperr.WrapInternal("failed to check membership", err)
	}
	if participant == nil || !participant.IsActive {
		return apperr.ErrNotParticipant
	}

	if chat.ChatType == enum.ChatTypeGroup && participant.Role == enum.RoleAdmin {
		if err := uc.requireNotLastAdmin(ctx, chatID); err != nil {
			return err
		}
	}

	if err := uc.chats.DeactivateParticipant(ctx, chatID, userID); err != nil {
		return apperr.WrapInternal("failed to leave chat", err)
	}
	uc.Logger.Infof("User %s left chat %s", userID, chatID)
	return nil
}

func (uc *ChatUsecaseImpl) DeleteChat(ctx context.Context, userID, chatID string) error {
	chat, err := uc.findChat(ctx, chatID)
	if err != nil {
		return err
	}

	if chat.ChatType == enum.ChatTypeGroup {
		if chat.CreatedByID != userID {
			return apperr.ErrCreatorOnly
		}
	} else {
		active, err := uc.chats.IsActiveParticipant(ctx, chatID, userID)
		if err != nil {
			return apperr.WrapInternal("failed to check membership", err)
		}
		if !active {
			return apperr.ErrNotParticipant
		}
	}

	// Deletion deactivates everyone; message history stays untouched.
	participants, err := uc.chats.FindActiveParticipants(ctx, chatID)
	if err != nil {
		return apperr.WrapInternal("failed to list participants", err)
	}
	for _, p := range participants {
		if err := uc.chats.DeactivateParticipant(ctx, chatID, p.UserID); err != nil {
			return apperr.WrapInternal("failed to deactivate participant", err)
		}
	}
	uc.Logger.Infof("Chat %s deleted by %s", chatID, userID)
	return nil
}

func (uc *ChatUsecaseImpl) findChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	chat, err := uc.chats.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrChatNotFound
		}
		return nil, apperr.WrapInternal("failed to load chat", err)
	}
	return chat, nil
}

// requireGroupAdmin loads the chat and verifies the actor is an active ADMIN
// of a group chat.
func (uc *ChatUsecaseImpl) requireGroupAdmin(ctx context.Context, actorID, chatID string) (*entity.Chat, error) {
	chat, err := uc.findChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.ChatType != enum.ChatTypeGroup {
		return nil, apperr.ErrGroupOnly
	}
	actor, err := uc.chats.FindParticipant(ctx, chatID, actorID)
	if err != nil {
		return nil, apperr.WrapInternal("failed to check membership", err)
	}
	if actor == nil || !actor.IsActive {
		return nil, apperr.ErrNotParticipant
	}
	if actor.Role != enum.RoleAdmin {
		return nil, apperr.ErrAdminOnly
	}
	return chat, nil
}

// requireNotLastAdmin rejects removing or demoting the last active admin
// while other members remain.
func (uc *ChatUsecaseImpl) requireNotLastAdmin(ctx context.Context, chatID string) error {
	admins, err := uc.chats.CountActiveAdmins(ctx, chatID)
	if err != nil {
		return apperr.WrapInternal("failed to count admins", err)
	}
	if admins > 1 {
		return nil
	}
	participants, err := uc.chats.FindActiveParticipants(ctx, chatID)
	if err != nil {
		return apperr.WrapInternal("failed to list participants", err)
	}
	if len(participants) > 1 {
		return apperr.ErrOnlyAdmin
	}
	return nil
}

// buildChatResponse assembles the chat view: active participants enriched
// with display fields plus the caller's unread badge. Unread count and
// username lookups degrade rather than failing the response.
func (uc *ChatUsecaseImpl) buildChatResponse(ctx context.Context, chat *entity.Chat, userID string) (res.ChatResponse, error) {
	participants, err := uc.chats.FindActiveParticipants(ctx, chat.ID)
	if err != nil {
		return res.ChatResponse{}, apperr.WrapInternal("failed to list participants", err)
	}

	response := res.FromChat(chat, participants)
	for i := range response.Participants {
		user, err := uc.users.FindByID(ctx, response.Participants[i].UserID)
		if err != nil || user == nil {
			continue
		}
		response.Participants[i].Username = user.Username
		response.Participants[i].ProfilePictureURL = user.ProfilePictureURL
	}

	count, err := uc.messages.CountUnread(ctx, chat.ID, userID)
	if err != nil {
		uc.Logger.WithError(err).Warnf("Failed to count unread messages for chat %s", chat.ID)
		count = 0
	}
	response.UnreadCount = count
	return response, nil
}
