package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"chat-backend/entity"
	"chat-backend/enum"
)

// ChatRepository owns the Chat and ChatParticipant tables: membership, roles
// and active/left state. Participant rows are never hard-deleted so message
// attribution survives leaves and removals.
type ChatRepository struct {
	Repository[entity.Chat]
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{Repository[entity.Chat]{DB: db}}
}

func (repo *ChatRepository) FindChatByID(ctx context.Context, id string) (*entity.Chat, error) {
	var chat entity.Chat
	err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindPrivateChatByPairKey resolves the existing private chat between a pair
// of users, if any.
func (repo *ChatRepository) FindPrivateChatByPairKey(ctx context.Context, pairKey string) (*entity.Chat, error) {
	var chat entity.Chat
	err := repo.DB.WithContext(ctx).Where("pair_key = ?", pairKey).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// CreateChatWithParticipants persists the chat and its initial participant
// rows in one transaction. A private pair-key collision surfaces as
// gorm.ErrDuplicatedKey for the caller to resolve idempotently.
func (repo *ChatRepository) CreateChatWithParticipants(ctx context.Context, chat *entity.Chat, participants []entity.ChatParticipant) error {
	return repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatID = chat.ID
		}
		return tx.Create(&participants).Error
	})
}

func (repo *ChatRepository) FindChatsByUserID(ctx context.Context, userID string, typeFilter enum.ChatType) ([]entity.Chat, error) {
	var chats []entity.Chat
	query := repo.DB.WithContext(ctx).
		Model(&entity.Chat{}).
		Joins("JOIN chat_participant cp ON cp.chat_id = chat.id").
		Where("cp.user_id = ? AND cp.is_active = ?", userID, true)
	if typeFilter != "" {
		query = query.Where("chat.chat_type = ?", typeFilter)
	}
	err := query.Order("chat.updated_at DESC").Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (repo *ChatRepository) FindParticipant(ctx context.Context, chatID, userID string) (*entity.ChatParticipant, error) {
	var participant entity.ChatParticipant
	err := repo.DB.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (repo *ChatRepository) FindActiveParticipants(ctx context.Context, chatID string) ([]entity.ChatParticipant, error) {
	var participants []entity.ChatParticipant
	err := repo.DB.WithContext(ctx).
		Where("chat_id = ? AND is_active = ?", chatID, true).
		Find(&participants).Error
	return participants, err
}

func (repo *ChatRepository) IsActiveParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	err := repo.DB.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ? AND is_active = ?", chatID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo *ChatRepository) CountActiveAdmins(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := repo.DB.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND role = ? AND is_active = ?", chatID, enum.RoleAdmin, true).
		Count(&count).Error
	return count, err
}

func (repo *ChatRepository) SaveParticipant(ctx context.Context, participant *entity.ChatParticipant) error {
	return repo.DB.WithContext(ctx).Create(participant).Error
}

// ReactivateParticipant flips a soft-removed row back to active, clearing the
// left timestamp. Used on re-invite after a leave.
func (repo *ChatRepository) ReactivateParticipant(ctx context.Context, chatID, userID string) error {
	return repo.DB.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Updates(map[string]interface{}{"is_active": true, "left_at": nil}).Error
}

// DeactivateParticipant soft-removes: active=false, leftAt=now. The row stays
// so historical messages keep their attribution.
func (repo *ChatRepository) DeactivateParticipant(ctx context.Context, chatID, userID string) error {
	return repo.DB.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ? AND is_active = ?", chatID, userID, true).
		Updates(map[string]interface{}{"is_active": false, "left_at": time.Now()}).Error
}

func (repo *ChatRepository) UpdateParticipantRole(ctx context.Context, chatID, userID string, role enum.ParticipantRole) error {
	return repo.DB.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("role", role).Error
}

// TouchChat advances the chat's updated_at to the given time so recency
// ordering in chat lists follows the latest message.
func (repo *ChatRepository) TouchChat(ctx context.Context, chatID string, at time.Time) error {
	return repo.DB.WithContext(ctx).
		Model(&entity.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", at).Error
}
