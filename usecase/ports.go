package usecase

import (
	"context"
	"time"

	"chat-backend/document"
	"chat-backend/entity"
	"chat-backend/enum"
)

// Store ports consumed by the usecases. The concrete implementations live in
// the repository package (gorm, mongo, redis); tests substitute fakes.

type ChatRepository interface {
	FindChatByID(ctx context.Context, id string) (*entity.Chat, error)
	FindPrivateChatByPairKey(ctx context.Context, pairKey string) (*entity.Chat, error)
	CreateChatWithParticipants(ctx context.Context, chat *entity.Chat, participants []entity.ChatParticipant) error
	Update(ctx context.Context, chat *entity.Chat) error
	FindChatsByUserID(ctx context.Context, userID string, typeFilter enum.ChatType) ([]entity.Chat, error)
	FindParticipant(ctx context.Context, chatID, userID string) (*entity.ChatParticipant, error)
	FindActiveParticipants(ctx context.Context, chatID string) ([]entity.ChatParticipant, error)
	IsActiveParticipant(ctx context.Context, chatID, userID string) (bool, error)
	CountActiveAdmins(ctx context.Context, chatID string) (int64, error)
	SaveParticipant(ctx context.Context, participant *entity.ChatParticipant) error
	ReactivateParticipant(ctx context.Context, chatID, userID string) error
	DeactivateParticipant(ctx context.Context, chatID, userID string) error
	UpdateParticipantRole(ctx context.Context, chatID, userID string, role enum.ParticipantRole) error
	TouchChat(ctx context.Context, chatID string, at time.Time) error
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *document.Message) error
	FindByID(ctx context.Context, id string) (*document.Message, error)
	FindPage(ctx context.Context, chatID string, page, size int) ([]document.Message, error)
	Search(ctx context.Context, chatID, term string) ([]document.Message, error)
	CountUnread(ctx context.Context, chatID, userID string) (int64, error)
	UpdateContent(ctx context.Context, id, content string, editedAt time.Time) (*document.Message, error)
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
	AddReaction(ctx context.Context, id string, reaction document.Reaction) (*document.Message, error)
	RemoveReaction(ctx context.Context, id, userID, emoji string) (*document.Message, error)
	AddReadReceipt(ctx context.Context, id string, receipt document.ReadReceipt) (*document.Message, error)
	FindSince(ctx context.Context, since time.Time, limit int) ([]document.Message, error)
}

type MetadataRepository interface {
	Save(ctx context.Context, metadata *entity.MessageMetadata) error
	FindByMessageDocID(ctx context.Context, docID string) (*entity.MessageMetadata, error)
	SetDeleted(ctx context.Context, docID string, deleted bool) error
	CountByChat(ctx context.Context, chatID string) (int64, error)
	ExistingDocIDs(ctx context.Context, docIDs []string) (map[string]bool, error)
}

type PresenceRepository interface {
	SetTyping(ctx context.Context, indicator document.TypingIndicator) error
	TypingUsers(ctx context.Context, chatID string) ([]string, error)
}

// UserDirectory is the identity lookup boundary. Lookups return nil (not an
// error) for unknown users so read-time enrichment can degrade gracefully.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByUsernameOrEmail(ctx context.Context, term string) (*entity.User, error)
}

// UserStore extends the directory with writes, used by registration.
type UserStore interface {
	UserDirectory
	Save(ctx context.Context, user *entity.User) error
}
