package entity

import (
	"sort"
	"strings"
	"time"

	"chat-backend/enum"
)

type Chat struct {
	BaseEntity
	ChatType    enum.ChatType `json:"chatType" gorm:"type:varchar(7);not null"`
	Name        string        `json:"name" gorm:"type:varchar(100)"`
	Description string        `json:"description" gorm:"type:varchar(255)"`
	PictureURL  string        `json:"pictureUrl" gorm:"type:text"`
	CreatedByID string        `json:"createdBy" gorm:"type:varchar(255);not null"`

	// PairKey is set only for private chats: the two participant ids sorted
	// and joined, backed by a unique index so two concurrent creations of the
	// same pair cannot both commit.
	PairKey *string `json:"-" gorm:"type:varchar(511);uniqueIndex"`

	Participants []ChatParticipant `json:"participants" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE;"`
}

// PrivatePairKey builds the unordered pair key for a private chat.
func PrivatePairKey(userAID, userBID string) string {
	ids := []string{userAID, userBID}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

type ChatParticipant struct {
	ID     string `json:"id" gorm:"primaryKey;type:varchar(255);default:gen_random_uuid()"`
	ChatID string `json:"chatId" gorm:"type:varchar(255);not null;uniqueIndex:idx_chat_participant"`
	UserID string `json:"userId" gorm:"type:varchar(255);not null;uniqueIndex:idx_chat_participant"`

	Role                 enum.ParticipantRole `json:"role" gorm:"type:varchar(20);not null;default:'MEMBER'"`
	IsActive             bool                 `json:"isActive" gorm:"default:true"`
	NotificationsEnabled bool                 `json:"notificationsEnabled" gorm:"default:true"`
	JoinedAt             time.Time            `json:"joinedAt" gorm:"autoCreateTime"`
	LeftAt               *time.Time           `json:"leftAt,omitempty"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE;"`
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}
