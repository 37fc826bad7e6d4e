package entity

import (
	"time"

	"chat-backend/enum"
)

// MessageMetadata is the relational index row kept alongside every message
// document. It backs pagination, counting and audit queries and is the
// second leg of the dual write on send.
type MessageMetadata struct {
	BaseEntity
	ChatID       string           `json:"chatId" gorm:"type:varchar(255);not null;index"`
	SenderID     string           `json:"senderId" gorm:"type:varchar(255);not null;index"`
	MessageDocID string           `json:"messageDocId" gorm:"type:varchar(50);not null;uniqueIndex"`
	MessageType  enum.MessageType `json:"messageType" gorm:"type:varchar(20);default:'TEXT'"`
	IsDeleted    bool             `json:"isDeleted" gorm:"default:false"`
	SentAt       time.Time        `json:"sentAt" gorm:"not null"`

	Chat   Chat `json:"-" gorm:"foreignKey:ChatID;references:ID"`
	Sender User `json:"-" gorm:"foreignKey:SenderID;references:ID"`
}
