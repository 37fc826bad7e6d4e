package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

// BaseEntity carries the shared identifier and timestamps. Soft deletion is
// modeled per domain (participant active flags, message tombstones), not with
// gorm's DeletedAt.
type BaseEntity struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (base *BaseEntity) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}
