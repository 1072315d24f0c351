package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the identifier and timestamps shared by mutable records.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid;column:id" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// EnsureID assigns a fresh UUID when the record has none yet.
func (b *BaseModel) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}
