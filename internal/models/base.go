package models

import (
	"time"

	"renditax/internal/uuid"

	"gorm.io/gorm"
)

// Base carries the uuid primary key and gorm bookkeeping columns for
// mutable, soft-deleted tables. Only User embeds it: instruments key on
// their natural ISIN and observations are immutable rows with their own
// uuid hook.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns a time-ordered UUIDv7 so primary keys sort by
// insertion.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
