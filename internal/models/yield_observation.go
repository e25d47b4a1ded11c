package models

import (
	"time"

	"renditax/internal/uuid"

	"gorm.io/gorm"
)

// YieldObservation represents one timestamped dividend-yield snapshot for an
// instrument. This is immutable time-series data, so there is no Base embed and no soft
// deletes. YieldValue is nil when the source text could not be parsed; the
// as-displayed text is always kept.
type YieldObservation struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ISIN       string    `gorm:"size:12;not null;column:isin;uniqueIndex:uq_observations_isin_observed_at" json:"isin"`
	YieldText  string    `gorm:"not null" json:"yield_text"`
	YieldValue *float64  `json:"yield_value"`
	ObservedAt time.Time `gorm:"not null;uniqueIndex:uq_observations_isin_observed_at" json:"observed_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (o *YieldObservation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New()
	}
	return nil
}
