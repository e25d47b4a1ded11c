package models

import "time"

// Category determines which enrichment sources may write which fields
// of an instrument.
type Category string

const (
	CategoryFund   Category = "fund"
	CategoryEquity Category = "equity"
)

// Instrument represents a tracked holding, keyed by its 12-character ISIN.
// The ISIN is immutable once created; it does not embed Base because the
// natural key replaces the uuid and deletes are hard (observations cascade).
type Instrument struct {
	ISIN         string    `gorm:"primaryKey;size:12;column:isin" json:"isin"`
	Symbol       string    `gorm:"not null" json:"symbol"`
	Category     Category  `gorm:"not null" json:"category"`
	Name         string    `json:"name,omitempty"`
	Issuer       string    `json:"issuer,omitempty"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	LastPrice    *float64  `json:"last_price,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	YieldPercent *float64  `json:"yield_percent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Observations []YieldObservation `gorm:"foreignKey:ISIN;references:ISIN;constraint:OnDelete:CASCADE" json:"observations,omitempty"`
}

// LatestObservation returns the newest yield observation preloaded on the
// instrument, or nil when none exists. GetAll preloads observations ordered
// newest first.
func (i *Instrument) LatestObservation() *YieldObservation {
	if len(i.Observations) == 0 {
		return nil
	}
	return &i.Observations[0]
}
