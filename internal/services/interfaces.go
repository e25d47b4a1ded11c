package services

import (
	"context"
	"time"

	"renditax/internal/models"
)

// StoreStats contains aggregate counts for the dashboard header.
type StoreStats struct {
	TotalInstruments  int64      `json:"total_instruments"`
	TotalObservations int64      `json:"total_observations"`
	LastObservationAt *time.Time `json:"last_observation_at"`
}

// InstrumentServicer defines the contract for the instrument store: current
// state keyed by ISIN plus the append-only yield observation series.
type InstrumentServicer interface {
	Create(isin, symbol string, category models.Category, quantity float64) (*models.Instrument, error)
	GetAll() ([]models.Instrument, error)
	GetByISIN(isin string) (*models.Instrument, error)
	Delete(isin string) error
	ApplyEnrichment(isin string, fields map[string]interface{}) error
	AppendObservation(obs *models.YieldObservation) error
	ListObservations(isin string, limit int) ([]models.YieldObservation, error)
	GetStats() (*StoreStats, error)
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// RateFetcher resolves a conversion-rate ticker to its current rate.
type RateFetcher interface {
	FetchRate(ctx context.Context, pair string) (float64, error)
}

// FXServicer defines the contract for currency-rate lookups.
type FXServicer interface {
	GetRate(ctx context.Context, pair string) (float64, error)
}
