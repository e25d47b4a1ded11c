package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "renditax/internal/errors"
	"renditax/internal/models"
	"renditax/internal/validator"
)

// instrumentService handles instrument-store business logic.
type instrumentService struct {
	db *gorm.DB
}

// NewInstrumentService creates a new InstrumentServicer.
func NewInstrumentService(db *gorm.DB) InstrumentServicer {
	return &instrumentService{db: db}
}

// Create registers a new instrument. The ISIN must match the fixed
// 12-character pattern and be globally unique; the symbol is uppercased.
func (s *instrumentService) Create(isin, symbol string, category models.Category, quantity float64) (*models.Instrument, error) {
	if !validator.IsValidISIN(isin) {
		return nil, apperrors.ErrInvalidISIN
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required")
	}
	if category != models.CategoryFund && category != models.CategoryEquity {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Category must be fund or equity")
	}
	if quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be positive")
	}

	instrument := &models.Instrument{
		ISIN:     isin,
		Symbol:   symbol,
		Category: category,
		Quantity: quantity,
	}

	if err := s.db.Create(instrument).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateISIN
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return instrument, nil
}

// GetAll returns every instrument with its observation series preloaded
// newest first, so the latest observation is directly addressable.
func (s *instrumentService) GetAll() ([]models.Instrument, error) {
	var instruments []models.Instrument
	err := s.db.
		Preload("Observations", func(db *gorm.DB) *gorm.DB {
			return db.Order("observed_at DESC")
		}).
		Order("created_at DESC").
		Find(&instruments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return instruments, nil
}

// GetByISIN returns a single instrument.
func (s *instrumentService) GetByISIN(isin string) (*models.Instrument, error) {
	var instrument models.Instrument
	if err := s.db.First(&instrument, "isin = ?", isin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstrumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &instrument, nil
}

// Delete removes an instrument and its whole observation series. The
// observations are deleted in the same transaction so no orphans remain
// even on databases where the FK cascade is not enforced.
func (s *instrumentService) Delete(isin string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("isin = ?", isin).Delete(&models.YieldObservation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result := tx.Where("isin = ?", isin).Delete(&models.Instrument{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrInstrumentNotFound
		}
		return nil
	})
}

// ApplyEnrichment updates the given instrument columns from an enrichment
// pass. The column set is decided by the caller's field policy; updated_at
// refreshes on every write.
func (s *instrumentService) ApplyEnrichment(isin string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "No fields to update")
	}
	result := s.db.Model(&models.Instrument{}).Where("isin = ?", isin).Updates(fields)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInstrumentNotFound
	}
	return nil
}

// AppendObservation inserts a yield observation, skipping duplicates:
// a second insert with the same (isin, observed_at) is a harmless no-op.
func (s *instrumentService) AppendObservation(obs *models.YieldObservation) error {
	candidate := models.YieldObservation{
		ISIN:       obs.ISIN,
		YieldText:  obs.YieldText,
		YieldValue: obs.YieldValue,
		ObservedAt: obs.ObservedAt,
	}
	result := s.db.Where("isin = ? AND observed_at = ?", obs.ISIN, obs.ObservedAt).
		FirstOrCreate(&candidate)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	*obs = candidate
	return nil
}

// ListObservations returns up to limit observations for an instrument,
// newest first.
func (s *instrumentService) ListObservations(isin string, limit int) ([]models.YieldObservation, error) {
	if _, err := s.GetByISIN(isin); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 30
	}

	var observations []models.YieldObservation
	err := s.db.
		Where("isin = ?", isin).
		Order("observed_at DESC").
		Limit(limit).
		Find(&observations).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return observations, nil
}

// GetStats returns aggregate store counts and the last observation time.
func (s *instrumentService) GetStats() (*StoreStats, error) {
	stats := &StoreStats{}

	if err := s.db.Model(&models.Instrument{}).Count(&stats.TotalInstruments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.YieldObservation{}).Count(&stats.TotalObservations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var last models.YieldObservation
	err := s.db.Order("observed_at DESC").First(&last).Error
	if err == nil {
		stats.LastObservationAt = &last.ObservedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return stats, nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
