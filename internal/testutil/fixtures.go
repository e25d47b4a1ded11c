package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"renditax/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NextISIN returns a syntactically valid, unique ISIN for fixtures.
func NextISIN() string {
	return fmt.Sprintf("IE00B%07d", nextID())
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestFund creates a fund instrument with a unique ISIN and symbol.
func CreateTestFund(t *testing.T, db *gorm.DB) *models.Instrument {
	t.Helper()
	return createTestInstrument(t, db, models.CategoryFund)
}

// CreateTestEquity creates an equity instrument with a unique ISIN and symbol.
func CreateTestEquity(t *testing.T, db *gorm.DB) *models.Instrument {
	t.Helper()
	return createTestInstrument(t, db, models.CategoryEquity)
}

func createTestInstrument(t *testing.T, db *gorm.DB, category models.Category) *models.Instrument {
	t.Helper()

	n := nextID()
	instrument := &models.Instrument{
		ISIN:     fmt.Sprintf("IE00B%07d", n),
		Symbol:   fmt.Sprintf("TST%d", n),
		Category: category,
		Quantity: 10.0,
	}
	if err := db.Create(instrument).Error; err != nil {
		t.Fatalf("failed to create test instrument: %v", err)
	}
	return instrument
}

// CreateTestObservation appends a yield observation for the given instrument.
func CreateTestObservation(t *testing.T, db *gorm.DB, isin string, observedAt time.Time) *models.YieldObservation {
	t.Helper()

	value := 3.69
	obs := &models.YieldObservation{
		ISIN:       isin,
		YieldText:  "3,69%",
		YieldValue: &value,
		ObservedAt: observedAt,
	}
	if err := db.Create(obs).Error; err != nil {
		t.Fatalf("failed to create test observation: %v", err)
	}
	return obs
}
