package testutil

import (
	"errors"
	"testing"

	apperrors "renditax/internal/errors"
)

// AssertAppError fails the test unless err unwraps to an *AppError carrying
// wantCode.
func AssertAppError(t *testing.T, err error, wantCode string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("want AppError %s, got nil error", wantCode)
	case !errors.As(err, &appErr):
		t.Fatalf("want AppError %s, got %T: %v", wantCode, err, err)
	case appErr.Code != wantCode:
		t.Errorf("want error code %s, got %s (%s)", wantCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test immediately on a non-nil error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
