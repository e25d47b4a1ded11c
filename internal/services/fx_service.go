package services

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	apperrors "renditax/internal/errors"
)

// fxService resolves conversion-rate tickers (e.g. "EURUSD=X") through the
// quote transport, caching results so dashboard refreshes do not hammer the
// external service.
type fxService struct {
	fetcher RateFetcher
	cache   *gocache.Cache
}

// NewFXService creates an FXServicer with the given cache TTL.
func NewFXService(fetcher RateFetcher, ttl time.Duration) FXServicer {
	return &fxService{
		fetcher: fetcher,
		cache:   gocache.New(ttl, 2*ttl),
	}
}

// GetRate returns the current conversion rate for the pair ticker.
func (s *fxService) GetRate(ctx context.Context, pair string) (float64, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Pair is required")
	}

	if cached, found := s.cache.Get(pair); found {
		return cached.(float64), nil
	}

	rate, err := s.fetcher.FetchRate(ctx, pair)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrRateNotFound, err)
	}

	s.cache.Set(pair, rate, gocache.DefaultExpiration)
	return rate, nil
}
