package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "renditax/internal/errors"
	"renditax/internal/models"
	"renditax/internal/services"
)

// --- mock instrument service ---

type mockInstrumentService struct {
	createFn            func(isin, symbol string, category models.Category, quantity float64) (*models.Instrument, error)
	getAllFn            func() ([]models.Instrument, error)
	getByISINFn         func(isin string) (*models.Instrument, error)
	deleteFn            func(isin string) error
	applyEnrichmentFn   func(isin string, fields map[string]interface{}) error
	appendObservationFn func(obs *models.YieldObservation) error
	listObservationsFn  func(isin string, limit int) ([]models.YieldObservation, error)
	getStatsFn          func() (*services.StoreStats, error)
}

func (m *mockInstrumentService) Create(isin, symbol string, category models.Category, quantity float64) (*models.Instrument, error) {
	if m.createFn != nil {
		return m.createFn(isin, symbol, category, quantity)
	}
	return &models.Instrument{ISIN: isin, Symbol: symbol, Category: category, Quantity: quantity}, nil
}

func (m *mockInstrumentService) GetAll() ([]models.Instrument, error) {
	if m.getAllFn != nil {
		return m.getAllFn()
	}
	return []models.Instrument{}, nil
}

func (m *mockInstrumentService) GetByISIN(isin string) (*models.Instrument, error) {
	if m.getByISINFn != nil {
		return m.getByISINFn(isin)
	}
	return &models.Instrument{ISIN: isin}, nil
}

func (m *mockInstrumentService) Delete(isin string) error {
	if m.deleteFn != nil {
		return m.deleteFn(isin)
	}
	return nil
}

func (m *mockInstrumentService) ApplyEnrichment(isin string, fields map[string]interface{}) error {
	if m.applyEnrichmentFn != nil {
		return m.applyEnrichmentFn(isin, fields)
	}
	return nil
}

func (m *mockInstrumentService) AppendObservation(obs *models.YieldObservation) error {
	if m.appendObservationFn != nil {
		return m.appendObservationFn(obs)
	}
	return nil
}

func (m *mockInstrumentService) ListObservations(isin string, limit int) ([]models.YieldObservation, error) {
	if m.listObservationsFn != nil {
		return m.listObservationsFn(isin, limit)
	}
	return []models.YieldObservation{}, nil
}

func (m *mockInstrumentService) GetStats() (*services.StoreStats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn()
	}
	return &services.StoreStats{}, nil
}

var _ services.InstrumentServicer = (*mockInstrumentService)(nil)

func setupInstrumentRouter(handler *InstrumentHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/instruments", handler.Create)
	auth.GET("/instruments", handler.List)
	auth.GET("/instruments/stats", handler.GetStats)
	auth.GET("/instruments/:isin", handler.Get)
	auth.DELETE("/instruments/:isin", handler.Delete)
	auth.GET("/instruments/:isin/observations", handler.ListObservations)
	return r
}

func TestInstrumentHandler_Create(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"IE00B4L5Y983","symbol":"SWDA.MI","category":"fund","quantity":42}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["isin"] != "IE00B4L5Y983" {
			t.Errorf("expected ISIN IE00B4L5Y983, got %v", result["isin"])
		}
	})

	t.Run("returns 400 on malformed isin", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"not-an-isin","symbol":"SWDA","category":"fund","quantity":1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown category", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"IE00B4L5Y983","symbol":"SWDA","category":"bond","quantity":1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on non-positive quantity", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"IE00B4L5Y983","symbol":"SWDA","category":"fund","quantity":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate isin", func(t *testing.T) {
		svc := &mockInstrumentService{
			createFn: func(_, _ string, _ models.Category, _ float64) (*models.Instrument, error) {
				return nil, apperrors.ErrDuplicateISIN
			},
		}
		handler := NewInstrumentHandler(svc)
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "POST", "/instruments",
			`{"isin":"IE00B4L5Y983","symbol":"SWDA","category":"fund","quantity":1}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_ISIN")
	})
}

func TestInstrumentHandler_List(t *testing.T) {
	t.Run("returns 200 with latest yield per instrument", func(t *testing.T) {
		yield := 3.69
		svc := &mockInstrumentService{
			getAllFn: func() ([]models.Instrument, error) {
				return []models.Instrument{
					{
						ISIN:     "IE00B4L5Y983",
						Symbol:   "SWDA.MI",
						Category: models.CategoryFund,
						Quantity: 42,
						Observations: []models.YieldObservation{
							{ISIN: "IE00B4L5Y983", YieldText: "3,69%", YieldValue: &yield, ObservedAt: time.Now()},
						},
					},
					{ISIN: "US0378331005", Symbol: "AAPL", Category: models.CategoryEquity, Quantity: 5},
				}, nil
			},
		}
		handler := NewInstrumentHandler(svc)
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "GET", "/instruments", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var result []map[string]interface{}
		parseJSONInto(t, rec, &result)
		if len(result) != 2 {
			t.Fatalf("expected 2 instruments, got %d", len(result))
		}
		if result[0]["latest_yield"] != "3,69%" {
			t.Errorf("expected latest yield 3,69%%, got %v", result[0]["latest_yield"])
		}
		if _, ok := result[1]["latest_yield"]; ok {
			t.Error("expected no latest_yield for instrument without observations")
		}
	})
}

func TestInstrumentHandler_Get(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockInstrumentService{
			getByISINFn: func(_ string) (*models.Instrument, error) {
				return nil, apperrors.ErrInstrumentNotFound
			},
		}
		handler := NewInstrumentHandler(svc)
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "GET", "/instruments/IE0000000000", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSTRUMENT_NOT_FOUND")
	})
}

func TestInstrumentHandler_Delete(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "DELETE", "/instruments/IE00B4L5Y983", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockInstrumentService{
			deleteFn: func(_ string) error { return apperrors.ErrInstrumentNotFound },
		}
		handler := NewInstrumentHandler(svc)
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "DELETE", "/instruments/IE0000000000", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestInstrumentHandler_ListObservations(t *testing.T) {
	t.Run("returns 200 and forwards limit", func(t *testing.T) {
		var capturedLimit int
		svc := &mockInstrumentService{
			listObservationsFn: func(_ string, limit int) ([]models.YieldObservation, error) {
				capturedLimit = limit
				return []models.YieldObservation{
					{ISIN: "IE00B4L5Y983", YieldText: "3,69%", ObservedAt: time.Now()},
				}, nil
			},
		}
		handler := NewInstrumentHandler(svc)
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "GET", "/instruments/IE00B4L5Y983/observations?limit=7", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if capturedLimit != 7 {
			t.Errorf("expected limit 7, got %d", capturedLimit)
		}
	})

	t.Run("returns 400 on bad limit", func(t *testing.T) {
		handler := NewInstrumentHandler(&mockInstrumentService{})
		r := setupInstrumentRouter(handler)

		rec := doRequest(r, "GET", "/instruments/IE00B4L5Y983/observations?limit=zero", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestInstrumentHandler_GetStats(t *testing.T) {
	svc := &mockInstrumentService{
		getStatsFn: func() (*services.StoreStats, error) {
			return &services.StoreStats{TotalInstruments: 3, TotalObservations: 12}, nil
		},
	}
	handler := NewInstrumentHandler(svc)
	r := setupInstrumentRouter(handler)

	rec := doRequest(r, "GET", "/instruments/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["total_instruments"] != float64(3) {
		t.Errorf("expected 3 instruments, got %v", result["total_instruments"])
	}
	if result["total_observations"] != float64(12) {
		t.Errorf("expected 12 observations, got %v", result["total_observations"])
	}
}
