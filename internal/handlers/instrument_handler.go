package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "renditax/internal/errors"
	"renditax/internal/models"
	"renditax/internal/services"
)

// InstrumentHandler handles instrument-related requests
type InstrumentHandler struct {
	instrumentService services.InstrumentServicer
}

// NewInstrumentHandler creates a new InstrumentHandler
func NewInstrumentHandler(instrumentService services.InstrumentServicer) *InstrumentHandler {
	return &InstrumentHandler{instrumentService: instrumentService}
}

// CreateInstrumentRequest represents the instrument creation payload
type CreateInstrumentRequest struct {
	ISIN     string  `json:"isin" binding:"required,isin"`
	Symbol   string  `json:"symbol" binding:"required,max=20"`
	Category string  `json:"category" binding:"required,instrument_category"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// InstrumentResponse represents an instrument in API responses
type InstrumentResponse struct {
	ISIN         string   `json:"isin"`
	Symbol       string   `json:"symbol"`
	Category     string   `json:"category"`
	Name         string   `json:"name,omitempty"`
	Issuer       string   `json:"issuer,omitempty"`
	Quantity     float64  `json:"quantity"`
	LastPrice    *float64 `json:"last_price,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	YieldPercent *float64 `json:"yield_percent,omitempty"`
	LatestYield  *string  `json:"latest_yield,omitempty"`
}

// ObservationResponse represents a yield observation in API responses
type ObservationResponse struct {
	YieldText  string   `json:"yield_text"`
	YieldValue *float64 `json:"yield_value,omitempty"`
	ObservedAt string   `json:"observed_at"`
}

// Create handles instrument creation
// @Summary     Add an instrument
// @Description Register a new instrument identified by ISIN
// @Tags        instruments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInstrumentRequest true "Instrument data"
// @Success     201 {object} InstrumentResponse "Instrument created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "ISIN already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments [post]
func (h *InstrumentHandler) Create(c *gin.Context) {
	var req CreateInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	instrument, err := h.instrumentService.Create(req.ISIN, req.Symbol, models.Category(req.Category), req.Quantity)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInstrumentResponse(instrument))
}

// List returns all registered instruments
// @Summary     List instruments
// @Description List all registered instruments with their latest yield observation
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} InstrumentResponse "Instruments"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments [get]
func (h *InstrumentHandler) List(c *gin.Context) {
	instruments, err := h.instrumentService.GetAll()
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := make([]InstrumentResponse, 0, len(instruments))
	for i := range instruments {
		resp = append(resp, toInstrumentResponse(&instruments[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns a single instrument by ISIN
// @Summary     Get an instrument
// @Description Get a single instrument by its ISIN
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Param       isin path string true "Instrument ISIN"
// @Success     200 {object} InstrumentResponse "Instrument"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments/{isin} [get]
func (h *InstrumentHandler) Get(c *gin.Context) {
	instrument, err := h.instrumentService.GetByISIN(c.Param("isin"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInstrumentResponse(instrument))
}

// Delete removes an instrument and its observation history
// @Summary     Delete an instrument
// @Description Delete an instrument and all its yield observations
// @Tags        instruments
// @Security    BearerAuth
// @Param       isin path string true "Instrument ISIN"
// @Success     204 "Instrument deleted"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments/{isin} [delete]
func (h *InstrumentHandler) Delete(c *gin.Context) {
	if err := h.instrumentService.Delete(c.Param("isin")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListObservations returns the yield observation history for an instrument
// @Summary     List yield observations
// @Description List the yield observation history for an instrument, most recent first
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Param       isin path string true "Instrument ISIN"
// @Param       limit query int false "Maximum number of observations" default(30)
// @Success     200 {array} ObservationResponse "Observations"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments/{isin}/observations [get]
func (h *InstrumentHandler) ListObservations(c *gin.Context) {
	limit := 30
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	observations, err := h.instrumentService.ListObservations(c.Param("isin"), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := make([]ObservationResponse, 0, len(observations))
	for _, obs := range observations {
		resp = append(resp, ObservationResponse{
			YieldText:  obs.YieldText,
			YieldValue: obs.YieldValue,
			ObservedAt: obs.ObservedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats returns aggregate counts for the instrument store
// @Summary     Store statistics
// @Description Aggregate counts for instruments and yield observations
// @Tags        instruments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.StoreStats "Statistics"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /instruments/stats [get]
func (h *InstrumentHandler) GetStats(c *gin.Context) {
	stats, err := h.instrumentService.GetStats()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func toInstrumentResponse(instrument *models.Instrument) InstrumentResponse {
	resp := InstrumentResponse{
		ISIN:         instrument.ISIN,
		Symbol:       instrument.Symbol,
		Category:     string(instrument.Category),
		Name:         instrument.Name,
		Issuer:       instrument.Issuer,
		Quantity:     instrument.Quantity,
		LastPrice:    instrument.LastPrice,
		Currency:     instrument.Currency,
		YieldPercent: instrument.YieldPercent,
	}
	if latest := instrument.LatestObservation(); latest != nil {
		resp.LatestYield = &latest.YieldText
	}
	return resp
}
