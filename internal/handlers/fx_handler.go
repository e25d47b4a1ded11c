package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"renditax/internal/services"
)

// FXHandler handles currency conversion rate requests
type FXHandler struct {
	fxService services.FXServicer
}

// NewFXHandler creates a new FXHandler
func NewFXHandler(fxService services.FXServicer) *FXHandler {
	return &FXHandler{fxService: fxService}
}

// RateResponse represents a conversion rate in API responses
type RateResponse struct {
	Pair string  `json:"pair"`
	Rate float64 `json:"rate"`
}

// GetRate returns the conversion rate for a currency pair ticker
// @Summary     Get conversion rate
// @Description Get the current conversion rate for a currency pair ticker such as EURUSD=X
// @Tags        currency
// @Produce     json
// @Security    BearerAuth
// @Param       pair path string true "Currency pair ticker"
// @Success     200 {object} RateResponse "Conversion rate"
// @Failure     400 {object} ErrorResponse "Invalid pair"
// @Failure     404 {object} ErrorResponse "Rate not available"
// @Router      /currency/{pair} [get]
func (h *FXHandler) GetRate(c *gin.Context) {
	pair := c.Param("pair")

	rate, err := h.fxService.GetRate(c.Request.Context(), pair)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RateResponse{Pair: pair, Rate: rate})
}
