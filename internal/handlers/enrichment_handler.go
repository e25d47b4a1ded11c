package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"renditax/internal/enrich"
	apperrors "renditax/internal/errors"
)

// EnrichmentHandler exposes the enrichment pipeline over HTTP: synchronous
// per-instrument refreshes and fire-and-forget batch runs.
type EnrichmentHandler struct {
	runner   *enrich.Runner
	queue    *enrich.Queue
	adapters map[enrich.Source]enrich.Adapter
}

// NewEnrichmentHandler creates a new EnrichmentHandler.
func NewEnrichmentHandler(runner *enrich.Runner, queue *enrich.Queue, adapters []enrich.Adapter) *EnrichmentHandler {
	bySource := make(map[enrich.Source]enrich.Adapter, len(adapters))
	for _, a := range adapters {
		bySource[a.Source()] = a
	}
	return &EnrichmentHandler{runner: runner, queue: queue, adapters: bySource}
}

// EnrichOne refreshes a single instrument from one source, synchronously
// @Summary     Enrich one instrument
// @Description Fetch fresh data for a single instrument from the given source and reconcile it into the store
// @Tags        enrichment
// @Produce     json
// @Security    BearerAuth
// @Param       source path string true "Enrichment source" Enums(scrape, quotes)
// @Param       isin path string true "Instrument ISIN"
// @Success     200 {object} enrich.ItemResult "Enrichment outcome"
// @Failure     400 {object} ErrorResponse "Invalid ISIN, unknown source, or source not eligible for the instrument category"
// @Failure     404 {object} ErrorResponse "Instrument not found"
// @Failure     502 {object} ErrorResponse "Source fetch failed"
// @Router      /enrich/{source}/{isin} [post]
func (h *EnrichmentHandler) EnrichOne(c *gin.Context) {
	adapter, err := h.adapterFor(c.Param("source"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	item, err := h.runner.EnrichOne(c.Request.Context(), adapter, c.Param("isin"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// SubmitBatch triggers a background batch run over all eligible instruments
// @Summary     Trigger a batch run
// @Description Start a fire-and-forget enrichment pass over all instruments eligible for the source. Returns immediately with a job handle to poll.
// @Tags        enrichment
// @Produce     json
// @Security    BearerAuth
// @Param       source path string true "Enrichment source" Enums(scrape, quotes)
// @Success     202 {object} enrich.Job "Job accepted"
// @Failure     400 {object} ErrorResponse "Unknown source"
// @Failure     409 {object} ErrorResponse "A run for this source is already active"
// @Router      /enrich/{source} [post]
func (h *EnrichmentHandler) SubmitBatch(c *gin.Context) {
	adapter, err := h.adapterFor(c.Param("source"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	job, err := h.queue.Submit(adapter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetJob returns the current state of a batch job
// @Summary     Get batch job status
// @Description Poll the status of a previously submitted batch run
// @Tags        enrichment
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Job ID"
// @Success     200 {object} enrich.Job "Job state"
// @Failure     404 {object} ErrorResponse "Job not found"
// @Router      /enrich/jobs/{id} [get]
func (h *EnrichmentHandler) GetJob(c *gin.Context) {
	job, ok := h.queue.Get(c.Param("id"))
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Job not found"))
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *EnrichmentHandler) adapterFor(raw string) (enrich.Adapter, error) {
	adapter, ok := h.adapters[enrich.Source(raw)]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown enrichment source")
	}
	return adapter, nil
}
