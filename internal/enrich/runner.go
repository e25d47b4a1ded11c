package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "renditax/internal/errors"
	"renditax/internal/models"
	"renditax/internal/validator"
)

// InstrumentStore is the persistence surface the runner reconciles into.
type InstrumentStore interface {
	GetAll() ([]models.Instrument, error)
	GetByISIN(isin string) (*models.Instrument, error)
	ApplyEnrichment(isin string, fields map[string]interface{}) error
	AppendObservation(obs *models.YieldObservation) error
}

// ItemStatus is the terminal state of one instrument within a batch.
// No retries, no re-entry.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemFailed    ItemStatus = "failed"
	// ItemStoreFailed means data was fetched but could not be saved:
	// a storage problem, not a source problem.
	ItemStoreFailed ItemStatus = "store_failed"
)

// ItemResult records the outcome for a single instrument.
type ItemResult struct {
	ISIN   string     `json:"isin"`
	Symbol string     `json:"symbol"`
	Status ItemStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// BatchReport aggregates per-item outcomes for one pass.
type BatchReport struct {
	Source           Source       `json:"source"`
	Total            int          `json:"total"`
	Succeeded        int          `json:"succeeded"`
	Failed           int          `json:"failed"`
	Skipped          int          `json:"skipped"`
	NothingToProcess bool         `json:"nothing_to_process"`
	StartedAt        time.Time    `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	Items            []ItemResult `json:"items"`
}

// Runner sequences per-instrument enrichment calls against the store and
// isolates per-item failures: one item's failure never aborts the batch.
type Runner struct {
	store  InstrumentStore
	logger *zap.SugaredLogger
	delays map[Source]time.Duration

	mu     sync.Mutex
	active map[Source]bool
}

// NewRunner creates a batch runner. itemDelays sets the mandatory pause
// enforced after every item per source, regardless of outcome.
func NewRunner(store InstrumentStore, itemDelays map[Source]time.Duration, logger *zap.SugaredLogger) *Runner {
	return &Runner{
		store:  store,
		logger: logger,
		delays: itemDelays,
		active: make(map[Source]bool),
	}
}

// RunBatch performs one sequential pass over all instruments the adapter's
// source is eligible for. Only one batch per source may be active at a time;
// a second trigger is rejected with ENRICH_RUN_ACTIVE.
func (r *Runner) RunBatch(ctx context.Context, adapter Adapter) (*BatchReport, error) {
	source := adapter.Source()
	if !r.acquire(source) {
		return nil, apperrors.ErrEnrichRunActive
	}
	defer r.release(source)

	report := &BatchReport{Source: source, StartedAt: time.Now().UTC()}

	instruments, err := r.store.GetAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	eligible := instruments[:0:0]
	for _, inst := range instruments {
		if adapter.Supports(inst.Category) {
			eligible = append(eligible, inst)
		}
	}
	report.Skipped = len(instruments) - len(eligible)

	if len(eligible) == 0 {
		report.NothingToProcess = true
		report.Duration = time.Since(report.StartedAt)
		r.logger.Infow("no instruments to process",
			"source", source,
			"skipped", report.Skipped,
		)
		return report, nil
	}

	r.logger.Infow("batch started",
		"source", source,
		"eligible", len(eligible),
		"skipped", report.Skipped,
	)

	// Burst 1 keeps fetches strictly sequential with a fixed inter-item gap.
	// The bucket starts full, so drain it up front; otherwise the first Wait
	// returns immediately and the gap between items one and two is skipped.
	limiter := rate.NewLimiter(rate.Every(r.delayFor(source)), 1)
	limiter.Allow()

	for _, inst := range eligible {
		r.logger.Infow("enriching instrument", "source", source, "isin", inst.ISIN, "symbol", inst.Symbol)

		result := adapter.FetchEnrichment(ctx, inst)
		item := r.reconcile(adapter, inst, result)

		report.Items = append(report.Items, item)
		report.Total++
		if item.Status == ItemSucceeded {
			report.Succeeded++
		} else {
			report.Failed++
			r.logger.Warnw("item failed",
				"source", source,
				"isin", inst.ISIN,
				"status", item.Status,
				"reason", item.Reason,
			)
		}

		// Mandatory pause after every item, success or not, to stay under
		// the source's rate limits.
		if err := limiter.Wait(ctx); err != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	r.logger.Infow("batch completed",
		"source", source,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration.String(),
	)
	return report, nil
}

// EnrichOne runs the fetch-and-reconcile path for a single instrument,
// synchronously. Unlike batch items, failures surface as errors.
func (r *Runner) EnrichOne(ctx context.Context, adapter Adapter, isin string) (*ItemResult, error) {
	if !validator.IsValidISIN(isin) {
		return nil, apperrors.ErrInvalidISIN
	}

	inst, err := r.store.GetByISIN(isin)
	if err != nil {
		return nil, err
	}
	if !adapter.Supports(inst.Category) {
		return nil, apperrors.ErrEnrichSourceMismatch
	}

	result := adapter.FetchEnrichment(ctx, *inst)
	item := r.reconcile(adapter, *inst, result)

	switch item.Status {
	case ItemSucceeded:
		return &item, nil
	case ItemStoreFailed:
		return &item, apperrors.ErrEnrichStoreFailed
	default:
		return &item, apperrors.WithMessage(apperrors.ErrEnrichFetchFailed, item.Reason)
	}
}

// reconcile merges a fetch result into the store under the source/category
// field policy and returns the item's terminal state.
func (r *Runner) reconcile(adapter Adapter, inst models.Instrument, result Result) ItemResult {
	item := ItemResult{ISIN: inst.ISIN, Symbol: inst.Symbol}

	switch result.Status {
	case StatusNotFound:
		item.Status = ItemFailed
		item.Reason = "not found"
		return item
	case StatusTransient:
		item.Status = ItemFailed
		item.Reason = result.Message
		return item
	}

	policy, ok := PolicyFor(adapter.Source(), inst.Category)
	if !ok {
		item.Status = ItemFailed
		item.Reason = "source not eligible for category"
		return item
	}

	fields := eligibleFields(policy, result.Enrichment)
	if len(fields) == 0 {
		item.Status = ItemFailed
		item.Reason = "no usable data"
		return item
	}

	if err := r.store.ApplyEnrichment(inst.ISIN, fields); err != nil {
		item.Status = ItemStoreFailed
		item.Reason = "data fetched but not saved"
		r.logger.Errorw("enrichment update failed", "isin", inst.ISIN, "error", err)
		return item
	}

	if policy.Yield && result.YieldText != nil {
		obs := &models.YieldObservation{
			ISIN:       inst.ISIN,
			YieldText:  *result.YieldText,
			YieldValue: result.YieldValue,
			ObservedAt: time.Now().UTC(),
		}
		if err := r.store.AppendObservation(obs); err != nil {
			item.Status = ItemStoreFailed
			item.Reason = "data fetched but not saved"
			r.logger.Errorw("observation append failed", "isin", inst.ISIN, "error", err)
			return item
		}
	}

	item.Status = ItemSucceeded
	return item
}

// eligibleFields maps the extracted enrichment onto instrument columns,
// filtered by the field policy.
func eligibleFields(policy FieldPolicy, e Enrichment) map[string]interface{} {
	fields := make(map[string]interface{})
	if policy.Name && e.Name != nil {
		fields["name"] = *e.Name
	}
	if policy.Issuer && e.Issuer != nil {
		fields["issuer"] = *e.Issuer
	}
	if policy.Yield && e.YieldValue != nil {
		fields["yield_percent"] = *e.YieldValue
	}
	if policy.Price {
		if e.LastPrice != nil {
			fields["last_price"] = *e.LastPrice
		}
		if e.Currency != nil {
			fields["currency"] = *e.Currency
		}
	}
	return fields
}

func (r *Runner) delayFor(source Source) time.Duration {
	if d, ok := r.delays[source]; ok && d > 0 {
		return d
	}
	return time.Second
}

// Active reports whether a batch for the source is currently running.
func (r *Runner) Active(source Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[source]
}

func (r *Runner) acquire(source Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[source] {
		return false
	}
	r.active[source] = true
	return true
}

func (r *Runner) release(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[source] = false
}
