// Package enrich fetches yield and price data for instruments from external
// sources and reconciles it into the store. Sources are deliberately polled
// sequentially, one instrument at a time, to stay under external
// rate-limiting and anti-automation thresholds.
package enrich

import (
	"context"

	"renditax/internal/models"
)

// Source identifies an external enrichment source.
type Source string

const (
	// SourceScrape is the JustETF profile-page scraper (funds only).
	SourceScrape Source = "scrape"
	// SourceQuotes is the Yahoo Finance quoteSummary service (all categories).
	SourceQuotes Source = "quotes"
)

// Status is the tagged variant of a fetch result.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusNotFound  Status = "not_found"
	StatusTransient Status = "transient_error"
)

// Enrichment carries the partial record extracted from an external source.
// Nil fields were not supplied by the source.
type Enrichment struct {
	Name       *string
	Issuer     *string
	YieldText  *string
	YieldValue *float64
	LastPrice  *float64
	Currency   *string
}

// Result is the outcome of fetching enrichment data for one instrument.
type Result struct {
	Status  Status
	Message string // set for StatusTransient
	Enrichment
}

// Success builds a successful result around the extracted fields.
func Success(e Enrichment) Result {
	return Result{Status: StatusSuccess, Enrichment: e}
}

// NotFound reports that the source has no data for the instrument.
func NotFound() Result {
	return Result{Status: StatusNotFound}
}

// Transient reports a network, timeout, or parsing failure for one item.
func Transient(message string) Result {
	return Result{Status: StatusTransient, Message: message}
}

// Adapter translates one external source's response shape into the canonical
// enrichment result.
type Adapter interface {
	// Name returns the source's display name.
	Name() string

	// Source returns the source identifier used for run locking and pacing.
	Source() Source

	// Supports reports whether this source is eligible for the category.
	Supports(category models.Category) bool

	// FetchEnrichment fetches data for a single instrument. Failures are
	// reported in the Result, never as a panic; the batch runner isolates
	// them per item.
	FetchEnrichment(ctx context.Context, instrument models.Instrument) Result
}

// FieldPolicy states which instrument fields a source may overwrite for a
// given category. Keeping the rule in a table rather than inline branches
// makes the reconciliation auditable in isolation.
type FieldPolicy struct {
	Name   bool
	Issuer bool
	Yield  bool
	Price  bool
}

// fieldPolicies: fund yield and naming come only from the scraper; the quote
// service may touch price/currency for everything but may only rename and
// re-yield equities.
var fieldPolicies = map[Source]map[models.Category]FieldPolicy{
	SourceScrape: {
		models.CategoryFund: {Name: true, Issuer: true, Yield: true},
	},
	SourceQuotes: {
		models.CategoryFund:   {Price: true},
		models.CategoryEquity: {Name: true, Yield: true, Price: true},
	},
}

// PolicyFor returns the field policy for a source/category pair. ok is false
// when the source is not eligible for the category at all.
func PolicyFor(source Source, category models.Category) (FieldPolicy, bool) {
	policies, ok := fieldPolicies[source]
	if !ok {
		return FieldPolicy{}, false
	}
	policy, ok := policies[category]
	return policy, ok
}
