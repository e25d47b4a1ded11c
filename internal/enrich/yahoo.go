package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"renditax/internal/models"
	"renditax/internal/normalize"
)

const yahooUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// yahooNumber is Yahoo's raw/fmt pair for numeric fields.
type yahooNumber struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// summaryModules holds the price and summaryDetail modules of one
// quoteSummary result entry.
type summaryModules struct {
	Price struct {
		LongName           string      `json:"longName"`
		ShortName          string      `json:"shortName"`
		Currency           string      `json:"currency"`
		RegularMarketPrice yahooNumber `json:"regularMarketPrice"`
	} `json:"price"`
	SummaryDetail struct {
		DividendYield               yahooNumber `json:"dividendYield"`
		TrailingAnnualDividendYield yahooNumber `json:"trailingAnnualDividendYield"`
	} `json:"summaryDetail"`
}

// quoteSummaryResponse is the top-level quoteSummary API response.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []summaryModules `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// YahooAdapter fetches price, currency, name, and dividend yield from the
// Yahoo Finance quoteSummary service, looked up by ticker symbol.
type YahooAdapter struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	timeout    time.Duration
	logger     *zap.SugaredLogger
}

// NewYahooAdapter creates a quote adapter against the given base URL.
func NewYahooAdapter(httpClient *http.Client, baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *YahooAdapter {
	return &YahooAdapter{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// Name returns the source's display name.
func (a *YahooAdapter) Name() string { return "Yahoo Finance" }

// Source returns the source identifier.
func (a *YahooAdapter) Source() Source { return SourceQuotes }

// Supports returns true for every category; the field policy narrows what a
// quote may overwrite per category.
func (a *YahooAdapter) Supports(category models.Category) bool {
	_, ok := PolicyFor(SourceQuotes, category)
	return ok
}

// FetchEnrichment queries quoteSummary for the instrument's symbol.
// Instruments without a symbol short-circuit before any network call.
// Forward dividend yield is preferred; trailing is the fallback; a quote
// with neither is still a partial success carrying price and currency.
func (a *YahooAdapter) FetchEnrichment(ctx context.Context, instrument models.Instrument) Result {
	if strings.TrimSpace(instrument.Symbol) == "" {
		return Transient("missing ticker")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	summary, result := a.fetchSummary(ctx, instrument.Symbol)
	if summary == nil {
		return result
	}

	var e Enrichment
	if name := pickName(summary.Price.LongName, summary.Price.ShortName); name != "" {
		e.Name = &name
	}
	if summary.Price.RegularMarketPrice.Raw != nil {
		e.LastPrice = summary.Price.RegularMarketPrice.Raw
	}
	if summary.Price.Currency != "" {
		currency := summary.Price.Currency
		e.Currency = &currency
	}

	a.applyYield(&e, instrument.Symbol, summary.SummaryDetail.DividendYield, summary.SummaryDetail.TrailingAnnualDividendYield)

	return Success(e)
}

// FetchRate resolves a conversion-rate ticker (e.g. "EURUSD=X") to its
// regular market price. Used by the FX lookup, not the batch pipeline.
func (a *YahooAdapter) FetchRate(ctx context.Context, pair string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	summary, result := a.fetchSummary(ctx, pair)
	if summary == nil {
		if result.Status == StatusNotFound {
			return 0, fmt.Errorf("no quote for %s", pair)
		}
		return 0, fmt.Errorf("fetching rate for %s: %s", pair, result.Message)
	}
	if summary.Price.RegularMarketPrice.Raw == nil {
		return 0, fmt.Errorf("no market price for %s", pair)
	}
	return *summary.Price.RegularMarketPrice.Raw, nil
}

// fetchSummary performs the quoteSummary request for one symbol. On failure
// the returned Result explains it; on success the first result entry is
// returned.
func (a *YahooAdapter) fetchSummary(ctx context.Context, symbol string) (*summaryModules, Result) {
	url := fmt.Sprintf("%s/%s?modules=price%%2CsummaryDetail", a.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Transient(fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, Transient(fmt.Sprintf("http request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFound()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Transient(fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var quoteResp quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, Transient(fmt.Sprintf("decoding response: %v", err))
	}

	if quoteResp.QuoteSummary.Error != nil {
		return nil, NotFound()
	}
	if len(quoteResp.QuoteSummary.Result) == 0 {
		return nil, NotFound()
	}

	return &quoteResp.QuoteSummary.Result[0], Result{}
}

// applyYield picks the forward dividend yield, falling back to the trailing
// figure. Ratios below 1.0 are converted to percent units; anything above is
// kept as-is and logged since it usually means the source already sent
// percent units.
func (a *YahooAdapter) applyYield(e *Enrichment, symbol string, forward, trailing yahooNumber) {
	picked := forward
	label := "forward"
	if picked.Raw == nil {
		picked = trailing
		label = "trailing"
	}
	if picked.Raw == nil {
		// No yield in either field: partial success, price-only quote.
		return
	}

	value, alreadyPercent := normalize.FromRatio(*picked.Raw)
	if alreadyPercent {
		a.logger.Warnw("dividend yield outside ratio range, stored unconverted",
			"symbol", symbol,
			"field", label,
			"raw", *picked.Raw,
		)
	}
	e.YieldValue = &value

	text := picked.Fmt
	if text == "" {
		text = fmt.Sprintf("%.2f%%", value)
	}
	e.YieldText = &text
}

// pickName prefers the long display name, falling back to the short one.
func pickName(longName, shortName string) string {
	if longName != "" {
		return longName
	}
	return shortName
}
