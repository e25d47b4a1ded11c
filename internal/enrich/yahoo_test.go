package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"renditax/internal/models"
)

// quoteBody renders a quoteSummary response with the given module JSON.
func quoteBody(modules string) string {
	return fmt.Sprintf(`{"quoteSummary":{"result":[%s],"error":null}}`, modules)
}

const quoteErrorBody = `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for ticker symbol"}}}`

func newQuoteServer(bodies map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")
		body, ok := bodies[symbol]
		if !ok {
			_, _ = w.Write([]byte(quoteErrorBody))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newQuoteAdapter(server *httptest.Server) *YahooAdapter {
	return NewYahooAdapter(server.Client(), server.URL, 5*time.Second, zap.NewNop().Sugar())
}

func equityInstrument(symbol string) models.Instrument {
	return models.Instrument{ISIN: "US0378331005", Symbol: symbol, Category: models.CategoryEquity}
}

func TestYahooAdapter_Supports(t *testing.T) {
	server := newQuoteServer(nil)
	defer server.Close()
	a := newQuoteAdapter(server)

	if !a.Supports(models.CategoryFund) {
		t.Error("expected Supports(fund) = true")
	}
	if !a.Supports(models.CategoryEquity) {
		t.Error("expected Supports(equity) = true")
	}
}

func TestYahooAdapter_FetchEnrichment_ForwardYieldPreferred(t *testing.T) {
	server := newQuoteServer(map[string]string{
		"AAPL": quoteBody(`{
			"price":{"longName":"Apple Inc.","shortName":"Apple","currency":"USD","regularMarketPrice":{"raw":178.72,"fmt":"178.72"}},
			"summaryDetail":{
				"dividendYield":{"raw":0.0044,"fmt":"0.44%"},
				"trailingAnnualDividendYield":{"raw":0.0051,"fmt":"0.51%"}
			}
		}`),
	})
	defer server.Close()
	a := newQuoteAdapter(server)

	result := a.FetchEnrichment(context.Background(), equityInstrument("AAPL"))
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.Message)
	}

	if result.Name == nil || *result.Name != "Apple Inc." {
		t.Errorf("expected long name preferred, got %v", result.Name)
	}
	if result.LastPrice == nil || *result.LastPrice != 178.72 {
		t.Errorf("expected price 178.72, got %v", result.LastPrice)
	}
	if result.Currency == nil || *result.Currency != "USD" {
		t.Errorf("expected currency USD, got %v", result.Currency)
	}
	if result.YieldValue == nil || *result.YieldValue != 0.44 {
		t.Errorf("expected forward yield 0.44, got %v", result.YieldValue)
	}
	if result.YieldText == nil || *result.YieldText != "0.44%" {
		t.Errorf("expected yield text 0.44%%, got %v", result.YieldText)
	}
}

func TestYahooAdapter_FetchEnrichment_TrailingFallback(t *testing.T) {
	server := newQuoteServer(map[string]string{
		"SWDA.MI": quoteBody(`{
			"price":{"shortName":"iShares Core MSCI World","currency":"EUR","regularMarketPrice":{"raw":105.43,"fmt":"105.43"}},
			"summaryDetail":{
				"trailingAnnualDividendYield":{"raw":0.0172,"fmt":"1.72%"}
			}
		}`),
	})
	defer server.Close()
	a := newQuoteAdapter(server)

	result := a.FetchEnrichment(context.Background(), equityInstrument("SWDA.MI"))
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if result.Name == nil || *result.Name != "iShares Core MSCI World" {
		t.Errorf("expected short name fallback, got %v", result.Name)
	}
	if result.YieldValue == nil || *result.YieldValue != 1.72 {
		t.Errorf("expected trailing yield 1.72, got %v", result.YieldValue)
	}
}

func TestYahooAdapter_FetchEnrichment_NoYieldIsPartialSuccess(t *testing.T) {
	server := newQuoteServer(map[string]string{
		"GOOG": quoteBody(`{
			"price":{"longName":"Alphabet Inc.","currency":"USD","regularMarketPrice":{"raw":175.03,"fmt":"175.03"}},
			"summaryDetail":{}
		}`),
	})
	defer server.Close()
	a := newQuoteAdapter(server)

	result := a.FetchEnrichment(context.Background(), equityInstrument("GOOG"))
	if result.Status != StatusSuccess {
		t.Fatalf("expected success without yield, got %s", result.Status)
	}
	if result.YieldValue != nil || result.YieldText != nil {
		t.Errorf("expected no yield fields, got value=%v text=%v", result.YieldValue, result.YieldText)
	}
	if result.LastPrice == nil || *result.LastPrice != 175.03 {
		t.Errorf("expected price 175.03, got %v", result.LastPrice)
	}
}

func TestYahooAdapter_FetchEnrichment_PercentUnitsKeptUnconverted(t *testing.T) {
	// Some quotes report yield already in percent units instead of a ratio.
	server := newQuoteServer(map[string]string{
		"WEIRD": quoteBody(`{
			"price":{"longName":"Weird Holdings","currency":"USD","regularMarketPrice":{"raw":10.0,"fmt":"10.00"}},
			"summaryDetail":{"dividendYield":{"raw":1.5,"fmt":"1.50"}}
		}`),
	})
	defer server.Close()
	a := newQuoteAdapter(server)

	result := a.FetchEnrichment(context.Background(), equityInstrument("WEIRD"))
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if result.YieldValue == nil || *result.YieldValue != 1.5 {
		t.Errorf("expected 1.5 kept as-is, got %v", result.YieldValue)
	}
}

func TestYahooAdapter_FetchEnrichment_MissingTicker(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits++
	}))
	defer server.Close()
	a := newQuoteAdapter(server)

	instrument := equityInstrument("  ")
	result := a.FetchEnrichment(context.Background(), instrument)
	if result.Status != StatusTransient {
		t.Fatalf("expected transient_error for missing ticker, got %s", result.Status)
	}
	if result.Message != "missing ticker" {
		t.Errorf("expected missing ticker message, got %q", result.Message)
	}
	if hits != 0 {
		t.Errorf("expected no network call, got %d", hits)
	}
}

func TestYahooAdapter_FetchEnrichment_UnknownSymbol(t *testing.T) {
	server := newQuoteServer(nil) // every symbol answers with a quote error
	defer server.Close()
	a := newQuoteAdapter(server)

	result := a.FetchEnrichment(context.Background(), equityInstrument("DELISTED"))
	if result.Status != StatusNotFound {
		t.Fatalf("expected not_found for quote error, got %s", result.Status)
	}
}

func TestYahooAdapter_FetchEnrichment_HTTPStatuses(t *testing.T) {
	t.Run("404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		a := newQuoteAdapter(server)

		result := a.FetchEnrichment(context.Background(), equityInstrument("GONE"))
		if result.Status != StatusNotFound {
			t.Errorf("expected not_found on 404, got %s", result.Status)
		}
	})

	t.Run("500", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		a := newQuoteAdapter(server)

		result := a.FetchEnrichment(context.Background(), equityInstrument("AAPL"))
		if result.Status != StatusTransient {
			t.Errorf("expected transient_error on 500, got %s", result.Status)
		}
		if !strings.Contains(result.Message, "500") {
			t.Errorf("expected message to mention status, got %q", result.Message)
		}
	})

	t.Run("malformed_body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>rate limited</html>"))
		}))
		defer server.Close()
		a := newQuoteAdapter(server)

		result := a.FetchEnrichment(context.Background(), equityInstrument("AAPL"))
		if result.Status != StatusTransient {
			t.Errorf("expected transient_error on malformed body, got %s", result.Status)
		}
	})
}

func TestYahooAdapter_FetchRate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := newQuoteServer(map[string]string{
			"EURUSD=X": quoteBody(`{
				"price":{"shortName":"EUR/USD","currency":"USD","regularMarketPrice":{"raw":1.0856,"fmt":"1.0856"}},
				"summaryDetail":{}
			}`),
		})
		defer server.Close()
		a := newQuoteAdapter(server)

		rate, err := a.FetchRate(context.Background(), "EURUSD=X")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rate != 1.0856 {
			t.Errorf("expected rate 1.0856, got %f", rate)
		}
	})

	t.Run("unknown_pair", func(t *testing.T) {
		server := newQuoteServer(nil)
		defer server.Close()
		a := newQuoteAdapter(server)

		_, err := a.FetchRate(context.Background(), "XXXYYY=X")
		if err == nil {
			t.Fatal("expected error for unknown pair")
		}
	})
}
