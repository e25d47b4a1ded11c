package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"renditax/internal/config"
	"renditax/internal/database"
	"renditax/internal/enrich"
	"renditax/internal/logger"
	"renditax/internal/services"
)

// The enrich command runs a single batch pass from one source and exits.
// Exit codes: 0 all items succeeded, 1 setup failure, 2 one or more items failed.
func main() {
	source := flag.String("source", "", "enrichment source to run (scrape or quotes)")
	flag.Parse()

	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "database configuration error: %v\n", err)
		os.Exit(1)
	}
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database error: %v\n", err)
		os.Exit(1)
	}

	var adapter enrich.Adapter
	switch enrich.Source(*source) {
	case enrich.SourceScrape:
		fetcher := enrich.NewHTTPPageFetcher(
			&http.Client{Timeout: appConfig.ScrapeTimeout},
			appConfig.ScrapeSettleDelay,
		)
		adapter = enrich.NewJustETFAdapter(fetcher, appConfig.JustETFBaseURL, appConfig.ScrapeTimeout, log)
	case enrich.SourceQuotes:
		adapter = enrich.NewYahooAdapter(
			&http.Client{Timeout: appConfig.QuoteTimeout},
			appConfig.YahooBaseURL,
			appConfig.QuoteTimeout,
			log,
		)
	default:
		fmt.Fprintf(os.Stderr, "usage: enrich -source <scrape|quotes>\n")
		os.Exit(1)
	}

	instrumentService := services.NewInstrumentService(dbManager.DB())
	runner := enrich.NewRunner(instrumentService, map[enrich.Source]time.Duration{
		enrich.SourceScrape: appConfig.ScrapeItemDelay,
		enrich.SourceQuotes: appConfig.QuoteItemDelay,
	}, log)

	report, err := runner.RunBatch(context.Background(), adapter)
	if err != nil {
		log.Errorw("batch run failed", "source", *source, "error", err)
		os.Exit(1)
	}

	log.Infow("batch run completed",
		"source", report.Source,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"nothing_to_process", report.NothingToProcess,
		"duration", report.Duration.String(),
	)

	for _, item := range report.Items {
		if item.Status != enrich.ItemSucceeded {
			log.Warnw("item failed",
				"isin", item.ISIN,
				"symbol", item.Symbol,
				"status", item.Status,
				"reason", item.Reason,
			)
		}
	}

	if report.Failed > 0 {
		os.Exit(2)
	}
}
