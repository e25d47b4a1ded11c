package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"renditax/internal/models"
	"renditax/internal/normalize"
)

const (
	justETFProfilePath = "/it/etf-profile.html"
	scraperUA          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// Row labels on the profile page's details table.
	issuerRowLabel = "Emittente"
	yieldRowLabel  = "Rend. attuale da dividendo"

	// Placeholder stored when the page carries no yield figure.
	yieldMissingText = "N/A"
)

// PageFetcher loads an external profile page and returns its parsed DOM.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*html.Node, error)
}

// HTTPPageFetcher fetches pages over plain HTTP and honors a settle delay
// after each load, matching the pacing of the headless-browser setup this
// replaced (the site renders parts of the profile client-side).
type HTTPPageFetcher struct {
	client      *http.Client
	settleDelay time.Duration
}

// NewHTTPPageFetcher creates a page fetcher with the given settle delay.
func NewHTTPPageFetcher(client *http.Client, settleDelay time.Duration) *HTTPPageFetcher {
	return &HTTPPageFetcher{client: client, settleDelay: settleDelay}
}

// FetchPage loads and parses the page at url.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", scraperUA)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	if f.settleDelay > 0 {
		select {
		case <-time.After(f.settleDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return doc, nil
}

// JustETFAdapter extracts fund name, issuer, and current dividend yield from
// a JustETF profile page. Funds only; equities are not listed there.
type JustETFAdapter struct {
	fetcher PageFetcher
	baseURL string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewJustETFAdapter creates a scrape adapter against the given base URL.
func NewJustETFAdapter(fetcher PageFetcher, baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *JustETFAdapter {
	return &JustETFAdapter{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// Name returns the source's display name.
func (a *JustETFAdapter) Name() string { return "JustETF" }

// Source returns the source identifier.
func (a *JustETFAdapter) Source() Source { return SourceScrape }

// Supports returns true for funds only.
func (a *JustETFAdapter) Supports(category models.Category) bool {
	_, ok := PolicyFor(SourceScrape, category)
	return ok
}

// FetchEnrichment loads the instrument's profile page and extracts the title
// (before the '|' separator) plus the issuer and dividend-yield table rows.
func (a *JustETFAdapter) FetchEnrichment(ctx context.Context, instrument models.Instrument) Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	url := fmt.Sprintf("%s%s?isin=%s#dividendi", a.baseURL, justETFProfilePath, instrument.ISIN)

	doc, err := a.fetcher.FetchPage(ctx, url)
	if err != nil {
		return Transient(err.Error())
	}

	title := textContent(findElement(doc, "h1"))
	if title == "" {
		// Page loaded but carries no profile: the ISIN is unknown to the site.
		return NotFound()
	}
	name := strings.TrimSpace(strings.SplitN(title, "|", 2)[0])

	issuer, yieldText := scanDetailRows(doc)

	e := Enrichment{Name: &name}
	if issuer != "" {
		e.Issuer = &issuer
	}

	text := yieldText
	if text == "" {
		text = yieldMissingText
	}
	e.YieldText = &text
	if value, ok := normalize.Percent(yieldText); ok {
		e.YieldValue = &value
	} else {
		a.logger.Warnw("unparseable dividend yield on profile page",
			"isin", instrument.ISIN,
			"yield_text", yieldText,
		)
	}

	return Success(e)
}

// scanDetailRows walks every table row and picks the cells adjacent to the
// issuer and dividend-yield labels, matched by substring as the surrounding
// markup shifts between site updates.
func scanDetailRows(doc *html.Node) (issuer, yieldText string) {
	forEachElement(doc, "tr", func(row *html.Node) {
		var cells []string
		forEachElement(row, "td", func(td *html.Node) {
			cells = append(cells, textContent(td))
		})
		if len(cells) < 2 {
			return
		}
		label := cells[0]
		if strings.Contains(label, issuerRowLabel) {
			issuer = cells[1]
		}
		if strings.Contains(label, yieldRowLabel) {
			yieldText = cells[1]
		}
	})
	return issuer, yieldText
}

// findElement returns the first element with the given tag, depth first.
func findElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// forEachElement invokes fn for every element with the given tag.
func forEachElement(n *html.Node, tag string, fn func(*html.Node)) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && n.Data == tag {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachElement(c, tag, fn)
	}
}

// textContent returns the trimmed concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
