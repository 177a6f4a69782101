package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"sqlsentry/internal/logging"
)

// pageFetcher returns a page's raw HTML for a given URL. Two
// implementations back it: httpFetcher (plain GET, used for
// academic mode) and rodFetcher (headless-browser render, used for
// general/news modes since many search-result pages are JS-rendered).
// A failed render is not retried through httpFetcher.
type pageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// httpFetcher does a plain HTTP GET, following
// internal/tools/research/context7.go's fetchURL shape.
type httpFetcher struct {
	UserAgent string
	Client    *http.Client
}

func (f httpFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// rodFetcher renders pageURL in a headless browser and returns the
// post-render HTML, following the launch/connect/close sequence of
// .codex/skills/rod-builder/scripts/scraper_template.go.
type rodFetcher struct {
	Headless bool
}

func (f rodFetcher) Fetch(ctx context.Context, pageURL string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser render panic: %v", r)
		}
	}()

	l := launcher.New().Headless(f.Headless)
	controlURL, launchErr := l.Launch()
	if launchErr != nil {
		return "", fmt.Errorf("launch browser: %w", launchErr)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if connectErr := browser.Connect(); connectErr != nil {
		return "", fmt.Errorf("connect browser: %w", connectErr)
	}
	defer browser.Close()

	page, pageErr := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if pageErr != nil {
		return "", fmt.Errorf("open page: %w", pageErr)
	}
	defer page.Close()

	if waitErr := page.WaitLoad(); waitErr != nil {
		return "", fmt.Errorf("wait load: %w", waitErr)
	}

	content, htmlErr := page.HTML()
	if htmlErr != nil {
		return "", fmt.Errorf("read html: %w", htmlErr)
	}
	return content, nil
}

// Fetcher is the ResearchFetcher of spec.md §4.9.
type Fetcher struct {
	config  FetcherConfig
	apiKey  string
	general pageFetcher
	news    pageFetcher
	academic pageFetcher
}

// NewFetcher builds a Fetcher. apiKey is the configured
// research-provider key (internal/config's WebSearchKey); it is kept on
// the Fetcher but not attached to any request, so an empty key builds
// the same working Fetcher.
func NewFetcher(cfg FetcherConfig, apiKey string) *Fetcher {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Fetcher{
		config:   cfg,
		apiKey:   apiKey,
		general:  rodFetcher{Headless: cfg.Headless},
		news:     rodFetcher{Headless: cfg.Headless},
		academic: httpFetcher{UserAgent: cfg.UserAgent, Client: httpClient},
	}
}

// Search runs a query against the given mode and returns a Summary.
// Never returns an error: provider unavailability, browser launch
// failure, and parse errors all degrade to the empty-results shape,
// logged via the research category, per spec.md §4.9.
func (f *Fetcher) Search(ctx context.Context, query string, mode Mode) Summary {
	runCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	searchURL, fetcher, err := f.resolveMode(mode, query)
	if err != nil {
		logging.Research("unsupported research mode %q: %v", mode, err)
		return Summary{}
	}

	raw, err := fetcher.Fetch(runCtx, searchURL)
	if err != nil {
		logging.Research("search fetch failed for mode=%s query=%q: %v", mode, query, err)
		return Summary{}
	}

	results, err := parseResults(raw, query, f.config.MaxResults)
	if err != nil {
		logging.Research("parsing search results failed for mode=%s: %v", mode, err)
		return Summary{}
	}
	if len(results) == 0 {
		logging.ResearchDebug("no results extracted for mode=%s query=%q", mode, query)
		return Summary{}
	}

	return Summary{
		Summary: fmt.Sprintf("%d result(s) for %q via %s search", len(results), query, mode),
		Results: results,
	}
}

func (f *Fetcher) resolveMode(mode Mode, query string) (string, pageFetcher, error) {
	escaped := url.QueryEscape(query)
	switch mode {
	case ModeGeneral:
		return fmt.Sprintf(f.config.GeneralSearchURL, escaped), f.general, nil
	case ModeNews:
		return fmt.Sprintf(f.config.NewsSearchURL, escaped), f.news, nil
	case ModeAcademic:
		return fmt.Sprintf(f.config.AcademicSearchURL, escaped), f.academic, nil
	default:
		return "", nil, fmt.Errorf("unknown mode")
	}
}

// parseResultsFromHTML extracts candidate result links from raw HTML, scores
// them by keyword overlap against query, and caps the list at maxN.
func parseResultsFromHTML(raw, query string, maxN int) ([]Result, error) {
	doc, err := htmlParse(raw)
	if err != nil {
		return nil, err
	}
	title := extractTitle(doc)
	tokens := tokenize(query)

	links := extractLinks(doc)
	var results []Result
	for _, l := range links {
		if len(results) >= maxN {
			break
		}
		snippet := l.text
		if snippet == "" {
			snippet = title
		}
		results = append(results, Result{
			URL:       l.href,
			Relevance: relevance(l.text, tokens),
			Snippet:   truncateText(snippet, 300),
		})
	}
	return results, nil
}

// parseResults is the mode-agnostic entry point; academic mode returns
// JSON from crossref rather than HTML, so it's parsed separately.
func parseResults(raw, query string, maxN int) ([]Result, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return parseResultsFromJSON(raw, query, maxN)
	}
	return parseResultsFromHTML(raw, query, maxN)
}
