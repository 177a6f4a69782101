package research

import "time"

// FetcherConfig configures the search endpoints and shared HTTP/browser
// behavior. URL templates take one %s placeholder for the
// URL-escaped query.
type FetcherConfig struct {
	UserAgent         string
	GeneralSearchURL  string
	NewsSearchURL     string
	AcademicSearchURL string
	Timeout           time.Duration
	MaxResults        int
	Headless          bool
}

// DefaultFetcherConfig returns sane defaults. The default endpoints take
// no API key, and NewFetcher's apiKey argument is not sent to them.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:         "sqlsentry-research/1.0",
		GeneralSearchURL:  "https://www.bing.com/search?q=%s",
		NewsSearchURL:     "https://www.bing.com/news/search?q=%s",
		AcademicSearchURL: "https://api.crossref.org/works?query=%s",
		Timeout:           20 * time.Second,
		MaxResults:        10,
		Headless:          true,
	}
}
