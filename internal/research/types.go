// Package research implements the ResearchFetcher described in
// spec.md §4.9: an opaque adapter over web search that never raises,
// generalizing the teacher's internal/tools/research/context7.go
// "fetch, never raise, log on failure" shape and
// internal/shards/researcher/scraper.go's HTML text-extraction pattern.
package research

// Mode selects which search surface a query is routed to.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeNews     Mode = "news"
	ModeAcademic Mode = "academic"
)

// Result is one search hit, per spec.md §4.9.
type Result struct {
	URL       string `json:"url"`
	Relevance float64 `json:"relevance"`
	Snippet   string `json:"snippet"`
	Date      string `json:"date,omitempty"`
}

// Summary is ResearchFetcher's output: {summary, results}. On provider
// unavailability both fields degrade to their zero values — never an
// error — per spec.md §4.9.
type Summary struct {
	Summary string   `json:"summary"`
	Results []Result `json:"results"`
}
