package research

import (
	"context"
	"testing"
)

type stubFetcher struct {
	html string
	err  error
}

func (s stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return s.html, s.err
}

func newTestFetcher(general, news, academic pageFetcher) *Fetcher {
	return &Fetcher{
		config:   DefaultFetcherConfig(),
		general:  general,
		news:     news,
		academic: academic,
	}
}

const samplePage = `<html><head><title>Search Results</title></head><body>
<a href="https://example.com/a">Revenue forecasting best practices</a>
<a href="https://example.com/b">Unrelated topic page</a>
</body></html>`

func TestSearch_GeneralModeExtractsLinks(t *testing.T) {
	f := newTestFetcher(stubFetcher{html: samplePage}, nil, nil)
	summary := f.Search(context.Background(), "revenue forecasting", ModeGeneral)
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(summary.Results), summary.Results)
	}
	if summary.Results[0].URL != "https://example.com/a" {
		t.Fatalf("unexpected first result: %+v", summary.Results[0])
	}
	if summary.Results[0].Relevance <= summary.Results[1].Relevance {
		t.Fatalf("expected first result to be more relevant: %+v", summary.Results)
	}
}

func TestSearch_FetchFailureReturnsEmptySummary(t *testing.T) {
	f := newTestFetcher(stubFetcher{err: errTest{}}, nil, nil)
	summary := f.Search(context.Background(), "anything", ModeGeneral)
	if summary.Summary != "" || len(summary.Results) != 0 {
		t.Fatalf("expected empty summary on fetch failure, got %+v", summary)
	}
}

func TestSearch_UnparseableHTMLReturnsEmptySummary(t *testing.T) {
	f := newTestFetcher(stubFetcher{html: ""}, nil, nil)
	summary := f.Search(context.Background(), "anything", ModeGeneral)
	if len(summary.Results) != 0 {
		t.Fatalf("expected no results for empty page, got %+v", summary.Results)
	}
}

func TestSearch_AcademicModeParsesCrossrefJSON(t *testing.T) {
	sample := `{"message":{"items":[{"DOI":"10.1/xyz","title":["Forecasting revenue trends"],"abstract":"a study of forecasting","created":{"date-time":"2025-01-01T00:00:00Z"}}]}}`
	f := newTestFetcher(nil, nil, stubFetcher{html: sample})
	summary := f.Search(context.Background(), "forecasting revenue", ModeAcademic)
	if len(summary.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(summary.Results))
	}
	if summary.Results[0].URL != "https://doi.org/10.1/xyz" {
		t.Fatalf("unexpected DOI URL: %s", summary.Results[0].URL)
	}
}

func TestSearch_UnknownModeReturnsEmptySummary(t *testing.T) {
	f := newTestFetcher(stubFetcher{html: samplePage}, nil, nil)
	summary := f.Search(context.Background(), "q", Mode("bogus"))
	if len(summary.Results) != 0 {
		t.Fatal("expected empty summary for unknown mode")
	}
}

func TestRelevance_NoTokensReturnsHalf(t *testing.T) {
	if r := relevance("anything", nil); r != 0.5 {
		t.Fatalf("expected 0.5, got %f", r)
	}
}

type errTest struct{}

func (errTest) Error() string { return "fetch failed" }
