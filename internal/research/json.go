package research

import "encoding/json"

// crossrefResponse is the subset of CrossRef's /works search response
// this package reads. See https://api.crossref.org — academic mode's
// default provider, queried as a plain HTTP GET per spec.md §4.9
// (no browser rendering needed; the API returns JSON directly).
type crossrefResponse struct {
	Message struct {
		Items []struct {
			DOI     string   `json:"DOI"`
			Title   []string `json:"title"`
			Abstract string  `json:"abstract"`
			Created struct {
				DateTime string `json:"date-time"`
			} `json:"created"`
		} `json:"items"`
	} `json:"message"`
}

// parseResultsFromJSON converts a CrossRef works response into Result
// records, scoring relevance by keyword overlap against the title since
// CrossRef has no native relevance score in this subset.
func parseResultsFromJSON(raw, query string, maxN int) ([]Result, error) {
	var resp crossrefResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}

	tokens := tokenize(query)
	var results []Result
	for _, item := range resp.Message.Items {
		if len(results) >= maxN {
			break
		}
		title := ""
		if len(item.Title) > 0 {
			title = item.Title[0]
		}
		snippet := item.Abstract
		if snippet == "" {
			snippet = title
		}
		results = append(results, Result{
			URL:       "https://doi.org/" + item.DOI,
			Relevance: relevance(title+" "+snippet, tokens),
			Snippet:   truncateText(snippet, 300),
			Date:      item.Created.DateTime,
		})
	}
	return results, nil
}
