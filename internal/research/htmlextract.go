package research

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlParse parses raw HTML into a DOM tree.
func htmlParse(raw string) (*html.Node, error) {
	return html.Parse(strings.NewReader(raw))
}

// link is one anchor extracted from a rendered page, before relevance
// scoring against the originating query.
type link struct {
	href string
	text string
}

// extractLinks walks parsed HTML pulling every anchor with non-empty
// href and visible text, generalizing
// internal/shards/researcher/scraper.go's extractAtomsFromHTML
// traversal to anchors instead of article/section/pre blocks (search
// result pages are link-list shaped, not article-shaped).
func extractLinks(doc *html.Node) []link {
	var out []link
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attr(n, "href")
			text := strings.TrimSpace(textContent(n))
			if href != "" && text != "" && strings.HasPrefix(href, "http") {
				out = append(out, link{href: href, text: text})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return out
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text-node descendants of n, matching
// the teacher's extractTextContent traversal.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(sb.String())
}

// extractTitle returns the page's <title> text, matching the teacher's
// extractTitle traversal.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = n.FirstChild.Data
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

// relevance scores text against query by fraction of query tokens
// present, the same keyword-overlap measure as the teacher's
// calculateConfidence.
func relevance(text string, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0.5
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, tok := range queryTokens {
		if strings.Contains(lower, tok) {
			matches++
		}
	}
	return float64(matches) / float64(len(queryTokens))
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
