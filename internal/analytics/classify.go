package analytics

import (
	"regexp"
	"strconv"
	"strings"
)

// recipeTriggers lists each recipe's trigger tokens in spec.md §4.8's
// table order; Classify resolves ties by first match in this order.
var recipeTriggers = []struct {
	recipe   Recipe
	keywords []string
}{
	{RecipeForecast, []string{"forecast", "predict", "projection", "future", "next month", "next quarter", "next year"}},
	{RecipeCorrelation, []string{"correlation", "correlate", "relationship between", "impact of", "affect"}},
	{RecipeAnomaly, []string{"anomaly", "outlier", "unusual", "abnormal"}},
	{RecipeSummary, []string{"summary", "statistics", "distribution", "statistical"}},
	{RecipeSimulation, []string{"what if", "scenario", "simulate"}},
}

// Classify maps a natural-language query to the first recipe whose
// trigger tokens appear in it, per spec.md §4.8's ordered keyword-set
// classifier. Returns RecipeNone if no keywords hit.
func Classify(query string) Recipe {
	lower := strings.ToLower(query)
	for _, t := range recipeTriggers {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.recipe
			}
		}
	}
	return RecipeNone
}

var horizonPattern = regexp.MustCompile(`next\s+(month|quarter|year)`)

// defaultHorizons maps the bare unit word to its day count default.
var defaultHorizons = map[string]int{
	"month":   30,
	"quarter": 90,
	"year":    365,
}

// ParseHorizonDays extracts a forecast horizon in days from the
// trigger phrase, defaulting per spec.md §4.8's table (30/90/365 for
// month/quarter/year) and falling back to 30 when no unit is named.
func ParseHorizonDays(query string) int {
	lower := strings.ToLower(query)
	if m := horizonPattern.FindStringSubmatch(lower); len(m) == 2 {
		return defaultHorizons[m[1]]
	}
	return defaultHorizons["month"]
}

var explicitDaysPattern = regexp.MustCompile(`(\d+)\s*day`)

// ParseHorizonDaysExplicit prefers an explicit "N days" phrase over the
// month/quarter/year defaults, falling back to ParseHorizonDays.
func ParseHorizonDaysExplicit(query string) int {
	if m := explicitDaysPattern.FindStringSubmatch(strings.ToLower(query)); len(m) == 2 {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return ParseHorizonDays(query)
}
