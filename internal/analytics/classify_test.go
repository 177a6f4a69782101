package analytics

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		query string
		want  Recipe
	}{
		{"forecast revenue for next month", RecipeForecast},
		{"what is the correlation between price and demand", RecipeCorrelation},
		{"find any anomaly in shipment counts", RecipeAnomaly},
		{"give me a summary of order statistics", RecipeSummary},
		{"what if we increase price by 10 percent", RecipeSimulation},
		{"how many orders were placed yesterday", RecipeNone},
	}
	for _, c := range cases {
		got := Classify(c.query)
		if got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.query, got, c.want)
		}
	}
}

func TestClassify_FirstMatchWinsOnTies(t *testing.T) {
	// contains both "forecast" and "anomaly" tokens; forecast is listed first.
	got := Classify("forecast the anomaly count for next quarter")
	if got != RecipeForecast {
		t.Fatalf("expected forecast to win, got %s", got)
	}
}

func TestParseHorizonDays(t *testing.T) {
	if d := ParseHorizonDays("forecast next quarter revenue"); d != 90 {
		t.Fatalf("expected 90, got %d", d)
	}
	if d := ParseHorizonDays("forecast next year revenue"); d != 365 {
		t.Fatalf("expected 365, got %d", d)
	}
	if d := ParseHorizonDays("forecast revenue"); d != 30 {
		t.Fatalf("expected default 30, got %d", d)
	}
}

func TestParseHorizonDaysExplicit(t *testing.T) {
	if d := ParseHorizonDaysExplicit("forecast revenue for 14 days"); d != 14 {
		t.Fatalf("expected 14, got %d", d)
	}
}
