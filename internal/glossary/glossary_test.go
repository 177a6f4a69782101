package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlsentry/internal/mangle"
)

const testDoc = `
terms:
  - name: revenue
    definition: total dollar amount collected from completed orders
    sql_fragment: "SUM(total_amount)"
    related_tables: [orders]
    related_columns: [total_amount]
    synonyms: [sales, income]
  - name: churn
    definition: customers who stopped purchasing
    sql_fragment: "status = 'churned'"
    related_tables: [customers]
    related_columns: [status, missing_column]
aliases:
  - canonical: total_amount
    synonyms: [amount, price, total]
`

type fakeKnower struct{ columns []string }

func (f fakeKnower) KnownColumns() []string { return f.columns }

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossary.config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGlossary_LoadAndLookup(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	require.NoError(t, g.Load(path, fakeKnower{columns: []string{"total_amount", "status"}}))

	term, ok := g.Lookup("revenue")
	require.True(t, ok)
	assert.Equal(t, "SUM(total_amount)", term.SQLFragment)

	_, ok = g.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestGlossary_UnknownColumnDoesNotFailLoad(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	err := g.Load(path, fakeKnower{columns: []string{"total_amount"}}) // status, missing_column unknown
	assert.NoError(t, err)
	assert.Equal(t, 2, g.TermCount())
}

func TestGlossary_ExpandAliases(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	require.NoError(t, g.Load(path, nil))

	syns := g.ExpandAliases("total_amount")
	assert.ElementsMatch(t, []string{"amount", "price", "total"}, syns)
	assert.Empty(t, g.ExpandAliases("unknown_column"))
}

func TestGlossary_EnrichContextAppendsMatchingTerms(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	require.NoError(t, g.Load(path, nil))

	enriched := g.EnrichContext("Show total revenue for last quarter", "base schema context")
	assert.Contains(t, enriched, "base schema context")
	assert.Contains(t, enriched, "revenue: total dollar amount")
	assert.Contains(t, enriched, "SQL fragment: SUM(total_amount)")
	assert.NotContains(t, enriched, "churn:")
}

func TestGlossary_EnrichContextNoMatchReturnsBase(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	require.NoError(t, g.Load(path, nil))

	enriched := g.EnrichContext("completely unrelated query text", "base")
	assert.Equal(t, "base", enriched)
}

func TestGlossary_EnrichContextMatchesSynonym(t *testing.T) {
	path := writeDoc(t, testDoc)
	g := New(nil)
	require.NoError(t, g.Load(path, nil))

	enriched := g.EnrichContext("What was our income last month?", "base")
	assert.Contains(t, enriched, "revenue:")
}

func TestGlossary_EnrichContextDropsTermWithNoCoveredColumns(t *testing.T) {
	policy, err := mangle.New()
	require.NoError(t, err)
	// Only total_amount is backed by an indexed table; churn's related
	// columns (status, missing_column) never get an indexed_column fact,
	// so churn should be dropped as stale once matched.
	require.NoError(t, policy.AssertIndexedColumn("orders", "total_amount"))

	path := writeDoc(t, testDoc)
	g := New(policy)
	require.NoError(t, g.Load(path, nil))

	enriched := g.EnrichContext("Show revenue and churn for last quarter", "base")
	assert.Contains(t, enriched, "revenue:")
	assert.NotContains(t, enriched, "churn:")
}

func TestGlossary_EnrichContextKeepsTermOnceColumnCovered(t *testing.T) {
	policy, err := mangle.New()
	require.NoError(t, err)
	require.NoError(t, policy.AssertIndexedColumn("orders", "total_amount"))
	require.NoError(t, policy.AssertIndexedColumn("customers", "status"))

	path := writeDoc(t, testDoc)
	g := New(policy)
	require.NoError(t, g.Load(path, nil))

	enriched := g.EnrichContext("Show revenue and churn for last quarter", "base")
	assert.Contains(t, enriched, "revenue:")
	assert.Contains(t, enriched, "churn:")
}
