package schema

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine produces deterministic embeddings so similarity ordering is
// predictable in tests without a real model backend.
type fakeEngine struct {
	vectors map[string][]float32
}

func (f *fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	// default: hash-ish vector based on text length, distinct from stored entries
	return []float32{0, 0, 1}, nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return 3 }
func (f *fakeEngine) Name() string    { return "fake" }

func openTestIndex(t *testing.T, engine *fakeEngine) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.db")
	idx, err := Open(path, engine)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_RetrieveReturnsIndexedEntryFirst(t *testing.T) {
	ordersEntry := Entry{TableName: "orders", DDL: "CREATE TABLE orders (id INT)", Columns: []Column{{Name: "id", Type: "INT", Description: "primary key"}}}
	engine := &fakeEngine{vectors: map[string][]float32{
		ordersEntry.document(): {1, 0, 0},
		"orders":               {1, 0, 0},
	}}
	idx := openTestIndex(t, engine)

	require.NoError(t, idx.Index(context.Background(), ordersEntry))

	results, err := idx.Retrieve(context.Background(), "orders", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "orders", results[0].TableName)
}

func TestIndex_RetrieveOnEmptyIndexReturnsEmpty(t *testing.T) {
	idx := openTestIndex(t, &fakeEngine{vectors: map[string][]float32{}})
	results, err := idx.Retrieve(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_BuildContextSentinelWhenEmpty(t *testing.T) {
	idx := openTestIndex(t, &fakeEngine{vectors: map[string][]float32{}})
	ctx, err := idx.BuildContext(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Equal(t, noSchemaSentinel, ctx)
}

func TestIndex_BuildContextIncludesDDLAndColumns(t *testing.T) {
	entry := Entry{TableName: "customers", DDL: "CREATE TABLE customers (id INT)", Columns: []Column{{Name: "id", Type: "INT", Description: "primary key"}}}
	engine := &fakeEngine{vectors: map[string][]float32{
		entry.document(): {1, 0, 0},
		"customers":      {1, 0, 0},
	}}
	idx := openTestIndex(t, engine)
	require.NoError(t, idx.Index(context.Background(), entry))

	ctx, err := idx.BuildContext(context.Background(), "customers", 3)
	require.NoError(t, err)
	assert.True(t, strings.Contains(ctx, "customers"))
	assert.True(t, strings.Contains(ctx, "CREATE TABLE customers"))
	assert.True(t, strings.Contains(ctx, "primary key"))
}

func TestIndex_StatsReportsCount(t *testing.T) {
	entry := Entry{TableName: "products", DDL: "CREATE TABLE products (id INT)"}
	engine := &fakeEngine{vectors: map[string][]float32{entry.document(): {1, 0, 0}}}
	idx := openTestIndex(t, engine)
	require.NoError(t, idx.Index(context.Background(), entry))

	count, lastIndexed, err := idx.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, lastIndexed.IsZero())
}

func TestIndex_ReindexReembeds(t *testing.T) {
	entry := Entry{TableName: "events", DDL: "CREATE TABLE events (id INT)"}
	engine := &fakeEngine{vectors: map[string][]float32{entry.document(): {1, 0, 0}}}
	idx := openTestIndex(t, engine)
	require.NoError(t, idx.Index(context.Background(), entry))
	require.NoError(t, idx.Reindex(context.Background(), "events"))
}
