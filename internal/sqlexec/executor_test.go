package sqlexec

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, total_amount REAL, order_date TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders (total_amount, order_date) VALUES (100.0, '2025-01-01'), (200.0, '2025-02-01')`)
	require.NoError(t, err)
	return db
}

func TestExecutor_RunSelectReturnsRows(t *testing.T) {
	exec := New(openTestDB(t))
	outcome := exec.Run(context.Background(), "SELECT id, total_amount FROM orders ORDER BY id", 0, 0)
	require.Empty(t, outcome.Error)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, []string{"id", "total_amount"}, outcome.Result.Columns)
	assert.Len(t, outcome.Result.Rows, 2)
}

func TestExecutor_RejectsNonSelect(t *testing.T) {
	exec := New(openTestDB(t))
	outcome := exec.Run(context.Background(), "DELETE FROM orders", 0, 0)
	assert.Nil(t, outcome.Result)
	assert.Contains(t, outcome.Error, "only SELECT/WITH")
}

func TestExecutor_AllowsWITH(t *testing.T) {
	exec := New(openTestDB(t))
	outcome := exec.Run(context.Background(), "WITH totals AS (SELECT total_amount FROM orders) SELECT * FROM totals", 0, 0)
	require.Empty(t, outcome.Error)
	require.NotNil(t, outcome.Result)
}

func TestExecutor_InjectsLimitWhenAbsent(t *testing.T) {
	assert.Equal(t, "SELECT * FROM orders LIMIT 5", withLimit("SELECT * FROM orders", 5))
	assert.Equal(t, "SELECT * FROM orders LIMIT 10", withLimit("SELECT * FROM orders LIMIT 10", 5))
}

func TestExecutor_ClassifiesMissingTable(t *testing.T) {
	exec := New(openTestDB(t))
	outcome := exec.Run(context.Background(), "SELECT * FROM nonexistent", 0, 0)
	assert.Nil(t, outcome.Result)
	assert.Contains(t, outcome.Error, "missing table")
}

func TestExecutor_NeverPanicsOnSyntaxError(t *testing.T) {
	exec := New(openTestDB(t))
	assert.NotPanics(t, func() {
		outcome := exec.Run(context.Background(), "SELECT FROM FROM FROM", 0, 0)
		assert.Nil(t, outcome.Result)
		assert.NotEmpty(t, outcome.Error)
	})
}

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "SELECT", firstToken("  -- a comment\nSELECT 1"))
	assert.Equal(t, "WITH", firstToken("WITH x AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "DELETE", firstToken("DELETE FROM orders"))
}
