// Package sqlexec implements the SQLExecutor described in spec.md §4.4: a
// read-only query runner that gates statement type, injects a row-count
// LIMIT, enforces a timeout, and never panics — every failure mode is
// returned as a classified error string.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sqlsentry/internal/logging"
)

// Result is the {columns, rows} shape spec.md §4.4 requires on success.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Outcome is run's structured, never-raising return value: exactly one
// of Result or Error is populated.
type Outcome struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

const (
	defaultRowLimit = 1000
	defaultTimeout  = 30 * time.Second
)

// Executor runs read-only SQL against a configured *sql.DB. It is
// driver-agnostic: any database/sql driver works, so a deployment can
// swap in a Postgres or MySQL driver without touching this package.
type Executor struct {
	db *sql.DB
}

// New wraps an already-open database handle. The caller owns db's
// lifecycle (including opening it read-only where the driver supports
// that, per spec.md §4.4).
func New(db *sql.DB) *Executor {
	return &Executor{db: db}
}

var leadingCommentOrSpace = regexp.MustCompile(`(?s)^(\s|--[^\n]*\n|/\*.*?\*/)*`)

// firstToken returns the first whitespace/comment-stripped token of sql,
// uppercased, used to gate the statement type.
func firstToken(sqlText string) string {
	stripped := leadingCommentOrSpace.ReplaceAllString(sqlText, "")
	stripped = strings.TrimSpace(stripped)
	end := strings.IndexFunc(stripped, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end < 0 {
		end = len(stripped)
	}
	return strings.ToUpper(stripped[:end])
}

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+\s*$`)

// withLimit appends "LIMIT rowLimit" to sqlText unless it already ends in
// a LIMIT clause, per spec.md §4.4.
func withLimit(sqlText string, rowLimit int) string {
	trimmed := strings.TrimRight(sqlText, "; \t\n\r")
	if limitPattern.MatchString(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, rowLimit)
}

// Run executes sqlText with the given row cap and timeout, returning a
// classified error instead of raising for syntax errors, timeouts,
// permission errors, and missing tables/columns (spec.md §4.4).
func (e *Executor) Run(ctx context.Context, sqlText string, rowLimit, timeoutSeconds int) Outcome {
	if rowLimit <= 0 {
		rowLimit = defaultRowLimit
	}
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	token := firstToken(sqlText)
	if token != "SELECT" && token != "WITH" {
		logging.SQLExec("rejected non-SELECT/WITH statement: leading token %q", token)
		return Outcome{Error: classify(fmt.Errorf("only SELECT/WITH statements are executable, got %q", token))}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	effective := withLimit(sqlText, rowLimit)
	start := time.Now()
	rows, err := e.db.QueryContext(runCtx, effective)
	if err != nil {
		logging.SQLExec("query failed after %v: %v", time.Since(start), err)
		return Outcome{Error: classify(err)}
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return Outcome{Error: classify(err)}
	}

	logging.SQLExecDebug("executed in %v, %d columns, %d rows", time.Since(start), len(result.Columns), len(result.Rows))
	return Outcome{Result: result}
}

func scanRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	result := &Result{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// normalizeRow converts driver-specific byte-slice values (common for
// TEXT columns with some drivers) into plain strings so callers get
// JSON-marshalable values.
func normalizeRow(raw []any) []any {
	out := make([]any, len(raw))
	for i, v := range raw {
		if b, ok := v.([]byte); ok {
			out[i] = string(b)
			continue
		}
		out[i] = v
	}
	return out
}

// classify maps a driver/context error into the stable message taxonomy
// spec.md §4.4 and §7 expect: no raw stack traces, no driver-internal
// wording leaking past a recognizable prefix.
func classify(err error) string {
	switch {
	case err == context.DeadlineExceeded:
		return "query timed out"
	default:
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"):
		return "query timed out"
	case strings.Contains(msg, "no such table"):
		return "missing table: " + msg
	case strings.Contains(msg, "no such column"):
		return "missing column: " + msg
	case strings.Contains(msg, "syntax error"):
		return "SQL syntax error: " + msg
	case strings.Contains(msg, "permission") || strings.Contains(msg, "readonly") || strings.Contains(msg, "read-only"):
		return "permission error: " + msg
	default:
		return "query failed: " + msg
	}
}
