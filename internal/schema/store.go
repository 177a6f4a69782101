package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sqlsentry/internal/embedding"
	"sqlsentry/internal/logging"
	"sqlsentry/internal/mangle"

	_ "github.com/mattn/go-sqlite3"
)

// Index is the schema retrieval index: it embeds every indexed table
// once and answers similarity queries against that embedding set.
type Index struct {
	db     *sql.DB
	engine embedding.EmbeddingEngine
	mu     sync.RWMutex
	vecOK  bool
	policy *mangle.Engine
}

// SetPolicy wires a mangle.Engine so every future Index call also
// asserts indexed_column facts, letting internal/healing's Validator
// query column coverage (spec.md §4.2's supplemented feature).
func (i *Index) SetPolicy(policy *mangle.Engine) { i.policy = policy }

// Open creates (or attaches to) the sqlite-backed schema index at path.
// engine may be nil only in tests that never call Index/Retrieve.
func Open(path string, engine embedding.EmbeddingEngine) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("schema: opening index db: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_entries (
		table_name TEXT PRIMARY KEY,
		ddl TEXT NOT NULL,
		columns TEXT NOT NULL,
		embedding TEXT NOT NULL,
		indexed_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: creating schema_entries table: %w", err)
	}

	idx := &Index{db: db, engine: engine}
	if vecExtensionAvailable && engine != nil {
		idx.initVecTable(engine.Dimensions())
	}
	return idx, nil
}

func (i *Index) initVecTable(dim int) {
	if dim <= 0 {
		return
	}
	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS schema_vec_index USING vec0(embedding float[%d], table_name TEXT)", dim)
	if _, err := i.db.Exec(stmt); err != nil {
		logging.SchemaDebug("sqlite-vec table unavailable, using brute-force scan: %v", err)
		return
	}
	i.vecOK = true
	logging.Schema("sqlite-vec ANN index enabled (dimensions=%d)", dim)
}

// Close releases the underlying database handle.
func (i *Index) Close() error { return i.db.Close() }

// Index persists one entry, embedding it from its composed document.
// Per spec.md §4.1, failure to embed leaves the index unchanged.
func (i *Index) Index(ctx context.Context, entry Entry) error {
	vec, err := i.engine.Embed(ctx, entry.document())
	if err != nil {
		return fmt.Errorf("schema: embedding %s: %w", entry.TableName, err)
	}
	entry.IndexedAt = time.Now()
	if err := i.persist(entry, vec); err != nil {
		return err
	}
	if i.policy != nil {
		for _, c := range entry.Columns {
			if err := i.policy.AssertIndexedColumn(entry.TableName, c.Name); err != nil {
				logging.SchemaDebug("policy assertion failed for %s.%s: %v", entry.TableName, c.Name, err)
			}
		}
	}
	return nil
}

func (i *Index) persist(entry Entry, vec []float32) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	columnsJSON, err := json.Marshal(entry.Columns)
	if err != nil {
		return fmt.Errorf("schema: marshaling columns: %w", err)
	}
	vecJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("schema: marshaling embedding: %w", err)
	}

	tx, err := i.db.Begin()
	if err != nil {
		return fmt.Errorf("schema: beginning transaction: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO schema_entries (table_name, ddl, columns, embedding, indexed_at) VALUES (?, ?, ?, ?, ?)`,
		entry.TableName, entry.DDL, string(columnsJSON), string(vecJSON), entry.IndexedAt,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("schema: persisting %s: %w", entry.TableName, err)
	}

	if i.vecOK {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO schema_vec_index (rowid, embedding, table_name) VALUES ((SELECT rowid FROM schema_entries WHERE table_name = ?), ?, ?)`,
			entry.TableName, encodeFloat32Slice(vec), entry.TableName,
		); err != nil {
			logging.Get(logging.CategorySchema).Warn("vec index insert failed for %s: %v", entry.TableName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("schema: committing %s: %w", entry.TableName, err)
	}
	logging.SchemaDebug("indexed table %s (%d columns)", entry.TableName, len(entry.Columns))
	return nil
}

// Reindex re-embeds and atomically replaces the entry for table, using
// its already-stored DDL/columns.
func (i *Index) Reindex(ctx context.Context, table string) error {
	entry, _, err := i.load(table)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("schema: table %s is not indexed", table)
	}
	return i.Index(ctx, *entry)
}

func (i *Index) load(table string) (*Entry, []float32, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	row := i.db.QueryRow(`SELECT table_name, ddl, columns, embedding, indexed_at FROM schema_entries WHERE table_name = ?`, table)
	entry, vec, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	return entry, vec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, []float32, error) {
	var tableName, ddl, columnsJSON, embeddingJSON string
	var indexedAt time.Time
	if err := row.Scan(&tableName, &ddl, &columnsJSON, &embeddingJSON, &indexedAt); err != nil {
		return nil, nil, err
	}
	var columns []Column
	_ = json.Unmarshal([]byte(columnsJSON), &columns)
	var vec []float32
	_ = json.Unmarshal([]byte(embeddingJSON), &vec)
	return &Entry{TableName: tableName, DDL: ddl, Columns: columns, IndexedAt: indexedAt}, vec, nil
}

// Retrieve returns up to k entries ordered by descending cosine
// similarity to query_text, ties broken lexicographically by table name.
func (i *Index) Retrieve(ctx context.Context, queryText string, k int) ([]Entry, error) {
	k = clampK(k)

	i.mu.RLock()
	rows, err := i.db.Query(`SELECT table_name, ddl, columns, embedding, indexed_at FROM schema_entries`)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("schema: querying entries: %w", err)
	}
	defer rows.Close()

	var all []scored
	for rows.Next() {
		entry, vec, err := scanEntry(rows)
		if err != nil {
			continue
		}
		all = append(all, scored{entry: *entry, similarity: 0, embedding: vec})
	}
	if len(all) == 0 {
		return nil, nil
	}

	queryVec, err := i.engine.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("schema: embedding query: %w", err)
	}

	for idx := range all {
		sim, err := embedding.CosineSimilarity(queryVec, all[idx].embedding)
		if err != nil {
			continue
		}
		all[idx].similarity = sim
	}

	sort.SliceStable(all, func(a, b int) bool {
		if all[a].similarity != all[b].similarity {
			return all[a].similarity > all[b].similarity
		}
		return all[a].entry.TableName < all[b].entry.TableName
	})

	if len(all) > k {
		all = all[:k]
	}

	out := make([]Entry, len(all))
	for idx, s := range all {
		out[idx] = s.entry
	}
	return out, nil
}

// BuildContext returns a single formatted text block concatenating the
// top-k DDLs with column annotations, for use as LLM context. An empty
// index yields a sentinel string rather than an error.
func (i *Index) BuildContext(ctx context.Context, queryText string, k int) (string, error) {
	entries, err := i.Retrieve(ctx, queryText, k)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return noSchemaSentinel, nil
	}

	var b strings.Builder
	for idx, e := range entries {
		if idx > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("-- " + e.TableName + "\n")
		b.WriteString(e.DDL)
		for _, c := range e.Columns {
			b.WriteString(fmt.Sprintf("\n  %s (%s): %s", c.Name, c.Type, c.Description))
		}
	}
	return b.String(), nil
}

// KnownColumns returns the union of column names across every indexed
// table, satisfying internal/glossary.ColumnKnower for the
// related_columns validation spec.md §4.2 describes.
func (i *Index) KnownColumns() []string {
	i.mu.RLock()
	rows, err := i.db.Query(`SELECT columns FROM schema_entries`)
	i.mu.RUnlock()
	if err != nil {
		return nil
	}
	defer rows.Close()

	seen := map[string]bool{}
	var out []string
	for rows.Next() {
		var columnsJSON string
		if err := rows.Scan(&columnsJSON); err != nil {
			continue
		}
		var columns []Column
		if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
			continue
		}
		for _, c := range columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c.Name)
			}
		}
	}
	return out
}

// Stats reports the number of indexed entries and the most recent
// indexing timestamp, used by the index-schemas CLI for operator
// feedback.
func (i *Index) Stats() (count int, lastIndexed time.Time, err error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	// MAX(indexed_at) carries no declared column type, so the driver hands
	// it back as text rather than time.Time; parse it here.
	var last sql.NullString
	row := i.db.QueryRow(`SELECT COUNT(*), MAX(indexed_at) FROM schema_entries`)
	if err = row.Scan(&count, &last); err != nil {
		return count, lastIndexed, err
	}
	if last.Valid {
		for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", time.RFC3339Nano} {
			if lastIndexed, err = time.Parse(layout, last.String); err == nil {
				break
			}
		}
	}
	return count, lastIndexed, err
}

func encodeFloat32Slice(vec []float32) []byte {
	b, _ := json.Marshal(vec)
	return b
}
