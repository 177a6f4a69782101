package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"sqlsentry/internal/config"
	"sqlsentry/internal/embedding"
	"sqlsentry/internal/mangle"
	"sqlsentry/internal/schema"
)

var indexSchemasCmd = &cobra.Command{
	Use:   "index-schemas",
	Short: "Introspect the business database and (re)build the schema retrieval index",
	Long: `index-schemas reads every table's DDL and column list from the
configured business database via sqlite_master/PRAGMA table_info, embeds
each table once, and persists the result to the schema library so C1's
Retrieve/BuildContext have something to serve. Safe to re-run: existing
entries are replaced in place.`,
	RunE: runIndexSchemas,
}

func runIndexSchemas(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bizDB, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("opening business database: %w", err)
	}
	defer bizDB.Close()

	entries, err := introspectTables(bizDB)
	if err != nil {
		return fmt.Errorf("introspecting business database: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no tables found to index")
		return nil
	}

	engine, err := embedding.NewEngine(embeddingConfigFromCfg(cfg))
	if err != nil {
		return fmt.Errorf("creating embedding engine: %w", err)
	}

	libPath := filepath.Join(cfg.Paths.Workspace, cfg.Paths.SchemaLibrary, "index.db")
	idx, err := schema.Open(libPath, engine)
	if err != nil {
		return fmt.Errorf("opening schema library at %s: %w", libPath, err)
	}
	defer idx.Close()

	policy, err := mangle.New()
	if err != nil {
		return fmt.Errorf("initializing policy engine: %w", err)
	}
	idx.SetPolicy(policy)

	for _, entry := range entries {
		if err := idx.Index(ctx, entry); err != nil {
			fmt.Printf("  %s: FAILED (%v)\n", entry.TableName, err)
			continue
		}
		fmt.Printf("  %s: indexed (%d columns)\n", entry.TableName, len(entry.Columns))
	}

	count, lastIndexed, err := idx.Stats()
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}
	fmt.Printf("schema library now holds %d entries (last indexed %s)\n", count, lastIndexed.Format("2006-01-02 15:04:05"))
	return nil
}

// introspectTables reads table DDL and column metadata for every
// user table in db (sqlite's own sqlite_% tables are skipped).
func introspectTables(db *sql.DB) ([]schema.Entry, error) {
	rows, err := db.Query(`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []schema.Entry
	for rows.Next() {
		var name, ddl sql.NullString
		if err := rows.Scan(&name, &ddl); err != nil {
			return nil, err
		}
		if !name.Valid {
			continue
		}
		columns, err := tableColumns(db, name.String)
		if err != nil {
			return nil, fmt.Errorf("reading columns for %s: %w", name.String, err)
		}
		entries = append(entries, schema.Entry{
			TableName: name.String,
			DDL:       ddl.String,
			Columns:   columns,
		})
	}
	return entries, rows.Err()
}

func tableColumns(db *sql.DB, table string) ([]schema.Column, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var cid int
		var colName, colType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, schema.Column{Name: colName, Type: colType})
	}
	return columns, rows.Err()
}

func embeddingConfigFromCfg(c *config.Config) embedding.Config {
	return embedding.Config{
		Provider:       c.Embedding.Provider,
		OllamaEndpoint: c.Embedding.OllamaEndpoint,
		OllamaModel:    c.Embedding.OllamaModel,
		GenAIAPIKey:    c.LLM.APIKey,
		GenAIModel:     c.Embedding.GenAIModel,
		TaskType:       c.Embedding.TaskType,
	}
}
