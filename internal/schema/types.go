// Package schema implements the schema-retrieval index described in
// spec.md §4.1: table DDLs are embedded once at index time and retrieved
// by cosine similarity against a query to build LLM-ready context blocks.
package schema

import "time"

// Column describes one column of an indexed table.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Entry is one indexed table: its DDL plus per-column descriptions used
// both to compose the embedding document and to render context blocks.
type Entry struct {
	TableName string    `json:"table_name"`
	DDL       string    `json:"ddl"`
	Columns   []Column  `json:"columns"`
	IndexedAt time.Time `json:"indexed_at"`
}

// scored pairs an Entry and its stored embedding with its similarity to
// the last query evaluated; only used internally by Retrieve's ranking
// step.
type scored struct {
	entry      Entry
	embedding  []float32
	similarity float64
}

// document composes the text that gets embedded for an entry, per
// spec.md §4.1: "{table_name}\n{DDL}\n{column_name: description}*".
func (e Entry) document() string {
	doc := e.TableName + "\n" + e.DDL
	for _, c := range e.Columns {
		doc += "\n" + c.Name + ": " + c.Description
	}
	return doc
}

const (
	defaultK = 3
	maxK     = 10
)

func clampK(k int) int {
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}
	return k
}

// noSchemaSentinel is returned by BuildContext when the index is empty,
// per spec.md §4.1's "never an exception" failure contract.
const noSchemaSentinel = "No schema entries have been indexed yet."
