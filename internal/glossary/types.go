// Package glossary implements the BusinessGlossary described in spec.md
// §4.2: a YAML document of domain terms mapped to SQL fragments, column
// aliases, and related tables/columns, used to enrich focused context
// with business vocabulary an LLM wouldn't otherwise infer from DDL alone.
package glossary

// Term is one domain vocabulary entry. SQLFragment is a hint for the
// generating agent only — spec.md §4.2's security note forbids
// concatenating it directly into generated SQL.
type Term struct {
	Name            string   `yaml:"name" json:"name"`
	Definition      string   `yaml:"definition" json:"definition"`
	SQLFragment     string   `yaml:"sql_fragment" json:"sql_fragment"`
	RelatedTables   []string `yaml:"related_tables" json:"related_tables"`
	RelatedColumns  []string `yaml:"related_columns" json:"related_columns"`
	Synonyms        []string `yaml:"synonyms" json:"synonyms"`
}

// ColumnAlias maps a canonical column name to its synonym set, used for
// query expansion.
type ColumnAlias struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Synonyms  []string `yaml:"synonyms" json:"synonyms"`
}

// document is the on-disk shape of glossary.config.
type document struct {
	Terms   []Term        `yaml:"terms"`
	Aliases []ColumnAlias `yaml:"aliases"`
}
