// Package mangle wraps github.com/google/mangle for the small, static
// policy rules C2's glossary-coverage check and C7's Validator
// column-coverage check need: "is this column backed by some indexed
// table" and "is this column both named by a glossary term and backed by
// some indexed table."
// It is deliberately thin — a fact store plus a handful of declared
// predicates and rules, evaluated the way the mangle-programming
// go-integration example wraps analysis.AnalyzeOneUnit/engine.EvalProgram.
package mangle

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// program declares the predicates and rules this package evaluates.
// indexed_column(Table, Column) and glossary_column(Term, Column) are
// asserted as facts; covered_column derives whether a column used by a
// glossary term is backed by some indexed table.
const program = `
	Decl indexed_column(Table, Column).
	Decl glossary_column(Term, Column).
	Decl covered_column(Term, Column).

	covered_column(Term, Column) :- glossary_column(Term, Column), indexed_column(_, Column).
`

// Engine evaluates the policy program incrementally as facts are
// asserted, mirroring the go-integration example's AddFact/re-evaluate
// loop.
type Engine struct {
	mu          sync.Mutex
	store       factstore.FactStore
	programInfo *analysis.ProgramInfo
}

// New parses and analyzes the policy program and returns a ready-to-use
// Engine with an empty fact store.
func New() (*Engine, error) {
	unit, err := parse.Unit(strings.NewReader(program))
	if err != nil {
		return nil, fmt.Errorf("mangle: parsing policy program: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("mangle: analyzing policy program: %w", err)
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("mangle: initial evaluation: %w", err)
	}
	return &Engine{store: store, programInfo: info}, nil
}

// AssertIndexedColumn records that table exposes column, for the
// covered_column derivation.
func (e *Engine) AssertIndexedColumn(table, column string) error {
	return e.assert("indexed_column", table, column)
}

// AssertGlossaryColumn records that a glossary term references column.
func (e *Engine) AssertGlossaryColumn(term, column string) error {
	return e.assert("glossary_column", term, column)
}

func (e *Engine) assert(predicate string, args ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	terms := make([]ast.BaseTerm, len(args))
	for i, a := range args {
		terms[i] = ast.String(a)
	}
	e.store.Add(ast.NewAtom(predicate, terms...))

	_, err := engine.EvalProgramWithStats(e.programInfo, e.store)
	if err != nil {
		return fmt.Errorf("mangle: re-evaluating after assert: %w", err)
	}
	return nil
}

// Reset clears every asserted fact (used when the glossary or schema
// index reloads from scratch).
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = factstore.NewSimpleInMemoryStore()
	_, _ = engine.EvalProgramWithStats(e.programInfo, e.store)
}

// ColumnCovered reports whether column is both referenced by a glossary
// term and backed by some indexed table.
func (e *Engine) ColumnCovered(column string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pred := ast.PredicateSym{Symbol: "covered_column", Arity: 2}
	query := ast.NewQuery(pred)

	found := false
	_ = e.store.GetFacts(query, func(atom ast.Atom) error {
		if len(atom.Args) == 2 {
			if c, ok := atom.Args[1].(ast.Constant); ok && c.Symbol == column {
				found = true
			}
		}
		return nil
	})
	return found
}

// IndexedColumnExists reports whether any table has asserted column,
// independent of glossary coverage.
func (e *Engine) IndexedColumnExists(column string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pred := ast.PredicateSym{Symbol: "indexed_column", Arity: 2}
	query := ast.NewQuery(pred)

	found := false
	_ = e.store.GetFacts(query, func(atom ast.Atom) error {
		if len(atom.Args) == 2 {
			if c, ok := atom.Args[1].(ast.Constant); ok && c.Symbol == column {
				found = true
			}
		}
		return nil
	})
	return found
}
