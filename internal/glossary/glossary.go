package glossary

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"sqlsentry/internal/logging"
	"sqlsentry/internal/mangle"
)

// ColumnKnower is satisfied by internal/schema.Index; it lets Load
// validate related_columns against what's actually indexed, without a
// hard dependency on the schema package (glossary may load before
// indexing, per spec.md §4.2).
type ColumnKnower interface {
	KnownColumns() []string
}

// Glossary holds the loaded terms and aliases and answers lookups.
// Safe for concurrent use; immutable after a Load/reload swap (spec.md
// §5's "Glossary: immutable after load" discipline — reload is a new
// load, not an in-place mutation of the live structures readers see).
type Glossary struct {
	mu      sync.RWMutex
	terms   map[string]Term   // canonical name -> term, lowercased key
	aliases map[string][]string

	path   string
	policy *mangle.Engine
}

// New creates an empty Glossary. policy may be nil; when present, every
// related_columns entry is also asserted as a glossary_column fact, and
// EnrichContext uses the same policy to drop matched terms whose
// related columns are no longer covered by the indexed schema (spec.md's
// supplemented feature, see SPEC_FULL.md §C2).
func New(policy *mangle.Engine) *Glossary {
	return &Glossary{terms: make(map[string]Term), aliases: make(map[string][]string), policy: policy}
}

// Load reads and parses path (YAML), validating related_columns against
// knower's known columns if knower is non-nil. Unknown columns produce a
// warning log, never a load failure, per spec.md §4.2.
func (g *Glossary) Load(path string, knower ColumnKnower) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("glossary: reading %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("glossary: parsing %s: %w", path, err)
	}

	known := map[string]bool{}
	if knower != nil {
		for _, c := range knower.KnownColumns() {
			known[c] = true
		}
	}

	terms := make(map[string]Term, len(doc.Terms))
	for _, t := range doc.Terms {
		terms[strings.ToLower(t.Name)] = t
		for _, col := range t.RelatedColumns {
			if len(known) > 0 && !known[col] {
				logging.Glossary("term %q references unknown column %q (not yet indexed)", t.Name, col)
			}
			if g.policy != nil {
				if err := g.policy.AssertGlossaryColumn(t.Name, col); err != nil {
					logging.Glossary("policy assertion failed for term %q column %q: %v", t.Name, col, err)
				}
			}
		}
	}

	aliases := make(map[string][]string, len(doc.Aliases))
	for _, a := range doc.Aliases {
		aliases[strings.ToLower(a.Canonical)] = a.Synonyms
	}

	g.mu.Lock()
	g.terms = terms
	g.aliases = aliases
	g.path = path
	g.mu.Unlock()

	logging.Glossary("loaded %d terms, %d column aliases from %s", len(terms), len(aliases), path)
	return nil
}

// Lookup returns the GlossaryTerm for term (case-insensitive) and
// whether it was found.
func (g *Glossary) Lookup(term string) (Term, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.terms[strings.ToLower(term)]
	return t, ok
}

// ExpandAliases returns the synonym set registered for columnName.
func (g *Glossary) ExpandAliases(columnName string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.aliases[strings.ToLower(columnName)]...)
}

// EnrichContext appends to baseContext one line per glossary term whose
// canonical name or any synonym appears as a whole word in queryText,
// formatted per spec.md §4.2: "<term>: <definition>; SQL fragment:
// <fragment>". When a policy engine is set, a matched term is dropped
// if none of its related_columns are still covered — both referenced
// by the term and backed by some indexed table — so a renamed or
// removed column doesn't surface a stale hint to the Architect. A term
// with no related_columns at all is never filtered this way, since it
// has nothing for the policy to check.
func (g *Glossary) EnrichContext(queryText, baseContext string) string {
	g.mu.RLock()
	terms := make([]Term, 0, len(g.terms))
	for _, t := range g.terms {
		terms = append(terms, t)
	}
	policy := g.policy
	g.mu.RUnlock()

	lowerQuery := strings.ToLower(queryText)
	var matched []string
	for _, t := range terms {
		if !termMatchesQuery(t, lowerQuery) {
			continue
		}
		if policy != nil && len(t.RelatedColumns) > 0 && !anyColumnCovered(policy, t.RelatedColumns) {
			logging.Glossary("dropping stale term %q: none of its related columns are covered", t.Name)
			continue
		}
		matched = append(matched, fmt.Sprintf("%s: %s; SQL fragment: %s", t.Name, t.Definition, t.SQLFragment))
	}
	if len(matched) == 0 {
		return baseContext
	}
	return baseContext + "\n\n-- business glossary --\n" + strings.Join(matched, "\n")
}

func anyColumnCovered(policy *mangle.Engine, columns []string) bool {
	for _, c := range columns {
		if policy.ColumnCovered(c) {
			return true
		}
	}
	return false
}

func termMatchesQuery(t Term, lowerQuery string) bool {
	if wholeWordMatch(lowerQuery, t.Name) {
		return true
	}
	for _, syn := range t.Synonyms {
		if wholeWordMatch(lowerQuery, syn) {
			return true
		}
	}
	return false
}

func wholeWordMatch(haystackLower, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	pattern := `\b` + regexp.QuoteMeta(needle) + `\b`
	matched, err := regexp.MatchString(pattern, haystackLower)
	return err == nil && matched
}

// Watch reloads the glossary from its loaded path whenever the file
// changes on disk, using fsnotify, the same dependency the teacher uses
// for config hot-reload. Watch blocks until ctx is cancelled or the
// watcher's event channel closes.
func (g *Glossary) Watch(ctx context.Context, knower ColumnKnower) error {
	g.mu.RLock()
	path := g.path
	g.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("glossary: Watch called before Load")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("glossary: creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("glossary: watching %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := g.Load(path, knower); err != nil {
					logging.Glossary("reload of %s failed: %v", path, err)
				} else {
					logging.Glossary("reloaded %s after change", path)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Glossary("watcher error: %v", err)
		}
	}
}

// TermCount reports the number of loaded terms, used by operator-facing
// diagnostics.
func (g *Glossary) TermCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.terms)
}
