package healing

import (
	"regexp"
	"strings"

	"sqlsentry/internal/mangle"
)

// forbiddenTokens are DDL/DML keywords the Validator rejects outside of
// string literals, per spec.md §4.7.
var forbiddenTokens = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE",
	"CREATE", "REPLACE", "EXEC", "CALL", "GRANT", "REVOKE",
}

var stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

// Validator is the final safety gate of spec.md §4.7: it rejects SQL
// whose first statement isn't SELECT/WITH, SQL containing forbidden
// tokens outside string literals, and SQL targeting tables not present
// in the focused context.
type Validator struct {
	// Policy, when set, backs a column-existence check against the same
	// Mangle fact store internal/schema.Index asserts indexed_column
	// facts into: any SELECT-list column Policy doesn't recognize is
	// rejected as a likely hallucinated column name. Nil disables the
	// check (the zero Validator{} behaves exactly as before).
	Policy *mangle.Engine
}

// Check reports whether sql is safe to execute, and if not, a
// human-readable rejection reason suitable for feedback to the
// Architect's next attempt.
func (v Validator) Check(sql string, knownTables []string) (bool, string) {
	stripped := stripStringLiterals(sql)
	leading := leadingToken(stripped)
	if leading != "SELECT" && leading != "WITH" {
		return false, "statement must begin with SELECT or WITH"
	}

	upper := strings.ToUpper(stripped)
	for _, tok := range forbiddenTokens {
		if containsWord(upper, tok) {
			return false, "statement contains forbidden keyword: " + tok
		}
	}

	if missing := tablesNotInContext(stripped, knownTables); len(missing) > 0 {
		return false, "statement references tables outside the focused context: " + strings.Join(missing, ", ")
	}

	if v.Policy != nil {
		if unknown := columnsNotIndexed(stripped, v.Policy); len(unknown) > 0 {
			return false, "statement references columns not present in any indexed table: " + strings.Join(unknown, ", ")
		}
	}

	return true, ""
}

// stripStringLiterals blanks out single-quoted string contents so
// keyword/table scanning never matches text inside a literal.
func stripStringLiterals(sql string) string {
	return stringLiteralPattern.ReplaceAllStringFunc(sql, func(lit string) string {
		return "'" + strings.Repeat("x", len(lit)-2) + "'"
	})
}

func leadingToken(sql string) string {
	trimmed := strings.TrimSpace(sql)
	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end < 0 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}

func containsWord(haystack, word string) bool {
	pattern := `\b` + regexp.QuoteMeta(word) + `\b`
	matched, _ := regexp.MatchString(pattern, haystack)
	return matched
}

var selectListPattern = regexp.MustCompile(`(?is)^SELECT\s+(.*?)\s+FROM\s`)
var simpleColumnPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// columnsNotIndexed extracts the top-level SELECT-list identifiers from
// sql and returns any that policy has no indexed_column fact for. It
// only looks at plain "table.column" / "column" items — aliases
// ("AS x"), "*", and anything containing a function call or expression
// are left unchecked, since those aren't bare column references.
func columnsNotIndexed(sql string, policy *mangle.Engine) []string {
	m := selectListPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}

	var unknown []string
	seen := map[string]bool{}
	for _, item := range strings.Split(m[1], ",") {
		item = strings.TrimSpace(item)
		if idx := strings.Index(strings.ToUpper(item), " AS "); idx >= 0 {
			item = strings.TrimSpace(item[:idx])
		}
		if fields := strings.Fields(item); len(fields) == 2 {
			item = fields[0] // "col alias" without AS
		}
		if dot := strings.LastIndex(item, "."); dot >= 0 {
			item = item[dot+1:]
		}
		if item == "" || item == "*" || !simpleColumnPattern.MatchString(item) {
			continue
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		if !policy.IndexedColumnExists(item) {
			unknown = append(unknown, item)
		}
	}
	return unknown
}

var fromJoinPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// tablesNotInContext extracts identifiers following FROM/JOIN and
// returns any that aren't in knownTables. An empty knownTables list
// disables this check (callers that haven't wired a focused context).
func tablesNotInContext(sql string, knownTables []string) []string {
	if len(knownTables) == 0 {
		return nil
	}
	known := make(map[string]bool, len(knownTables))
	for _, t := range knownTables {
		known[strings.ToLower(t)] = true
	}

	seen := map[string]bool{}
	var missing []string
	for _, m := range fromJoinPattern.FindAllStringSubmatch(sql, -1) {
		table := strings.ToLower(m[1])
		if known[table] || seen[table] {
			continue
		}
		seen[table] = true
		if !known[table] {
			missing = append(missing, m[1])
		}
	}
	return missing
}
