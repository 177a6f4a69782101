package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"sqlsentry/internal/logging"
)

// restrictedTimeout bounds Tier B execution per spec.md §5's 30s sandbox
// default; Tier B cannot forcibly interrupt in-progress computation (the
// interpreter's goroutine keeps running), so this is a post-hoc timeout
// as spec.md §5 documents explicitly.
const restrictedTimeout = 30 * time.Second

// allowedImports is the stdlib allow-list for Tier B, directly
// generalizing internal/autopoiesis/yaegi_executor.go's allowedPackages:
// only tabular/numeric/statistics-adjacent packages plus the injected
// sandboxdata helper package are permitted. No os, os/exec, net,
// net/http, syscall, or unsafe.
var allowedImports = map[string]bool{
	"strings":         true,
	"strconv":         true,
	"fmt":             true,
	"math":            true,
	"math/rand":       true,
	"sort":            true,
	"time":            true,
	"sandboxdata":     true,
}

// deniedIdentifiers are dynamic-code-construction or dunder-style names
// that spec.md §4.5 denies regardless of import; yaegi has no `eval`
// equivalent but `unsafe`/reflect-based escapes are still blocked at the
// import layer above.
var deniedIdentifiers = []string{"os.", "exec.", "syscall.", "unsafe."}

// RestrictedTier executes analytics code in an in-process yaegi
// interpreter restricted to a narrow stdlib allow-list — Tier B of
// spec.md §4.5.
type RestrictedTier struct{}

// NewRestrictedTier constructs Tier B. It never fails to construct;
// probing happens at the top-level Sandbox's selection step.
func NewRestrictedTier() *RestrictedTier { return &RestrictedTier{} }

func (t *RestrictedTier) Tier() Tier { return TierRestricted }

// Run interprets code in a fresh yaegi interpreter. code assigns a
// package-level `result` variable of type `any` (a run without one
// succeeds with a nil Result); inputs are reachable from code through the
// injected sandboxdata package (sandboxdata.Get). Violations, timeouts, and syntax errors all return
// success=false with a classified error, never an exception to the
// caller (spec.md §4.5).
func (t *RestrictedTier) Run(ctx context.Context, code string, inputs map[string]Tabular) Result {
	if err := validateImports(code); err != nil {
		return Result{Success: false, Error: err.Error(), TierUsed: TierRestricted}
	}
	if err := validateIdentifiers(code); err != nil {
		return Result{Success: false, Error: err.Error(), TierUsed: TierRestricted}
	}

	runCtx, cancel := context.WithTimeout(ctx, restrictedTimeout)
	defer cancel()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return Result{Success: false, Error: "failed to load stdlib: " + err.Error(), TierUsed: TierRestricted}
	}
	if err := i.Use(sandboxdataSymbols); err != nil {
		return Result{Success: false, Error: "failed to load sandboxdata: " + err.Error(), TierUsed: TierRestricted}
	}

	setInputs(inputs)

	type evalOutcome struct {
		result any
		err    error
	}
	done := make(chan evalOutcome, 1)

	go func() {
		fullCode := wrapCode(code)
		if _, err := i.Eval(fullCode); err != nil {
			done <- evalOutcome{err: fmt.Errorf("code evaluation failed: %w", err)}
			return
		}
		v, err := i.Eval("main.result")
		if err != nil {
			// spec.md §8 boundary: no `result` assignment -> success=true, result=absent.
			done <- evalOutcome{result: nil}
			return
		}
		done <- evalOutcome{result: v.Interface()}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			return Result{Success: false, Error: outcome.err.Error(), TierUsed: TierRestricted}
		}
		return Result{Success: true, Result: outcome.result, TierUsed: TierRestricted}
	case <-runCtx.Done():
		return Result{Success: false, Error: "sandbox execution timed out", TierUsed: TierRestricted}
	}
}

func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return fmt.Sprintf("package main\n\n%s\n", code)
}

// validateImports rejects any import outside allowedImports, the same
// line-scanning approach internal/autopoiesis/yaegi_executor.go uses.
func validateImports(code string) error {
	lines := strings.Split(code, "\n")
	var imports []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock && strings.HasPrefix(trimmed, ")") {
			inBlock = false
			continue
		}
		if inBlock {
			imports = append(imports, strings.Trim(trimmed, `"`))
		} else if strings.HasPrefix(trimmed, "import ") {
			imports = append(imports, strings.Trim(strings.TrimPrefix(trimmed, "import "), `"`))
		}
	}

	var forbidden []string
	for _, pkg := range imports {
		if !allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %v", forbidden)
	}
	return nil
}

// validateIdentifiers rejects textual references to denied packages even
// when not formally imported (a defense-in-depth check; yaegi itself
// would fail to resolve an unimported identifier, but this keeps the
// policy self-documenting and independent of interpreter internals).
func validateIdentifiers(code string) error {
	for _, denied := range deniedIdentifiers {
		if strings.Contains(code, denied) {
			return fmt.Errorf("forbidden identifier reference: %s", denied)
		}
	}
	if strings.Contains(code, "__") {
		return fmt.Errorf("dunder-style identifiers are not permitted")
	}
	return nil
}
