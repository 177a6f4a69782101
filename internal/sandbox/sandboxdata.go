package sandbox

import (
	"reflect"
	"sync"
)

// sandboxdataMu guards each read and write of the package-level table
// below. Each Tier B run stages its inputs into that table before
// interpreting, so yaegi-evaluated code can call sandboxdata.Get("orders")
// as an ordinary import. Runs themselves are not serialized: a second
// concurrent Tier B run replaces the table the first one reads.
var (
	sandboxdataMu sync.Mutex
	currentInputs map[string]Tabular
)

func setInputs(inputs map[string]Tabular) {
	sandboxdataMu.Lock()
	defer sandboxdataMu.Unlock()
	currentInputs = inputs
}

// Get returns the named input table, or a zero-value Tabular if absent —
// sandboxed code always gets a value, never a panic.
func Get(name string) Tabular {
	sandboxdataMu.Lock()
	defer sandboxdataMu.Unlock()
	return currentInputs[name]
}

// Column extracts one column's values as float64, skipping any cell that
// isn't numeric. Used heavily by internal/analytics' synthesized recipe
// code.
func Column(t Tabular, name string) []float64 {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		switch v := row[idx].(type) {
		case float64:
			out = append(out, v)
		case int:
			out = append(out, float64(v))
		case int64:
			out = append(out, float64(v))
		}
	}
	return out
}

// sandboxdataSymbols is the yaegi custom symbol table exposing this
// file's exported functions/types to interpreted code as package
// "sandboxdata", following yaegi's documented interp.Exports convention
// (package-path -> symbol-name -> reflect.Value).
var sandboxdataSymbols = map[string]map[string]reflect.Value{
	"sandboxdata/sandboxdata": {
		"Get":    reflect.ValueOf(Get),
		"Column": reflect.ValueOf(Column),
		"Tabular": reflect.ValueOf((*Tabular)(nil)),
	},
}
