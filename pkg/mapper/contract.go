// Package mapper defines the thin contract a row mapper/driver layer
// must satisfy to consume a rendered Blueprint. The mapper and driver
// themselves are explicitly out of scope (SPEC_FULL.md §4): this package
// exposes only the seam, the same way the teacher's pkg/schema exposes a
// Validator interface without owning any particular storage engine.
package mapper

import "github.com/dynsqlgo/dynsql/pkg/handler"

// Binder receives the rendered SQL text plus the special-handler
// bindings a render produced, and is responsible for turning them into
// whatever a concrete driver needs (named parameters, positional "?"
// placeholders, a prepared statement cache key, ...).
type Binder interface {
	// Bind associates query (the rendered SQL) with bindings (in render
	// order) and returns driver-ready arguments plus the possibly-
	// rewritten query text (e.g. "@Name" swapped for "$1").
	Bind(query string, bindings []handler.Binding) (rewritten string, args []any, err error)
}

// SchemaSignature is the minimal column/type description a Binder or
// schema-aware caller needs to validate a rendered projection against a
// real table, without this module owning any schema-loading machinery
// itself.
type SchemaSignature struct {
	Table   string
	Columns map[string]string // column name -> driver type name
}

// HasColumn reports whether name (case-insensitively) is part of the
// signature.
func (s SchemaSignature) HasColumn(name string) bool {
	for c := range s.Columns {
		if equalFold(c, name) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
