// Package keyreg implements the blueprint's key registry: a case-insensitive,
// insertion-ordered, banked index of every variable/flag/column name a
// template references (SPEC_FULL.md §3.2).
package keyreg

import "strings"

// Bank identifies which of the five contiguous index ranges a key belongs
// to. Banks are populated in this order; within a bank, first appearance
// wins (spec.md §3).
type Bank int

const (
	// BankSelect holds projection columns from the first dynamic ?SELECT.
	BankSelect Bank = iota
	// BankFlag holds bare comment flags (/*Name*/) not tied to a variable.
	BankFlag
	// BankVariable holds ordinary @Var variables, required and optional.
	BankVariable
	// BankSpecialHandler holds variables used with a special (_X-style) handler.
	BankSpecialHandler
	// BankBaseHandler holds variables used with a base (_N/_S/_R-style) handler.
	BankBaseHandler
)

// Registry is a dense, case-insensitive, insertion-ordered key index.
// It is built once during compilation and never mutated afterward. Create
// one with New; the zero value has no index map and GetOrAdd on it panics.
type Registry struct {
	names     []string       // index -> original-cased name
	byFold    map[string]int // case-folded name -> index
	banks     []Bank         // index -> bank
	bankEnd   [5]int         // exclusive end index of each bank, filled in Freeze
	frozen    bool
}

// New returns an empty, mutable Registry ready for get_or_add calls during
// compilation.
func New() *Registry {
	return &Registry{byFold: make(map[string]int)}
}

func fold(name string) string { return strings.ToLower(name) }

// GetOrAdd returns the dense index for name, registering it in bank if it
// is not already present. Re-registering an existing name under a
// different bank is a no-op: the name keeps its original bank, matching
// spec.md's "first appearance wins."
func (r *Registry) GetOrAdd(name string, bank Bank) int {
	if r.frozen {
		panic("keyreg: GetOrAdd called on a frozen Registry")
	}
	key := fold(name)
	if idx, ok := r.byFold[key]; ok {
		return idx
	}
	idx := len(r.names)
	r.names = append(r.names, name)
	r.banks = append(r.banks, bank)
	r.byFold[key] = idx
	return idx
}

// IndexOf returns the index of name and true if it has been registered.
func (r *Registry) IndexOf(name string) (int, bool) {
	idx, ok := r.byFold[fold(name)]
	return idx, ok
}

// Count returns the total number of distinct keys.
func (r *Registry) Count() int { return len(r.names) }

// Name returns the originally-cased spelling registered at idx.
func (r *Registry) Name(idx int) string { return r.names[idx] }

// BankOf returns the bank idx belongs to.
func (r *Registry) BankOf(idx int) Bank { return r.banks[idx] }

// Freeze finalizes bank boundary bookkeeping. Keys are stored in
// insertion order rather than bank order (spec.md §3's "dense index
// space with five banks in registration order" describes registration,
// not physical contiguity) so Freeze computes, per bank, the count of
// keys registered in it; EndSelects and StartVariables are derived from
// those counts under the assumption that compilation registers banks in
// bank order (BankSelect and BankFlag before any BankVariable/handler
// bank), which the blueprint builder guarantees.
func (r *Registry) Freeze() {
	if r.frozen {
		return
	}
	var counts [5]int
	for _, b := range r.banks {
		counts[b]++
	}
	sum := 0
	for i := 0; i < 5; i++ {
		sum += counts[i]
		r.bankEnd[i] = sum
	}
	r.frozen = true
}

// EndSelects returns the exclusive end index of BankSelect (spec.md
// §6.2's end_selects).
func (r *Registry) EndSelects() int { return r.bankEnd[BankSelect] }

// StartVariables returns the inclusive start index of BankVariable
// (spec.md §6.2's start_variables): it is the end of BankFlag.
func (r *Registry) StartVariables() int { return r.bankEnd[BankFlag] }

// Names returns the registered names in insertion order. The returned
// slice must not be mutated.
func (r *Registry) Names() []string { return r.names }

// Equal reports whether a name is case-insensitively equal to another,
// exposed for callers (e.g. the condition compiler) that need the same
// fold rule without going through the registry.
func Equal(a, b string) bool { return fold(a) == fold(b) }
