// Package render implements the dense per-render state vector (Builder)
// and the Renderer that walks a blueprint.Blueprint's segment tape
// against it (SPEC_FULL.md §3.6, §3.7). A Blueprint is immutable and
// safe to share across goroutines; a Builder is single-owner, exactly
// like the teacher's statement-pooling objects are meant to be used by
// one goroutine at a time between Get/Put.
package render

import (
	"github.com/dynsqlgo/dynsql/pkg/blueprint"
	"github.com/dynsqlgo/dynsql/pkg/keyreg"
)

// slotState is one key's state in V[0..key_count) (spec.md §3): None,
// the Used sentinel (a boolean activation with no carried value), or
// Valued (an actual non-bool value).
type slotState int

const (
	slotAbsent slotState = iota
	slotUsed
	slotValued
)

// Builder is the per-render state vector: which keys are "in use" and,
// for variables, what value they carry. It holds no internal locking;
// callers sharing a Builder across goroutines must synchronize
// externally (spec.md §5).
type Builder struct {
	bp     *blueprint.Blueprint
	state  []slotState
	values []any
}

// NewBuilder returns a Builder with every key absent.
func NewBuilder(bp *blueprint.Blueprint) *Builder {
	n := bp.Keys.Count()
	return &Builder{bp: bp, state: make([]slotState, n), values: make([]any, n)}
}

func (b *Builder) resolve(name string) (int, error) {
	idx, ok := b.bp.Keys.IndexOf(name)
	if !ok {
		return 0, &MisuseOfReservedSlotError{Name: name, Reason: "not declared in this template"}
	}
	return idx, nil
}

func isFlagBank(bank keyreg.Bank) bool {
	return bank == keyreg.BankSelect || bank == keyreg.BankFlag
}

// Use marks a select-column or bare-flag key Used. Ordinary and
// handler-lettered variables (banks 3-5) must go through UseValue
// instead, since a variable needs an actual carried value to be
// considered active (spec.md §3, §6.3: "use(name) ... error if name
// resolves to a bank-(3,4,5) slot").
func (b *Builder) Use(name string) error {
	idx, err := b.resolve(name)
	if err != nil {
		return err
	}
	bank := b.bp.Keys.BankOf(idx)
	if !isFlagBank(bank) {
		return &MisuseOfReservedSlotError{Name: name, Reason: "use(name) only applies to select-column/flag keys; variables require UseValue"}
	}
	b.state[idx] = slotUsed
	return nil
}

// UseValue sets name's slot from value (spec.md §6.3).
//
// For a select-column/flag key (banks 1,2), value must be a bool: true
// is equivalent to Use(name); false is a no-op (these banks only ever
// hold None or Used, so there is nothing to clear); any other type is a
// MisuseOfReservedSlotError (spec.md §7).
//
// For a variable key (banks 3-5), a bool never carries a value: per
// spec.md §3, a boolean Used activation or an explicit false both
// collapse to None, since "a variable must carry a value to be
// considered active." Any non-bool value marks the slot Valued.
func (b *Builder) UseValue(name string, value any) error {
	idx, err := b.resolve(name)
	if err != nil {
		return err
	}
	bank := b.bp.Keys.BankOf(idx)

	if isFlagBank(bank) {
		boolVal, ok := value.(bool)
		if !ok {
			return &MisuseOfReservedSlotError{Name: name, Reason: "a select-column/flag key only accepts a bool via UseValue"}
		}
		if boolVal {
			b.state[idx] = slotUsed
		}
		return nil
	}

	if _, ok := value.(bool); ok {
		// true and false both collapse to None for a variable slot.
		b.state[idx] = slotAbsent
		b.values[idx] = nil
		return nil
	}
	b.state[idx] = slotValued
	b.values[idx] = value
	return nil
}

// Remove marks name absent, clearing any value it carried.
func (b *Builder) Remove(name string) error {
	idx, err := b.resolve(name)
	if err != nil {
		return err
	}
	b.state[idx] = slotAbsent
	b.values[idx] = nil
	return nil
}

// Reset clears every key back to absent.
func (b *Builder) Reset() {
	for i := range b.state {
		b.state[i] = slotAbsent
		b.values[i] = nil
	}
}

// ResetSelects clears only the select-column bank, leaving every other
// variable/flag untouched; useful when re-running the same Blueprint for
// a different dynamic projection over otherwise-identical filters.
func (b *Builder) ResetSelects() {
	for i := 0; i < b.bp.Keys.EndSelects(); i++ {
		b.state[i] = slotAbsent
	}
}

// isActive reports whether idx should be considered active for condition
// evaluation (spec.md §3, §4.6.1 step 1): a select-column/flag key is
// active once Used; a variable key is active only once it carries an
// actual value, never from a bare boolean activation.
func (b *Builder) isActive(idx int) bool {
	switch b.state[idx] {
	case slotValued:
		return true
	case slotUsed:
		return isFlagBank(b.bp.Keys.BankOf(idx))
	default:
		return false
	}
}

func (b *Builder) valueAt(idx int) any { return b.values[idx] }
