// Package handler implements the per-letter value-handler layer
// (SPEC_FULL.md §3.5): base handlers emit literal text, special handlers
// emit text and also register bound parameters.
package handler

import "fmt"

// Kind distinguishes a Base handler (text only) from a Special handler
// (text plus parameter bindings), the sum type spec.md §9 calls for.
type Kind int

const (
	Base Kind = iota
	Special
)

// Binding is one (name, value) pair a Special handler contributes to the
// render call's parameter-binding plan.
type Binding struct {
	Name  string
	Value any
}

// Handler is the contract every letter-indexed value handler implements.
// EmitText always runs; BindParams is only ever called for Special
// handlers and may be a no-op (returning nil, nil) for Base ones.
type Handler interface {
	Kind() Kind
	// EmitText returns the literal text to splice at the handler's
	// placement for the named variable's value. prefix is the template's
	// configured variable-prefix rune (default '@'), so a handler that
	// splices its own "@Var"-shaped placeholder text (e.g. the spread
	// handler) stays consistent with a non-default WithPrefix compile.
	EmitText(varName string, value any, prefix rune) (string, error)
	// BindParams returns the bindings a Special handler contributes.
	// Base handlers are never asked; implementations may simply return
	// (nil, nil).
	BindParams(varName string, value any) ([]Binding, error)
}

// BaseFunc adapts a plain text-emitting function into a Base Handler.
type BaseFunc func(varName string, value any, prefix rune) (string, error)

func (f BaseFunc) Kind() Kind { return Base }
func (f BaseFunc) EmitText(varName string, value any, prefix rune) (string, error) {
	return f(varName, value, prefix)
}
func (f BaseFunc) BindParams(string, any) ([]Binding, error) { return nil, nil }

// SpecialFunc adapts a function producing both text and bindings into a
// Special Handler.
type SpecialFunc func(varName string, value any, prefix rune) (string, []Binding, error)

func (f SpecialFunc) Kind() Kind { return Special }
func (f SpecialFunc) EmitText(varName string, value any, prefix rune) (string, error) {
	text, _, err := f(varName, value, prefix)
	return text, err
}
func (f SpecialFunc) BindParams(varName string, value any) ([]Binding, error) {
	_, bindings, err := f(varName, value, '@')
	return bindings, err
}

// TypeError is raised when a handler rejects the runtime type of a value
// (spec.md §7, HandlerTypeError).
type TypeError struct {
	Letter  byte
	VarName string
	Value   any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("handler %q rejects value of type %T for variable %q", string(e.Letter), e.Value, e.VarName)
}

// EmptyError is raised when a special handler variable is given an empty
// collection (spec.md §7, HandlerEmptyError). This applies to optional
// ("?@Var_X") variables too: an empty collection does not make their
// segment inactive, and rendering it fails with this error.
type EmptyError struct {
	Letter  byte
	VarName string
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("handler %q given an empty collection for required variable %q", string(e.Letter), e.VarName)
}
