// Package condition compiles and evaluates the linear, no-precedence
// boolean expressions that appear inside /*...*/ markers (SPEC_FULL.md
// §3.4, §6.1). The grammar is:
//
//	expr := atom (('&' | '|') atom)*
//	atom := (prefix)? ident
//
// evaluated strictly left-to-right as ((A op B) op C) ..., never with
// operator precedence.
package condition

import (
	"fmt"
	"strings"
)

// Op is the join operator between two consecutive atoms.
type Op int

const (
	opNone Op = iota // placeholder for the (missing) operator before atom 0
	And
	Or
)

// Atom is one key reference inside a condition expression.
type Atom struct {
	Name       string // as written, prefix stripped
	RequireVar bool   // true if written with a leading prefix rune (an "@atom")
	KeyIndex   int
}

// Expr is a compiled condition expression. The empty expression (no
// atoms) is always TRUE, per spec.md §3.
type Expr struct {
	Atoms []Atom
	Ops   []Op // len(Ops) == len(Atoms); Ops[0] is unused (opNone)
}

// Empty reports whether the expression has no atoms (always true).
func (e *Expr) Empty() bool { return e == nil || len(e.Atoms) == 0 }

// Active evaluates the expression given an isActive predicate over key
// indices, left to right with no operator precedence.
func (e *Expr) Active(isActive func(keyIndex int) bool) bool {
	if e.Empty() {
		return true
	}
	result := isActive(e.Atoms[0].KeyIndex)
	for i := 1; i < len(e.Atoms); i++ {
		v := isActive(e.Atoms[i].KeyIndex)
		switch e.Ops[i] {
		case And:
			result = result && v
		case Or:
			result = result || v
		}
	}
	return result
}

// Resolver registers/looks up the keys a condition expression refers to.
// The blueprint package's key registry implements this.
type Resolver interface {
	// ResolveFlag registers (or finds) a bare, unprefixed atom as a bank-2
	// flag key and returns its index.
	ResolveFlag(name string) int
	// ResolveVariable looks up a prefixed ("@atom") atom, which must
	// already be registered as a variable elsewhere in the template.
	ResolveVariable(name string) (int, bool)
}

// Compile parses the body of a /*...*/ marker (with the comment delimiters
// already stripped) into an Expr, registering/resolving atoms against r.
// prefix is the template's configured variable-prefix rune.
func Compile(body string, prefix rune, r Resolver) (*Expr, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return &Expr{}, nil
	}

	tokens, err := tokenizeExpr(body, prefix)
	if err != nil {
		return nil, err
	}

	expr := &Expr{}
	expectAtom := true
	for _, t := range tokens {
		if expectAtom {
			if t.isOp {
				return nil, fmt.Errorf("condition %q: expected atom, got operator %q", body, t.text)
			}
			atom := Atom{Name: t.text, RequireVar: t.requireVar}
			if t.requireVar {
				idx, ok := r.ResolveVariable(t.text)
				if !ok {
					return nil, &UnknownVariableError{Name: t.text, Expr: body}
				}
				atom.KeyIndex = idx
			} else {
				atom.KeyIndex = r.ResolveFlag(t.text)
			}
			expr.Atoms = append(expr.Atoms, atom)
			if len(expr.Ops) < len(expr.Atoms) {
				expr.Ops = append(expr.Ops, opNone)
			}
			expectAtom = false
		} else {
			if !t.isOp {
				return nil, fmt.Errorf("condition %q: expected '&' or '|', got atom %q", body, t.text)
			}
			op := And
			if t.text == "|" {
				op = Or
			}
			expr.Ops = append(expr.Ops, op)
			expectAtom = true
		}
	}
	if expectAtom {
		return nil, fmt.Errorf("condition %q: dangling operator at end of expression", body)
	}
	return expr, nil
}

// UnknownVariableError is raised when a /*@Var*/ atom references a
// variable absent from the rest of the template (spec.md §7).
type UnknownVariableError struct {
	Name string
	Expr string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("condition %q references unknown variable %q", e.Expr, e.Name)
}

// BareAtomNames returns the unprefixed ("bare flag") atom names referenced
// by a condition body, in first-appearance order, without registering or
// resolving anything. The blueprint package's key-registration prepass
// uses this to populate bank 2 before any segment is built (SPEC_FULL.md
// §3.2's registration-order requirement). It returns nil when the body
// is not a well-formed expression.
func BareAtomNames(body string, prefix rune) []string {
	tokens, err := tokenizeExpr(strings.TrimSpace(body), prefix)
	if err != nil {
		return nil
	}
	var names []string
	for i, t := range tokens {
		if t.isOp != (i%2 == 1) {
			return nil
		}
		if !t.isOp && !t.requireVar {
			names = append(names, t.text)
		}
	}
	if len(tokens)%2 == 0 {
		return nil
	}
	return names
}

type exprToken struct {
	text       string
	isOp       bool
	requireVar bool
}

func tokenizeExpr(body string, prefix rune) ([]exprToken, error) {
	var out []exprToken
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '|' || c == '&':
			out = append(out, exprToken{text: string(c), isOp: true})
			i++
		default:
			start := i
			requireVar := false
			if rune(c) == prefix {
				requireVar = true
				i++
				start = i
			}
			if i >= len(body) || !isIdentStart(rune(body[i])) {
				return nil, fmt.Errorf("condition %q: expected identifier at offset %d", body, start)
			}
			for i < len(body) && isIdentCont(rune(body[i])) {
				i++
			}
			out = append(out, exprToken{text: body[start:i], requireVar: requireVar})
		}
	}
	return out, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
