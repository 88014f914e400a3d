package blueprint

import (
	"github.com/dynsqlgo/dynsql/pkg/condition"
	"github.com/dynsqlgo/dynsql/pkg/handler"
	"github.com/dynsqlgo/dynsql/pkg/keyreg"
	"github.com/dynsqlgo/dynsql/pkg/lexer"
)

// registerKeys populates b.keys across all five banks, in bank order, so
// the registry's physical index space lines up with the bank boundaries
// keyreg.Registry.Freeze computes (SPEC_FULL.md §3.2). It must run before
// any segment is built, since segments resolve variable/flag names
// against already-registered keys.
func (b *builder) registerKeys() {
	b.registerSelectColumns()
	b.registerBareFlags()
	b.registerVariables()
	b.keys.Freeze()
}

// registerSelectColumns scans every dynamic "?SELECT" occurrence in the
// template and registers the union of their column keys, in first-overall-
// appearance order, into BankSelect.
func (b *builder) registerSelectColumns() {
	for i, t := range b.toks {
		if t.Type != lexer.DynamicSelectMarker {
			continue
		}
		lo, hi := b.selectBodyRange(i)
		for _, name := range extractColumnNames(b.toks, lo, hi) {
			b.keys.GetOrAdd(name, keyreg.BankSelect)
		}
	}
}

// selectBodyRange returns the token-index range of the column list that
// follows the SELECT keyword at or after markerIdx: from just past SELECT
// to the next depth-0 section keyword (or end of stream).
func (b *builder) selectBodyRange(markerIdx int) (lo, hi int) {
	i := markerIdx + 1
	for i < len(b.toks) && b.toks[i].Type != lexer.SectionKeyword {
		i++
	}
	lo = i + 1 // past the SELECT token itself
	hi = b.nextDepth0SectionKeyword(lo, len(b.toks))
	return lo, hi
}

// nextDepth0SectionKeyword returns the index of the next SectionKeyword
// token at paren/CASE depth 0 within [from, to), or to if none.
func (b *builder) nextDepth0SectionKeyword(from, to int) int {
	depth := 0
	caseDepth := 0
	for i := from; i < to; i++ {
		t := b.toks[i]
		switch t.Type {
		case lexer.ParenOpen:
			depth++
		case lexer.ParenClose:
			depth--
		case lexer.SectionKeyword:
			if t.Literal == "CASE" {
				caseDepth++
				continue
			}
			if t.Literal == "END" && caseDepth > 0 {
				caseDepth--
				continue
			}
			if depth == 0 && caseDepth == 0 {
				return i
			}
		}
	}
	return to
}

// registerBareFlags scans every condition marker in the template for
// unprefixed atoms and registers them into BankFlag, in first-appearance
// order.
func (b *builder) registerBareFlags() {
	for _, t := range b.toks {
		if t.Type != lexer.Comment {
			continue
		}
		for _, name := range condition.BareAtomNames(t.Literal, b.prefix) {
			b.keys.GetOrAdd(name, keyreg.BankFlag)
		}
	}
}

// registerVariables scans every @Var occurrence, determines its bank from
// whether (and how) it is ever used with a handler letter, and registers
// each bank's names in first-appearance order, one bank fully before the
// next (BankVariable, then BankSpecialHandler, then BankBaseHandler).
func (b *builder) registerVariables() {
	type seen struct {
		letter byte
	}
	byFold := make(map[string]*seen)
	var order []string

	for _, t := range b.toks {
		if t.Type != lexer.Variable {
			continue
		}
		foldKey := foldName(t.Literal)
		s, ok := byFold[foldKey]
		if !ok {
			s = &seen{}
			byFold[foldKey] = s
			order = append(order, t.Literal)
		}
		if s.letter == 0 && t.HandlerLetter != 0 {
			s.letter = t.HandlerLetter
		}
	}

	var variableNames, specialNames, baseNames []string
	for _, name := range order {
		s := byFold[foldName(name)]
		if s.letter == 0 {
			variableNames = append(variableNames, name)
			continue
		}
		h, ok := b.handlers.Lookup(s.letter)
		if !ok {
			b.errs = append(b.errs, &UnknownHandlerLetterError{Letter: s.letter, VarName: name})
			continue
		}
		if h.Kind() == handler.Special {
			specialNames = append(specialNames, name)
		} else {
			baseNames = append(baseNames, name)
		}
	}

	for _, name := range variableNames {
		b.keys.GetOrAdd(name, keyreg.BankVariable)
	}
	for _, name := range specialNames {
		b.keys.GetOrAdd(name, keyreg.BankSpecialHandler)
	}
	for _, name := range baseNames {
		b.keys.GetOrAdd(name, keyreg.BankBaseHandler)
	}
}

func foldName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}
