package blueprint

import (
	"github.com/dynsqlgo/dynsql/pkg/condition"
	"github.com/dynsqlgo/dynsql/pkg/handler"
	"github.com/dynsqlgo/dynsql/pkg/keyreg"
	"github.com/dynsqlgo/dynsql/pkg/lexer"
)

// builder implements the segment builder (SPEC_FULL.md §3.3): a
// recursive-descent walk over the full token stream that produces an
// ordered, flat Segment list plus a Scope table, generalizing the
// teacher's two-token-lookahead AST walk from "build a statement tree"
// to "build a linear, conditionally-activatable segment tape."
type builder struct {
	toks     []lexer.Token
	parens   map[int]parenKind
	keys     *keyreg.Registry
	handlers *handler.Registry
	prefix   rune

	segs   []Segment
	scopes []Scope
	errs   []error
}

// regionEnd is the index just past the last meaningful token (the EOF
// token itself is never part of any scan range).
func (b *builder) regionEnd() int { return len(b.toks) - 1 }

// build runs the whole compile pipeline: key registration, then the
// recursive-descent region parse starting at the template root.
func (b *builder) build() {
	b.registerKeys()
	if len(b.errs) > 0 {
		return
	}
	b.checkParenBalance()
	if len(b.errs) > 0 {
		return
	}
	b.parseRegion(0, b.regionEnd(), -1)
}

func (b *builder) checkParenBalance() {
	depth := 0
	for i := 0; i < b.regionEnd(); i++ {
		switch b.toks[i].Type {
		case lexer.ParenOpen:
			depth++
		case lexer.ParenClose:
			depth--
			if depth < 0 {
				b.errs = append(b.errs, &TemplateSyntaxError{Position: b.toks[i].Position, Message: "unmatched ')'"})
				return
			}
		}
	}
	if depth != 0 {
		b.errs = append(b.errs, &TemplateSyntaxError{Position: b.toks[len(b.toks)-1].Position, Message: "unmatched '('"})
	}
}

// parseRegion walks [lo, hi) splitting it into clauses at depth-0 section
// keywords (CASE...END treated as opaque, per DESIGN.md's noted
// simplification) and parses each clause's body. parentIdx is the
// Segment every clause-keyword pseudo-segment and top-level item in this
// region inherits from (-1 at the template root).
func (b *builder) parseRegion(lo, hi, parentIdx int) {
	firstKw := b.nextDepth0SectionKeyword(lo, hi)
	if firstKw > lo {
		b.parseClause(-1, lo, firstKw, parentIdx)
	}
	i := firstKw
	for i < hi {
		kwIdx := i
		bodyLo := i + 1
		bodyHi := b.nextDepth0SectionKeyword(bodyLo, hi)
		if b.toks[kwIdx].Literal == "SELECT" {
			if markerIdx, ok := b.precedingDynMarker(kwIdx); ok {
				b.parseDynamicSelectClause(markerIdx, kwIdx, parentIdx)
				i = bodyHi
				continue
			}
		}
		b.parseClause(kwIdx, bodyLo, bodyHi, parentIdx)
		i = bodyHi
	}
}

// precedingDynMarker reports whether the SELECT keyword at kwIdx is
// immediately preceded (modulo whitespace) by a "?SELECT" marker, and if
// so returns that marker's token index.
func (b *builder) precedingDynMarker(kwIdx int) (int, bool) {
	for j := kwIdx - 1; j >= 0; j-- {
		t := b.toks[j]
		if t.Type == lexer.Ws {
			continue
		}
		if t.Type == lexer.DynamicSelectMarker {
			return j, true
		}
		return 0, false
	}
	return 0, false
}

func (b *builder) parseDynamicSelectClause(markerIdx, kwIdx, parentIdx int) {
	kwSeg := Segment{
		Parts:        []Part{{Kind: PartLiteral, Literal: b.toks[kwIdx].Literal}},
		Parent:       parentIdx,
		CleanupScope: -1,
		DynProjGroup: -1,
	}
	b.segs = append(b.segs, kwSeg)

	scopeID := len(b.scopes)
	b.scopes = append(b.scopes, Scope{Kind: ScopeColumnList, Parent: parentIdx})
	b.buildDynamicProjection(markerIdx, parentIdx, scopeID)
}

// parseClause handles one clause: an optional leading keyword (kwIdx, or
// -1 for a keyword-less prelude) followed by a body split into items.
func (b *builder) parseClause(kwIdx, bodyLo, bodyHi, parentIdx int) {
	scopeID := len(b.scopes)
	b.scopes = append(b.scopes, Scope{Kind: ScopeClause, Parent: parentIdx})

	if kwIdx >= 0 {
		kwSeg := Segment{
			IsClauseKeyword: true,
			ClauseLiteral:   b.toks[kwIdx].Literal,
			Parent:          parentIdx,
			CleanupScope:    scopeID,
			DynProjGroup:    -1,
		}
		b.segs = append(b.segs, kwSeg)
	}
	b.parseItems(bodyLo, bodyHi, parentIdx, scopeID)
}

// parseItems splits a clause body into items at depth-0 separators/logical
// operators, folding condition markers and implicit optional-variable
// conditions into each item's Expr as it goes.
func (b *builder) parseItems(lo, hi, parentIdx, scopeID int) {
	depth, caseDepth := 0, 0
	itemStart := lo
	combineOp := condition.And
	var atoms []condition.Atom
	var ops []condition.Op
	var parenStack []parenKind

	resolver := frozenResolver{keys: b.keys}

	flush := func(end int, hasExcess bool) {
		if end <= itemStart {
			itemStart = end
			atoms, ops = nil, nil
			combineOp = condition.And
			return
		}
		var expr *condition.Expr
		if len(atoms) > 0 {
			expr = &condition.Expr{Atoms: atoms, Ops: ops}
		}
		b.buildItemSegments(itemStart, end, parentIdx, scopeID, expr, hasExcess)
		atoms, ops = nil, nil
		combineOp = condition.And
	}

	for i := lo; i < hi; i++ {
		t := b.toks[i]
		switch t.Type {
		case lexer.ParenOpen:
			depth++
			parenStack = append(parenStack, b.parens[i])
		case lexer.ParenClose:
			depth--
			if len(parenStack) > 0 {
				parenStack = parenStack[:len(parenStack)-1]
			}
		case lexer.SectionKeyword:
			if t.Literal == "CASE" {
				caseDepth++
			} else if t.Literal == "END" && caseDepth > 0 {
				caseDepth--
			}
		}
		atDepth0 := depth == 0 && caseDepth == 0
		// A marker or optional variable inside a sub-query paren belongs to
		// that sub-query's own (recursively built) segment, never to this
		// item; buildItemSegments's recursive parseRegion call re-walks this
		// same range and folds it there instead (spec.md §4.3, invariant 7).
		// Functional parens keep folding outward, which is the growth
		// invariant 8 calls for.
		inSubquery := inAnySubquery(parenStack)

		switch {
		case atDepth0 && t.Type == lexer.ForcedBoundary:
			flush(i, false)
			itemStart = i + 1
			continue
		case atDepth0 && t.Type == lexer.LogicalOp:
			flush(i+1, true)
			itemStart = i + 1
			continue
		case atDepth0 && t.Type == lexer.ContextJoin:
			if t.Literal == "," || t.Literal == "AND" {
				combineOp = condition.And
			} else {
				combineOp = condition.Or
			}
			continue
		case t.Type == lexer.Comment && !inSubquery:
			expr, err := condition.Compile(t.Literal, b.prefix, resolver)
			if err != nil {
				if _, ok := err.(*condition.UnknownVariableError); ok {
					b.errs = append(b.errs, &UnknownVariableInMarkerError{Position: t.Position, Err: err})
				} else {
					b.errs = append(b.errs, &TemplateSyntaxError{Position: t.Position, Message: err.Error()})
				}
				continue
			}
			appendExpr(&atoms, &ops, expr, combineOp)
			combineOp = condition.And
		case t.Type == lexer.Variable && t.Optional && !inSubquery:
			idx, _ := b.keys.IndexOf(t.Literal)
			add := &condition.Expr{Atoms: []condition.Atom{{Name: t.Literal, RequireVar: true, KeyIndex: idx}}, Ops: []condition.Op{condition.Op(0)}}
			appendExpr(&atoms, &ops, add, combineOp)
			combineOp = condition.And
		}
	}
	flush(hi, false)
}

// inAnySubquery reports whether the current paren nesting (innermost last)
// contains a sub-query paren anywhere in it, not just at the top.
func inAnySubquery(stack []parenKind) bool {
	for _, k := range stack {
		if k == parenSubquery {
			return true
		}
	}
	return false
}

// appendExpr folds add's flat atom chain onto the accumulator, joining at
// the seam with joinOp. Both chains are already flat left-to-right
// (no-precedence) expressions, so concatenation with one extra operator
// at the seam reproduces the same evaluation order condition.Expr.Active
// would give a single compiled chain (SPEC_FULL.md §3.4).
func appendExpr(atoms *[]condition.Atom, ops *[]condition.Op, add *condition.Expr, joinOp condition.Op) {
	if add == nil || len(add.Atoms) == 0 {
		return
	}
	if len(*atoms) == 0 {
		*atoms = append(*atoms, add.Atoms...)
		*ops = append(*ops, add.Ops...)
		return
	}
	*atoms = append(*atoms, add.Atoms...)
	*ops = append(*ops, joinOp)
	if len(add.Ops) > 1 {
		*ops = append(*ops, add.Ops[1:]...)
	}
}

// buildItemSegments converts one item's token range into one or more
// Segments sharing expr/parentIdx/scopeID, splitting around any nested
// sub-query parens so the sub-query's own recursively-built segments can
// be interleaved at the correct source position (spec.md §4.3's "growth
// never crosses a sub-query boundary").
func (b *builder) buildItemSegments(lo, hi, parentIdx, scopeID int, expr *condition.Expr, hasExcess bool) {
	var parts []Part
	lastSegIdx := -1

	flush := func() {
		b.segs = append(b.segs, Segment{
			Parts:        parts,
			Condition:    expr,
			Parent:       parentIdx,
			CleanupScope: scopeID,
			DynProjGroup: -1,
		})
		lastSegIdx = len(b.segs) - 1
		parts = nil
	}

	for i := lo; i < hi; i++ {
		t := b.toks[i]
		if t.Type == lexer.ParenOpen && b.parens[i] == parenSubquery {
			parts = append(parts, Part{Kind: PartLiteral, Literal: "("})
			flush()
			closeIdx := b.matchingParen(i)
			b.parseRegion(i+1, closeIdx, lastSegIdx)
			parts = append(parts, Part{Kind: PartLiteral, Literal: ")"})
			i = closeIdx
			continue
		}
		if p, ok := b.partForToken(i); ok {
			parts = append(parts, p)
		}
	}
	if hasExcess && len(parts) > 0 {
		parts[len(parts)-1].Excess = true
	}
	flush()
}

func (b *builder) matchingParen(openIdx int) int {
	depth := 0
	for i := openIdx; i < len(b.toks); i++ {
		switch b.toks[i].Type {
		case lexer.ParenOpen:
			depth++
		case lexer.ParenClose:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(b.toks) - 1
}

// partForToken converts a single token into the Part the renderer should
// emit for it, or (false) if the token is pure template syntax (a
// condition marker, a forced boundary, a dynamic projection marker) that
// never produces output itself.
func (b *builder) partForToken(i int) (Part, bool) {
	t := b.toks[i]
	switch t.Type {
	case lexer.Comment, lexer.ForcedBoundary, lexer.DynamicSelectMarker, lexer.EOF, lexer.ILLEGAL:
		return Part{}, false
	case lexer.Variable:
		idx, _ := b.keys.IndexOf(t.Literal)
		return Part{Kind: PartVariable, Placement: Placement{KeyIndex: idx, Name: t.Literal, Letter: t.HandlerLetter, Optional: t.Optional}}, true
	default:
		// Text, Ws, StringLit, Keyword, SectionKeyword (only reachable here
		// inside an opaque CASE...END span), LogicalOp, ParenOpen/Close,
		// LiteralHint (already stripped of its "~" marker and delimiters),
		// ContextJoin (already canonicalised to "AND"/"OR"/"," by the lexer).
		return Part{Kind: PartLiteral, Literal: t.Literal}, true
	}
}

// partsForRange is the non-splitting counterpart of buildItemSegments,
// used where sub-query recursion is not a concern (dynamic projection
// column expressions).
func (b *builder) partsForRange(lo, hi int) []Part {
	var parts []Part
	for i := lo; i < hi; i++ {
		if p, ok := b.partForToken(i); ok {
			parts = append(parts, p)
		}
	}
	return parts
}

// frozenResolver adapts a frozen keyreg.Registry to condition.Resolver
// for the structural-parse pass, where every flag/variable name the
// condition compiler will encounter was already registered by the
// registerKeys prepass; ResolveFlag therefore never needs to mutate.
type frozenResolver struct {
	keys *keyreg.Registry
}

func (r frozenResolver) ResolveFlag(name string) int {
	idx, _ := r.keys.IndexOf(name)
	return idx
}

func (r frozenResolver) ResolveVariable(name string) (int, bool) {
	return r.keys.IndexOf(name)
}
