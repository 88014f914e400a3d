package blueprint

import (
	"strings"

	"github.com/dynsqlgo/dynsql/pkg/condition"
	"github.com/dynsqlgo/dynsql/pkg/lexer"
)

// colItem is one comma-separated column expression inside a dynamic
// projection's column list, before any "&," OR-merging is applied.
type colItem struct {
	lo, hi int
	name   string
}

// splitColumnItems splits [lo, hi) into column items at depth-0 commas,
// reporting for each boundary whether it was a plain "," (independent
// columns) or a "&," context join (columns that co-occupy one slot and
// combine with OR, per spec.md §4.3).
func splitColumnItems(toks []lexer.Token, lo, hi int) (items []colItem, joins []bool) {
	depth := 0
	itemStart := lo
	for i := lo; i < hi; i++ {
		t := toks[i]
		switch t.Type {
		case lexer.ParenOpen:
			depth++
		case lexer.ParenClose:
			depth--
		case lexer.LogicalOp, lexer.ContextJoin:
			if depth != 0 || t.Literal != "," {
				continue
			}
			items = append(items, colItem{lo: itemStart, hi: i, name: deriveColumnName(toks, itemStart, i)})
			joins = append(joins, t.Type == lexer.ContextJoin)
			itemStart = i + 1
		}
	}
	if itemStart < hi {
		items = append(items, colItem{lo: itemStart, hi: hi, name: deriveColumnName(toks, itemStart, hi)})
	}
	return items, joins
}

// deriveColumnName derives a projection key name for a column expression:
// the alias after AS if present, otherwise the last identifier-ish token
// (a qualified column reference's final segment), skipping whitespace.
func deriveColumnName(toks []lexer.Token, lo, hi int) string {
	var lastIdent string
	for i := lo; i < hi; i++ {
		t := toks[i]
		if t.Type == lexer.Keyword && strings.EqualFold(t.Literal, "AS") {
			for j := i + 1; j < hi; j++ {
				if toks[j].Type == lexer.Text {
					return toks[j].Literal
				}
			}
		}
		if t.Type == lexer.Text {
			lastIdent = strings.TrimPrefix(t.Literal, ".")
			if dot := strings.LastIndexByte(t.Literal, '.'); dot >= 0 {
				lastIdent = t.Literal[dot+1:]
			}
		}
	}
	return lastIdent
}

// extractColumnNames returns the derived column names for every item in a
// dynamic projection's column list (skipping items whose name could not be
// derived, e.g. a bare "*"), for the key-registration prepass.
func extractColumnNames(toks []lexer.Token, lo, hi int) []string {
	items, _ := splitColumnItems(toks, lo, hi)
	var names []string
	for _, it := range items {
		if it.name != "" {
			names = append(names, it.name)
		}
	}
	return names
}

// buildDynamicProjection builds one Segment per (possibly "&,"-merged)
// projection column for the ?SELECT marker at markerIdx, registering
// them under parentSegIdx/scopeID.
func (b *builder) buildDynamicProjection(markerIdx, parentSegIdx, scopeID int) (regionEnd int) {
	lo, hi := b.selectBodyRange(markerIdx)
	items, joins := splitColumnItems(b.toks, lo, hi)

	i := 0
	for i < len(items) {
		group := []colItem{items[i]}
		for i < len(joins) && joins[i] {
			group = append(group, items[i+1])
			i++
		}
		b.appendProjectionGroup(group, parentSegIdx, scopeID)
		i++
	}
	return hi
}

func (b *builder) appendProjectionGroup(group []colItem, parentSegIdx, scopeID int) {
	expr := &condition.Expr{}
	var parts []Part
	for gi, it := range group {
		idx, ok := b.keys.IndexOf(it.name)
		if !ok {
			// Column name could not be derived (e.g. a bare "*"); such a
			// column is always rendered, uncontrollable by the caller.
			parts = append(parts, b.partsForRange(it.lo, it.hi)...)
			continue
		}
		op := condition.And
		if gi > 0 {
			op = condition.Or
			parts = append(parts, Part{Kind: PartLiteral, Literal: ", "})
		}
		if len(expr.Atoms) == 0 {
			expr.Atoms = append(expr.Atoms, condition.Atom{Name: it.name, RequireVar: true, KeyIndex: idx})
			expr.Ops = append(expr.Ops, condition.Op(0))
		} else {
			expr.Atoms = append(expr.Atoms, condition.Atom{Name: it.name, RequireVar: true, KeyIndex: idx})
			expr.Ops = append(expr.Ops, op)
		}
		parts = append(parts, b.partsForRange(it.lo, it.hi)...)
	}
	// The separator between this group and the next column group is
	// attached as a trailing excess part on THIS group, not a leading
	// part on the next one: per spec.md §4.6.1, "the preceding static
	// comma stays with the previous active segment," so the renderer's
	// ordinary last-active-in-scope cleanup (shared with every other
	// clause's trailing-separator handling) strips it exactly when this
	// group turns out to be the last active column, wherever it sits
	// textually.
	parts = append(parts, Part{Kind: PartLiteral, Literal: ", ", Excess: true})
	b.segs = append(b.segs, Segment{
		Parts:        parts,
		Condition:    expr,
		Parent:       parentSegIdx,
		CleanupScope: scopeID,
		DynProjGroup: -1,
	})
}
