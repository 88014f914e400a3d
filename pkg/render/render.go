package render

import (
	"strings"

	"github.com/dynsqlgo/dynsql/pkg/blueprint"
	"github.com/dynsqlgo/dynsql/pkg/handler"
)

// Renderer walks a Blueprint's segment tape once, left to right, against
// a Builder's state (SPEC_FULL.md §3.6). It holds no state of its own
// and is safe to share across goroutines, same as the Blueprint it wraps.
type Renderer struct {
	bp *blueprint.Blueprint
}

// NewRenderer returns a Renderer bound to bp.
func NewRenderer(bp *blueprint.Blueprint) *Renderer {
	return &Renderer{bp: bp}
}

// Render evaluates every segment's activity against st, then emits the
// active ones in source order, returning the final SQL text and the
// parameter bindings any special handlers contributed.
func (r *Renderer) Render(st *Builder) (string, []handler.Binding, error) {
	segs := r.bp.Segments
	active := r.evaluateActivity(segs, st)
	scopeActive, lastActiveInScope := r.aggregateScopes(segs, active)

	for scopeID, sc := range r.bp.Scopes {
		if sc.Kind == blueprint.ScopeColumnList && !scopeActive[scopeID] {
			return "", nil, &blueprint.EmptyProjectionError{ScopeIndex: scopeID}
		}
	}

	buf := getBuffer()
	defer putBuffer(buf)
	var bindings []handler.Binding

	for i, s := range segs {
		if !active[i] {
			continue
		}
		if s.IsClauseKeyword {
			// The whitespace before a clause keyword belongs to the item
			// preceding it; when that item is dropped, keep the keyword
			// separated from the text emitted last.
			if out := buf.String(); out != "" && !strings.ContainsRune(" \t\r\n(", rune(out[len(out)-1])) {
				buf.WriteByte(' ')
			}
			buf.WriteString(s.ClauseLiteral)
			continue
		}
		for _, p := range s.Parts {
			if p.Excess && i == lastActiveInScope[s.CleanupScope] {
				continue
			}
			text, bs, err := r.emitPart(p, st)
			if err != nil {
				return "", nil, err
			}
			buf.WriteString(text)
			bindings = append(bindings, bs...)
		}
	}
	return buf.String(), bindings, nil
}

// evaluateActivity computes, per segment, whether its own condition
// holds and its parent chain is active. Clause-keyword pseudo-segments
// are left false here; aggregateScopes resolves them in a second pass
// since their activity depends on segments appended after them.
func (r *Renderer) evaluateActivity(segs []blueprint.Segment, st *Builder) []bool {
	active := make([]bool, len(segs))
	for i, s := range segs {
		if s.IsClauseKeyword {
			continue
		}
		a := s.Condition.Active(st.isActive)
		if s.Parent != -1 {
			a = a && active[s.Parent]
		}
		active[i] = a
	}
	return active
}

func (r *Renderer) aggregateScopes(segs []blueprint.Segment, active []bool) (scopeActive []bool, lastActiveInScope []int) {
	scopeActive = make([]bool, len(r.bp.Scopes))
	lastActiveInScope = make([]int, len(r.bp.Scopes))
	for i := range lastActiveInScope {
		lastActiveInScope[i] = -1
	}
	for i, s := range segs {
		if s.IsClauseKeyword || s.CleanupScope < 0 {
			continue
		}
		if active[i] {
			scopeActive[s.CleanupScope] = true
			lastActiveInScope[s.CleanupScope] = i
		}
	}
	for i, s := range segs {
		if !s.IsClauseKeyword {
			continue
		}
		a := true
		if s.CleanupScope >= 0 {
			a = scopeActive[s.CleanupScope]
		}
		if s.Parent != -1 {
			a = a && active[s.Parent]
		}
		active[i] = a
	}
	return scopeActive, lastActiveInScope
}

func (r *Renderer) emitPart(p blueprint.Part, st *Builder) (string, []handler.Binding, error) {
	if p.Kind == blueprint.PartLiteral {
		return p.Literal, nil, nil
	}
	pl := p.Placement
	if pl.Letter == 0 {
		return string(r.bp.Prefix) + pl.Name, nil, nil
	}
	if !st.isActive(pl.KeyIndex) {
		return "", nil, &HandlerMissingValueError{VarName: pl.Name, Letter: pl.Letter}
	}
	val := st.valueAt(pl.KeyIndex)
	h, ok := r.bp.Handlers.Lookup(pl.Letter)
	if !ok {
		return "", nil, &HandlerMissingValueError{VarName: pl.Name, Letter: pl.Letter}
	}
	text, err := h.EmitText(pl.Name, val, r.bp.Prefix)
	if err != nil {
		return "", nil, err
	}
	if h.Kind() != handler.Special {
		return text, nil, nil
	}
	bindings, err := h.BindParams(pl.Name, val)
	if err != nil {
		return "", nil, err
	}
	return text, bindings, nil
}
