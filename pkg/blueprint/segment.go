package blueprint

import "github.com/dynsqlgo/dynsql/pkg/condition"

// PartKind distinguishes the two kinds of content a Segment's skeleton is
// built from.
type PartKind int

const (
	PartLiteral PartKind = iota
	PartVariable
)

// Placement is a variable occurrence inside a segment: which key it reads
// from the render-time state, and which handler letter (if any) formats
// the value before splicing it into the text.
type Placement struct {
	KeyIndex int
	Name     string // the variable's exact spelling at this occurrence
	Letter   byte   // 0 for a plain @Var placeholder left untouched for the driver
	Optional bool
}

// Part is one piece of a Segment's precompiled output skeleton: either a
// literal run of text (already stripped of condition-marker/forced-
// boundary/context-join syntax, per SPEC_FULL.md §3.1) or a variable
// placement resolved at render time.
type Part struct {
	Kind      PartKind
	Literal   string
	Placement Placement
	// Excess marks the single trailing separator/operator part a segment
	// swallowed from the template (spec.md §4's excess-token bookkeeping).
	// The renderer drops it when this segment is the last active one in
	// its CleanupScope.
	Excess bool
}

// Segment is one contiguous, independently-activatable unit of template
// content (SPEC_FULL.md §3.3). Segments are stored in source order; the
// renderer walks them once, left to right.
type Segment struct {
	Parts []Part

	Condition *condition.Expr // nil/empty => unconditionally active
	Parent    int             // index into Blueprint.Segments, or -1 for a root segment

	CleanupScope int // index into Blueprint.Scopes

	// IsClauseKeyword marks a pseudo-segment standing in for a clause's
	// own leading keyword (e.g. the literal "WHERE"). Its activity is
	// driven not by Condition but by whether CleanupScope has at least
	// one other active segment (spec.md §4.6.2, "clause vanishes with
	// its body").
	IsClauseKeyword bool
	ClauseLiteral   string // the keyword text, when IsClauseKeyword is set

	// DynProjGroup is -1 on every segment the builder produces. Columns
	// of a dynamic projection joined with "&," are not numbered here; they
	// share one Segment whose Condition ORs their keys.
	DynProjGroup int
}

// Scope is one cleanup unit: a clause body (WHERE/HAVING/SET/ON/a column
// list/a sub-query's own clauses). Segments sharing a Scope are cleaned
// up together: the scope's keyword segment, if any, is dropped when no
// body segment in the scope ends up active.
type Scope struct {
	Kind   ScopeKind
	Parent int // enclosing segment index, or -1
}

type ScopeKind int

const (
	ScopeClause ScopeKind = iota
	ScopeColumnList
	ScopeSubquery
)
