package blueprint

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dynsqlgo/dynsql/pkg/keyreg"
)

func TestCompileSimpleTemplate(t *testing.T) {
	bp, err := Compile("SELECT * FROM users WHERE /*IsActive*/ active = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.Prefix != '@' {
		t.Errorf("Prefix = %q, want '@'", bp.Prefix)
	}
	if bp.Keys.Count() != 1 {
		t.Fatalf("Keys.Count() = %d, want 1 (IsActive)", bp.Keys.Count())
	}
	if bp.Keys.BankOf(0) != keyreg.BankFlag {
		t.Errorf("bank of IsActive = %v, want BankFlag", bp.Keys.BankOf(0))
	}
}

func TestCompileRegistersBanksInOrder(t *testing.T) {
	tmpl := `?SELECT id, name FROM users WHERE /*ShowArchived*/ archived = 1
		AND @UserId = id AND @Ids_X AND @Amount_N > 0`
	bp, err := Compile(tmpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idIdx, ok := bp.Keys.IndexOf("id")
	if !ok || bp.Keys.BankOf(idIdx) != keyreg.BankSelect {
		t.Errorf("expected %q in BankSelect", "id")
	}
	flagIdx, ok := bp.Keys.IndexOf("ShowArchived")
	if !ok || bp.Keys.BankOf(flagIdx) != keyreg.BankFlag {
		t.Errorf("expected %q in BankFlag", "ShowArchived")
	}
	varIdx, ok := bp.Keys.IndexOf("UserId")
	if !ok || bp.Keys.BankOf(varIdx) != keyreg.BankVariable {
		t.Errorf("expected %q in BankVariable", "UserId")
	}
	specialIdx, ok := bp.Keys.IndexOf("Ids")
	if !ok || bp.Keys.BankOf(specialIdx) != keyreg.BankSpecialHandler {
		t.Errorf("expected %q in BankSpecialHandler", "Ids")
	}
	baseIdx, ok := bp.Keys.IndexOf("Amount")
	if !ok || bp.Keys.BankOf(baseIdx) != keyreg.BankBaseHandler {
		t.Errorf("expected %q in BankBaseHandler", "Amount")
	}

	if idIdx >= flagIdx || flagIdx >= varIdx || varIdx >= specialIdx || specialIdx >= baseIdx {
		t.Errorf("bank index order violated: id=%d flag=%d var=%d special=%d base=%d",
			idIdx, flagIdx, varIdx, specialIdx, baseIdx)
	}
}

func TestCompileFirstNonZeroHandlerLetterWinsAcrossOccurrences(t *testing.T) {
	// A plain, letter-less occurrence and a lettered occurrence of the same
	// variable share one key; the first non-zero handler letter seen across
	// all occurrences decides its bank, regardless of which occurrence is
	// textually first.
	bp, err := Compile("SELECT * FROM t WHERE @Name = a OR @Name_N = b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, ok := bp.Keys.IndexOf("Name")
	if !ok {
		t.Fatal("Name not registered")
	}
	if bp.Keys.BankOf(idx) != keyreg.BankBaseHandler {
		t.Errorf("bank = %v, want BankBaseHandler ('N' is a base handler letter)", bp.Keys.BankOf(idx))
	}
}

func TestCompileUnmatchedParenIsSyntaxError(t *testing.T) {
	_, err := Compile("SELECT * FROM t WHERE (a = 1")
	if err == nil {
		t.Fatal("expected a TemplateSyntaxError for an unmatched '('")
	}
	if _, ok := err.(*TemplateSyntaxError); !ok {
		t.Fatalf("got error of type %T, want *TemplateSyntaxError", err)
	}
}

func TestCompileUnmatchedClosingParenIsSyntaxError(t *testing.T) {
	_, err := Compile("SELECT * FROM t WHERE a = 1)")
	if err == nil {
		t.Fatal("expected a TemplateSyntaxError for an unmatched ')'")
	}
}

func TestCompileUnknownHandlerLetter(t *testing.T) {
	_, err := Compile("SELECT * FROM t WHERE x = @Name_Q")
	if err == nil {
		t.Fatal("expected an UnknownHandlerLetterError")
	}
	if _, ok := err.(*UnknownHandlerLetterError); !ok {
		t.Fatalf("got error of type %T, want *UnknownHandlerLetterError", err)
	}
}

func TestCompileUnknownVariableInMarker(t *testing.T) {
	_, err := Compile("SELECT * FROM t WHERE /*@Missing*/ x = 1")
	if err == nil {
		t.Fatal("expected an UnknownVariableInMarkerError")
	}
	if _, ok := err.(*UnknownVariableInMarkerError); !ok {
		t.Fatalf("got error of type %T, want *UnknownVariableInMarkerError", err)
	}
}

func TestCompileSegmentParentsPrecedeTheirChildren(t *testing.T) {
	bp, err := Compile("SELECT * FROM t WHERE a = 1 AND b = 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range bp.Segments {
		if s.Parent >= i {
			t.Errorf("segment %d has Parent %d, which is not strictly earlier", i, s.Parent)
		}
	}
}

func TestCompileSubqueryParensDoNotFlattenIntoParentItem(t *testing.T) {
	tmpl := "SELECT * FROM t WHERE id IN (SELECT id FROM u WHERE /*Active*/ active = 1)"
	bp, err := Compile(tmpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The sub-query's WHERE clause must open its own ScopeClause, distinct
	// from the outer WHERE's scope.
	clauseScopes := 0
	for _, sc := range bp.Scopes {
		if sc.Kind == ScopeClause {
			clauseScopes++
		}
	}
	if clauseScopes < 2 {
		t.Fatalf("got %d ScopeClause entries, want at least 2 (outer WHERE + sub-query WHERE)", clauseScopes)
	}
}

func TestCompilePrefixOption(t *testing.T) {
	bp, err := Compile("SELECT * FROM t WHERE x = :Name", WithPrefix(':'))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bp.Prefix != ':' {
		t.Errorf("Prefix = %q, want ':'", bp.Prefix)
	}
	if _, ok := bp.Keys.IndexOf("Name"); !ok {
		t.Error("expected Name to be registered as a variable under the ':' prefix")
	}
}

func TestCompileDynamicSelectCreatesColumnListScope(t *testing.T) {
	bp, err := Compile("?SELECT id, name, email FROM users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, sc := range bp.Scopes {
		if sc.Kind == ScopeColumnList {
			found = true
		}
	}
	if !found {
		t.Error("expected a ScopeColumnList scope for the dynamic projection")
	}
	for _, name := range []string{"id", "name", "email"} {
		if _, ok := bp.Keys.IndexOf(name); !ok {
			t.Errorf("expected column %q to be registered", name)
		}
	}
}

func TestCompileRegistersKeysInOverallFirstAppearanceOrderWithinEachBank(t *testing.T) {
	// Blueprint-shape assertion over the full ordered key list, the kind
	// of ordered-slice comparison go-cmp is wired in
	// for (SPEC_FULL.md §1's test-tooling entry): two independently
	// derived orderings must agree exactly, not just set-equal.
	tmpl := `?SELECT id, name FROM users WHERE /*ShowArchived*/ archived = 1
		AND @UserId = id AND @Ids_X AND @Amount_N > 0`
	bp, err := Compile(tmpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"id", "name", "ShowArchived", "UserId", "Ids", "Amount"}
	got := bp.Keys.Names()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("key registration order mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileCaseExpressionIsOpaque(t *testing.T) {
	// CASE...END is treated as opaque literal text: no section keyword
	// inside it should terminate the enclosing clause's item, and no
	// segment should be produced purely for a WHEN/THEN/ELSE branch.
	tmpl := "SELECT CASE WHEN a = 1 THEN 'x' ELSE 'y' END"
	bp, err := Compile(tmpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bp.Scopes) != 1 {
		t.Errorf("got %d scopes, want 1 (CASE...END must not open new clause scopes)", len(bp.Scopes))
	}
}
