package keyreg

import "testing"

func TestGetOrAddFirstAppearanceWins(t *testing.T) {
	r := New()
	idx1 := r.GetOrAdd("Status", BankFlag)
	idx2 := r.GetOrAdd("status", BankVariable) // re-registration under a different bank
	if idx1 != idx2 {
		t.Fatalf("expected the same index for a case-insensitive re-registration, got %d and %d", idx1, idx2)
	}
	if r.BankOf(idx1) != BankFlag {
		t.Errorf("bank = %v, want BankFlag (first appearance wins)", r.BankOf(idx1))
	}
	if r.Name(idx1) != "Status" {
		t.Errorf("name = %q, want original-cased %q", r.Name(idx1), "Status")
	}
}

func TestIndexOfCaseInsensitive(t *testing.T) {
	r := New()
	want := r.GetOrAdd("UserId", BankVariable)
	got, ok := r.IndexOf("USERID")
	if !ok || got != want {
		t.Fatalf("IndexOf(%q) = (%d, %v), want (%d, true)", "USERID", got, ok, want)
	}
	if _, ok := r.IndexOf("Missing"); ok {
		t.Error("IndexOf of an unregistered name reported present")
	}
}

func TestFreezeBankBoundaries(t *testing.T) {
	r := New()
	r.GetOrAdd("col_a", BankSelect)
	r.GetOrAdd("col_b", BankSelect)
	r.GetOrAdd("IsActive", BankFlag)
	r.GetOrAdd("UserId", BankVariable)
	r.GetOrAdd("Name", BankVariable)
	r.GetOrAdd("Ids", BankSpecialHandler)
	r.GetOrAdd("Amount", BankBaseHandler)
	r.Freeze()

	if got := r.EndSelects(); got != 2 {
		t.Errorf("EndSelects() = %d, want 2", got)
	}
	if got := r.StartVariables(); got != 3 {
		t.Errorf("StartVariables() = %d, want 3", got)
	}
	if got := r.Count(); got != 7 {
		t.Errorf("Count() = %d, want 7", got)
	}
}

func TestFreezeIsIdempotent(t *testing.T) {
	r := New()
	r.GetOrAdd("a", BankFlag)
	r.Freeze()
	r.Freeze() // must not panic or recompute differently
	if got := r.EndSelects(); got != 0 {
		t.Errorf("EndSelects() = %d, want 0", got)
	}
}

func TestGetOrAddPanicsAfterFreeze(t *testing.T) {
	r := New()
	r.Freeze()
	defer func() {
		if recover() == nil {
			t.Error("expected GetOrAdd on a frozen Registry to panic")
		}
	}()
	r.GetOrAdd("too-late", BankFlag)
}

func TestNamesPreservesInsertionOrder(t *testing.T) {
	r := New()
	r.GetOrAdd("first", BankFlag)
	r.GetOrAdd("second", BankVariable)
	r.GetOrAdd("third", BankBaseHandler)

	got := r.Names()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Foo", "fOO") {
		t.Error("Equal(\"Foo\", \"fOO\") = false, want true")
	}
	if Equal("Foo", "Bar") {
		t.Error("Equal(\"Foo\", \"Bar\") = true, want false")
	}
}
