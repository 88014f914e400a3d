package handler

import "testing"

func TestNewDefaultRegistryHasReferenceHandlers(t *testing.T) {
	r := NewDefaultRegistry()
	tests := []struct {
		letter byte
		kind   Kind
	}{
		{'N', Base},
		{'S', Base},
		{'R', Base},
		{'X', Special},
	}
	for _, tt := range tests {
		h, ok := r.Lookup(tt.letter)
		if !ok {
			t.Fatalf("letter %q not registered", string(tt.letter))
		}
		if h.Kind() != tt.kind {
			t.Errorf("letter %q kind = %v, want %v", string(tt.letter), h.Kind(), tt.kind)
		}
	}
}

func TestRegisterLowercaseSharesSlotWithUppercase(t *testing.T) {
	r := NewRegistry()
	r.Register('z', RawHandler)
	h, ok := r.Lookup('Z')
	if !ok {
		t.Fatal("expected lowercase registration to be visible under the uppercase letter")
	}
	got, err := h.EmitText("V", "pass-through", '@')
	if err != nil || got != "pass-through" {
		t.Errorf("got (%q, %v), want (%q, nil)", got, err, "pass-through")
	}
}

func TestLookupMissingLetter(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup('Q'); ok {
		t.Error("Lookup of an unregistered letter reported present")
	}
}

func TestLookupRejectsNonLetter(t *testing.T) {
	r := NewDefaultRegistry()
	if _, ok := r.Lookup('1'); ok {
		t.Error("Lookup of a non-letter byte reported present")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewDefaultRegistry()
	clone := r.Clone()

	r.Register('N', RawHandler) // mutate the original after cloning; RawHandler accepts strings, NumericHandler does not

	h, _ := clone.Lookup('N')
	if _, err := h.EmitText("V", "not a number", '@'); err == nil {
		t.Error("clone's 'N' handler accepted a string; it should still be the numeric handler, unaffected by the later mutation")
	}
}

func TestDefaultRegistryIsProcessWide(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same process-wide instance every call")
	}
}
