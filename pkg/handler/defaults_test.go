package handler

import "testing"

func TestNumericHandler(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{"int", 42, "42", false},
		{"int64", int64(-7), "-7", false},
		{"uint", uint(9), "9", false},
		{"float64", 3.5, "3.5", false},
		{"string rejected", "42", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumericHandler.EmitText("V", tt.value, '@')
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringLiteralHandlerEscapesQuotes(t *testing.T) {
	got, err := StringLiteralHandler.EmitText("V", "O'Brien", '@')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "'O''Brien'"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStringLiteralHandlerRejectsNonString(t *testing.T) {
	if _, err := StringLiteralHandler.EmitText("V", 5, '@'); err == nil {
		t.Error("expected a TypeError for a non-string value")
	}
}

func TestRawHandlerPassesThroughVerbatim(t *testing.T) {
	got, err := RawHandler.EmitText("V", "id > 5", '@')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "id > 5" {
		t.Errorf("got %q, want verbatim pass-through", got)
	}
}

func TestSpreadHandlerEmitsPlaceholdersAndBindings(t *testing.T) {
	text, bindings, err := SpreadHandler("Ids", []int{1, 2, 3}, '@')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "@Ids_1, @Ids_2, @Ids_3"; text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
	if len(bindings) != 3 {
		t.Fatalf("got %d bindings, want 3", len(bindings))
	}
	for i, b := range bindings {
		wantName := [3]string{"Ids_1", "Ids_2", "Ids_3"}[i]
		if b.Name != wantName {
			t.Errorf("bindings[%d].Name = %q, want %q", i, b.Name, wantName)
		}
		if b.Value != i+1 {
			t.Errorf("bindings[%d].Value = %v, want %v", i, b.Value, i+1)
		}
	}
}

func TestSpreadHandlerUsesConfiguredPrefix(t *testing.T) {
	text, _, err := SpreadHandler("Ids", []int{1, 2}, ':')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := ":Ids_1, :Ids_2"; text != want {
		t.Errorf("text = %q, want %q (placeholders must follow the compiled prefix, not a hardcoded '@')", text, want)
	}
}

func TestSpreadHandlerRejectsEmptyCollection(t *testing.T) {
	_, _, err := SpreadHandler("Ids", []int{}, '@')
	if err == nil {
		t.Fatal("expected an EmptyError for an empty slice")
	}
	if _, ok := err.(*EmptyError); !ok {
		t.Errorf("got error of type %T, want *EmptyError", err)
	}
}

func TestSpreadHandlerRejectsNonSlice(t *testing.T) {
	_, _, err := SpreadHandler("Ids", 5, '@')
	if err == nil {
		t.Fatal("expected a TypeError for a non-slice value")
	}
}

func TestKindsAreDistinguishable(t *testing.T) {
	if NumericHandler.Kind() != Base {
		t.Error("NumericHandler should be a Base handler")
	}
	if SpreadHandler.Kind() != Special {
		t.Error("SpreadHandler should be a Special handler")
	}
}
