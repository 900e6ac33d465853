package core

import (
	"errors"
	"testing"
)

func TestDraftValidate(t *testing.T) {
	cases := []struct {
		d     Draft
		field string
		want  error
	}{
		{Draft{Name: "Coffee", Amount: "500", Category: Food}, "", nil},
		{Draft{Name: "", Amount: "100", Category: Food}, "name", ErrEmptyName},
		{Draft{Name: "Taxi", Amount: "", Category: Car}, "amount", ErrEmptyAmount},
		{Draft{Name: "", Amount: ""}, "name", ErrEmptyName},
		// Whitespace is not trimmed: only truly empty fields are rejected.
		{Draft{Name: " ", Amount: "abc"}, "", nil},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.want == nil {
			if err != nil {
				t.Fatalf("case %d expected ok, got %v", i, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("case %d expected ValidationError on %q, got %#v", i, tc.field, err)
		}
	}
}

func TestDraftClearedKeepsCategory(t *testing.T) {
	d := Draft{Name: "Taxi", Amount: "200", Category: Car}.Cleared()
	if d.Name != "" || d.Amount != "" || d.Category != Car {
		t.Fatalf("unexpected cleared draft: %#v", d)
	}
}

func TestNewDraftDefaultsToEntertainment(t *testing.T) {
	if got := NewDraft("").Category; got != Entertainment {
		t.Fatalf("expected Entertainment, got %q", got)
	}
	if got := NewDraft(Food).Category; got != Food {
		t.Fatalf("expected Food, got %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in    string
		out   Category
		known bool
	}{
		{"Entertainment", Entertainment, true},
		{"Car", Car, true},
		{"car", Category("car"), false},
		{"food", Category("food"), false},
		{" Food ", Category(" Food "), false},
		{"Rent", Category("Rent"), false},
		{"", Category(""), false},
	}
	for _, tc := range cases {
		got := ParseCategory(tc.in)
		if got != tc.out || got.Known() != tc.known {
			t.Fatalf("%q expected %q (known=%v), got %q (known=%v)", tc.in, tc.out, tc.known, got, got.Known())
		}
	}
}

func TestCategoryColor(t *testing.T) {
	cases := map[Category]string{
		Entertainment:    "lightblue",
		Car:              "lightgreen",
		Food:             "lightcoral",
		Category("Rent"): "gray",
		Category(""):     "gray",
	}
	for c, want := range cases {
		if got := c.Color(); got != want {
			t.Fatalf("%q expected %s, got %s", c, want, got)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	for _, d := range []Draft{{Amount: "1"}, {Name: "x"}} {
		var verr *ValidationError
		if !errors.As(d.Validate(), &verr) {
			t.Fatalf("Validate(%+v) did not return a ValidationError", d)
		}
		if verr.Message() != EmptyInputMessage {
			t.Errorf("Message() = %q, want %q", verr.Message(), EmptyInputMessage)
		}
	}
}
