package validate

import "testing"

func TestValidateRuleOrder(t *testing.T) {
	limits := DefaultLimits()
	cases := []struct {
		name   string
		input  string
		valid  bool
		reason Reason
	}{
		{"empty", "", false, ReasonEmpty},
		{"whitespace only", "   ", false, ReasonEmpty},
		{"scientific lowercase", "1e3", false, ReasonScientificNotation},
		{"scientific uppercase", "2E2", false, ReasonScientificNotation},
		{"scientific wins over negative", "-1e5", false, ReasonScientificNotation},
		{"not a number", "abc", false, ReasonNotANumber},
		{"double dot", "1.2.3", false, ReasonNotANumber},
		{"negative", "-5", false, ReasonNegative},
		{"negative wins over below min", "-0.01", false, ReasonNegative},
		{"zero below minimum", "0", false, ReasonBelowMinimum},
		{"below minimum", "0.5", false, ReasonBelowMinimum},
		{"just below minimum", "0.99", false, ReasonBelowMinimum},
		{"at minimum", "1", true, ReasonNone},
		{"at maximum", "100000", true, ReasonNone},
		{"just above maximum", "100000.01", false, ReasonAboveMaximum},
		{"three decimals", "123.456", false, ReasonTooManyDecimals},
		{"two decimals near max", "99999.99", true, ReasonNone},
		{"plain integer", "500", true, ReasonNone},
		{"padded input", " 500 ", true, ReasonNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.input, limits)
			if got.Valid != tc.valid {
				t.Fatalf("Validate(%q).Valid = %t, want %t", tc.input, got.Valid, tc.valid)
			}
			if got.Reason != tc.reason {
				t.Fatalf("Validate(%q).Reason = %q, want %q", tc.input, got.Reason, tc.reason)
			}
		})
	}
}

func TestValidateInBoundsScientificStillRejected(t *testing.T) {
	// "5e2" parses to 500 which is in bounds, but exponent entry is
	// rejected before any numeric interpretation.
	got := Validate("5e2", DefaultLimits())
	if got.Valid || got.Reason != ReasonScientificNotation {
		t.Fatalf("got %+v, want scientific_notation rejection", got)
	}
}

func TestNewLimits(t *testing.T) {
	limits, err := NewLimits("10", "5000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Validate("9.99", limits); got.Reason != ReasonBelowMinimum {
		t.Fatalf("below-min check against configured limits failed: %+v", got)
	}
	if got := Validate("5000.01", limits); got.Reason != ReasonAboveMaximum {
		t.Fatalf("above-max check against configured limits failed: %+v", got)
	}
	if _, err := NewLimits("abc", "100"); err == nil {
		t.Fatal("expected error for unparseable minimum")
	}
}

func TestReasonMessage(t *testing.T) {
	if msg := ReasonTooManyDecimals.Message(); msg == "" {
		t.Fatal("expected non-empty message for too_many_decimals")
	}
	if msg := ReasonNone.Message(); msg != "" {
		t.Fatalf("expected empty message for valid result, got %q", msg)
	}
}
