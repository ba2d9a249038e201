package rational_test

import (
	"errors"
	"math"
	"testing"

	"pfbverify/internal/rational"
	"pfbverify/internal/services"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		num, den int
	}{
		{"8/7", 8, 7},
		{" 4/3 ", 4, 3},
		{"1", 1, 1},
		{"32/27", 32, 27},
	}
	for _, tc := range cases {
		r, err := rational.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.in, err)
		}
		if r.Numerator != tc.num || r.Denominator != tc.den {
			t.Fatalf("Parse(%q) = %v, want %d/%d", tc.in, r, tc.num, tc.den)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "a/b", "8/", "0/7", "8/0", "-8/7"} {
		if _, err := rational.Parse(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestNormalizeExact(t *testing.T) {
	r := rational.MustParse("8/7")
	for _, n := range []int{0, 7, 14, 16384 * 7, 7 * 1234} {
		got, err := r.Normalize(n)
		if err != nil {
			t.Fatalf("Normalize(%d) error: %v", n, err)
		}
		if want := n * 8 / 7; got != want {
			t.Fatalf("Normalize(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNormalizeProperty(t *testing.T) {
	for p := 1; p <= 9; p++ {
		for q := 1; q <= 9; q++ {
			r := rational.Ratio{Numerator: p, Denominator: q}
			for n := -20; n <= 200; n++ {
				got, err := r.Normalize(n)
				if (n*p)%q == 0 {
					if err != nil {
						t.Fatalf("%d/%d Normalize(%d) unexpected error: %v", p, q, n, err)
					}
					if got != n*p/q {
						t.Fatalf("%d/%d Normalize(%d) = %d, want %d", p, q, n, got, n*p/q)
					}
					continue
				}
				if !errors.Is(err, services.ErrArithmeticDomain) {
					t.Fatalf("%d/%d Normalize(%d) expected arithmetic domain error, got %v", p, q, n, err)
				}
			}
		}
	}
}

func TestNormalizeNeverTruncates(t *testing.T) {
	r := rational.MustParse("4/3")
	if _, err := r.Normalize(1000); !errors.Is(err, services.ErrArithmeticDomain) {
		t.Fatalf("expected arithmetic domain error, got %v", err)
	}
}

func TestNormalizeRejectsOverflow(t *testing.T) {
	r := rational.MustParse("8/7")
	for _, n := range []int{math.MaxInt/2 + 1, math.MinInt / 4, math.MinInt} {
		if _, err := r.Normalize(n); !errors.Is(err, services.ErrArithmeticDomain) {
			t.Fatalf("Normalize(%d) expected arithmetic domain error, got %v", n, err)
		}
	}
	n := 7 * (math.MaxInt / 64)
	got, err := r.Normalize(n)
	if err != nil {
		t.Fatalf("Normalize(%d) error: %v", n, err)
	}
	if want := 8 * (math.MaxInt / 64); got != want {
		t.Fatalf("Normalize(%d) = %d, want %d", n, got, want)
	}
}

func TestNormalizeRejectsNonPositiveLiterals(t *testing.T) {
	for _, r := range []rational.Ratio{{Numerator: 0, Denominator: 7}, {Numerator: -8, Denominator: 7}, {Numerator: 8}} {
		if _, err := r.Normalize(14); !errors.Is(err, services.ErrArithmeticDomain) {
			t.Fatalf("%v Normalize expected arithmetic domain error, got %v", r, err)
		}
	}
}

func TestFloatAndLabels(t *testing.T) {
	r := rational.MustParse("8/7")
	if got := r.Float64(); got < 1.1428 || got > 1.1429 {
		t.Fatalf("unexpected float %v", got)
	}
	if r.String() != "8/7" {
		t.Fatalf("unexpected string %q", r.String())
	}
	if r.FileLabel() != "8-7" {
		t.Fatalf("unexpected file label %q", r.FileLabel())
	}
}

func TestTextRoundTrip(t *testing.T) {
	var r rational.Ratio
	if err := r.UnmarshalText([]byte("4/3")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, err := r.MarshalText()
	if err != nil || string(text) != "4/3" {
		t.Fatalf("MarshalText = %q, %v", text, err)
	}
}
