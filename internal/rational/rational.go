// Package rational provides the exact fraction type used to scale sample
// counts by oversampling ratios.
//
// Normalize refuses inexact divisions instead of truncating them: a rounded
// block or overlap size would silently misalign the buffers of the two
// implementations being compared.
package rational

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"pfbverify/internal/services"
)

// Ratio is a positive fraction Numerator/Denominator.
type Ratio struct {
	Numerator   int
	Denominator int
}

// New validates and constructs a Ratio.
func New(numerator, denominator int) (Ratio, error) {
	if numerator <= 0 || denominator <= 0 {
		return Ratio{}, services.Wrap(services.ErrValidation, "rational", "new",
			fmt.Sprintf("ratio terms must be positive, got %d/%d", numerator, denominator), nil)
	}
	return Ratio{Numerator: numerator, Denominator: denominator}, nil
}

// Parse accepts "a/b". A bare integer "a" is read as a/1.
func Parse(text string) (Ratio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Ratio{}, services.Wrap(services.ErrValidation, "rational", "parse", "empty ratio", nil)
	}
	numText, denText, found := strings.Cut(text, "/")
	if !found {
		denText = "1"
	}
	num, err := strconv.Atoi(strings.TrimSpace(numText))
	if err != nil {
		return Ratio{}, services.Wrap(services.ErrValidation, "rational", "parse",
			fmt.Sprintf("invalid numerator in %q", text), err)
	}
	den, err := strconv.Atoi(strings.TrimSpace(denText))
	if err != nil {
		return Ratio{}, services.Wrap(services.ErrValidation, "rational", "parse",
			fmt.Sprintf("invalid denominator in %q", text), err)
	}
	return New(num, den)
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Ratio {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// Normalize returns n*Numerator/Denominator, failing with
// services.ErrArithmeticDomain when the product is not evenly divisible or
// does not fit in an int.
func (r Ratio) Normalize(n int) (int, error) {
	if r.Numerator <= 0 || r.Denominator <= 0 {
		return 0, services.Wrap(services.ErrArithmeticDomain, "rational", "normalize",
			fmt.Sprintf("invalid ratio %d/%d", r.Numerator, r.Denominator), nil)
	}
	mag := uint64(n)
	if n < 0 {
		mag = -mag
	}
	if hi, lo := bits.Mul64(mag, uint64(r.Numerator)); hi != 0 || lo > math.MaxInt {
		return 0, services.Wrap(services.ErrArithmeticDomain, "rational", "normalize",
			fmt.Sprintf("%d * %d overflows", n, r.Numerator), nil)
	}
	product := n * r.Numerator
	if product%r.Denominator != 0 {
		return 0, services.Wrap(services.ErrArithmeticDomain, "rational", "normalize",
			fmt.Sprintf("%d * %s is not an integer", n, r), nil)
	}
	return product / r.Denominator, nil
}

// Float64 is a lossy conversion intended for display and scaling of floating
// point payloads only.
func (r Ratio) Float64() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// String renders "a/b".
func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// FileLabel renders "a-b", the form used inside output file names.
func (r Ratio) FileLabel() string {
	return fmt.Sprintf("%d-%d", r.Numerator, r.Denominator)
}

// UnmarshalText lets a Ratio be decoded directly from configuration strings.
func (r *Ratio) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalText renders the ratio as "a/b".
func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
