// Package compare measures how closely two sample streams agree.
package compare

import (
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultRelativeTolerance matches the relative term of numpy.isclose.
const DefaultRelativeTolerance = 1e-5

// Options controls the closeness test |a-b| <= Absolute + Relative*|b|.
type Options struct {
	Absolute float64
	Relative float64
	// Spectral additionally compares the Fourier transforms of both streams.
	Spectral bool
}

// Result summarizes a comparison.
type Result struct {
	// Compared is the number of sample pairs examined.
	Compared int
	LengthA  int
	LengthB  int
	// Mean is the fraction of samples that are close; 1 means full agreement.
	Mean float64
	// Sum is the number of close samples.
	Sum            float64
	MaxAbsDiff     float64
	MeanAbsDiff    float64
	MaxSpectralAbs float64
}

// LengthMismatch reports whether the streams differed in length.
func (r Result) LengthMismatch() bool { return r.LengthA != r.LengthB }

// Equal reports whether every compared sample was close.
func (r Result) Equal() bool { return r.Compared > 0 && r.Mean == 1.0 && !r.LengthMismatch() }

// Compare tests a and b sample by sample. When lengths differ only the
// common prefix is compared.
func Compare(a, b []complex64, opts Options) Result {
	res := Result{LengthA: len(a), LengthB: len(b)}
	n := min(len(a), len(b))
	res.Compared = n
	if n == 0 {
		return res
	}

	hits := make([]float64, n)
	diff := make([]float64, n)
	for i := range n {
		av := complex128(a[i])
		bv := complex128(b[i])
		d := cmplx.Abs(av - bv)
		diff[i] = d
		if d <= opts.Absolute+opts.Relative*cmplx.Abs(bv) {
			hits[i] = 1
		}
	}
	res.Sum = f64.Sum(hits)
	res.Mean = stat.Mean(hits, nil)
	res.MaxAbsDiff = floats.Max(diff)
	res.MeanAbsDiff = stat.Mean(diff, nil)

	if opts.Spectral {
		res.MaxSpectralAbs = spectralMaxDiff(a[:n], b[:n])
	}
	return res
}

// Scale divides every sample of data by divisor, returning a new slice.
func Scale(data []complex64, divisor float64) []complex64 {
	if divisor == 0 {
		return append([]complex64(nil), data...)
	}
	re := make([]float64, len(data))
	im := make([]float64, len(data))
	for i, v := range data {
		re[i] = float64(real(v))
		im[i] = float64(imag(v))
	}
	f64.Scale(re, re, 1/divisor)
	f64.Scale(im, im, 1/divisor)
	out := make([]complex64, len(data))
	for i := range out {
		out[i] = complex(float32(re[i]), float32(im[i]))
	}
	return out
}

func spectralMaxDiff(a, b []complex64) float64 {
	n := len(a)
	fft := fourier.NewCmplxFFT(n)
	sa := fft.Coefficients(nil, widen(a))
	sb := fft.Coefficients(nil, widen(b))
	peak := 0.0
	for i := range sa {
		peak = math.Max(peak, cmplx.Abs(sa[i]-sb[i]))
	}
	return peak
}

func widen(v []complex64) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = complex128(x)
	}
	return out
}
