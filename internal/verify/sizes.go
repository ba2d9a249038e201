package verify

import (
	"fmt"

	"pfbverify/internal/config"
	"pfbverify/internal/rational"
	"pfbverify/internal/services"
)

// Sizes are the sample counts derived from the filterbank configuration.
type Sizes struct {
	// Normalize divides the dspsr dump to match the reference amplitude.
	Normalize         int
	BlockSize         int
	FFTSize           int
	NSamples          int
	OutputSampleShift int
	TotalSampleShift  int
	Blocks            int
}

// ComputeSizes derives Sizes with exact rational arithmetic. A length the
// oversampling factor does not divide evenly is an ErrArithmeticDomain.
func ComputeSizes(fb config.Filterbank) (Sizes, error) {
	osFactor, err := rational.Parse(fb.OSFactor)
	if err != nil {
		return Sizes{}, services.Wrap(services.ErrConfiguration, "verify", "os_factor", fb.OSFactor, err)
	}
	fft, err := osFactor.Normalize(fb.InputFFTLength)
	if err != nil {
		return Sizes{}, fmt.Errorf("input_fft_length: %w", err)
	}
	overlap, err := osFactor.Normalize(fb.InputOverlap)
	if err != nil {
		return Sizes{}, fmt.Errorf("input_overlap: %w", err)
	}
	block := fft * fb.Channels
	shift := overlap * fb.Channels
	return Sizes{
		Normalize:         fb.InputFFTLength * fb.Channels,
		BlockSize:         block,
		FFTSize:           2 * block,
		NSamples:          block * fb.Blocks,
		OutputSampleShift: shift,
		TotalSampleShift:  shift + (fb.FIRFilterTaps-1)/2,
		Blocks:            fb.Blocks,
	}, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive,
// truncated to integers.
func Linspace(start, stop, n int) []int {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []int{start}
	}
	step := float64(stop-start) / float64(n-1)
	out := make([]int, n)
	for i := range n {
		out[i] = int(float64(i)*step + float64(start))
	}
	out[n-1] = stop
	return out
}

// TimeOffsets are the impulse positions for nTest cases. A single case
// places the impulse just past the filter and overlap transient.
func (s Sizes) TimeOffsets(nTest int) []int {
	if nTest == 1 {
		return []int{10 + s.TotalSampleShift}
	}
	return Linspace(1, s.NSamples, nTest)
}

// FreqBins are the sinusoid frequencies for nTest cases.
func (s Sizes) FreqBins(nTest int) []int {
	if nTest == 1 {
		return []int{s.Blocks}
	}
	bins := Linspace(1, s.BlockSize, nTest)
	for i := range bins {
		bins[i] *= s.Blocks
	}
	return bins
}
