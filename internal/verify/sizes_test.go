package verify

import (
	"errors"
	"slices"
	"testing"

	"pfbverify/internal/config"
	"pfbverify/internal/services"
)

func TestComputeSizes(t *testing.T) {
	fb := config.Default().Filterbank
	sizes, err := ComputeSizes(fb)
	if err != nil {
		t.Fatalf("ComputeSizes: %v", err)
	}
	want := Sizes{
		Normalize:         14336,
		BlockSize:         12544,
		FFTSize:           25088,
		NSamples:          25088,
		OutputSampleShift: 1568,
		TotalSampleShift:  1608,
		Blocks:            2,
	}
	if sizes != want {
		t.Fatalf("sizes = %+v, want %+v", sizes, want)
	}
}

func TestComputeSizesInexact(t *testing.T) {
	fb := config.Default().Filterbank
	fb.InputFFTLength = 1001
	if _, err := ComputeSizes(fb); !errors.Is(err, services.ErrArithmeticDomain) {
		t.Fatalf("expected ErrArithmeticDomain, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		start, stop, n int
		want           []int
	}{
		{1, 10, 4, []int{1, 4, 7, 10}},
		{1, 25088, 3, []int{1, 12544, 25088}},
		{5, 9, 1, []int{5}},
		{1, 9, 0, nil},
	}
	for _, tt := range tests {
		if got := Linspace(tt.start, tt.stop, tt.n); !slices.Equal(got, tt.want) {
			t.Errorf("Linspace(%d, %d, %d) = %v, want %v", tt.start, tt.stop, tt.n, got, tt.want)
		}
	}
}

func TestCasePositions(t *testing.T) {
	sizes, err := ComputeSizes(config.Default().Filterbank)
	if err != nil {
		t.Fatal(err)
	}
	if got := sizes.TimeOffsets(1); !slices.Equal(got, []int{1618}) {
		t.Fatalf("single offset = %v", got)
	}
	if got := sizes.FreqBins(1); !slices.Equal(got, []int{2}) {
		t.Fatalf("single freq = %v", got)
	}
	if got := sizes.FreqBins(2); !slices.Equal(got, []int{2, 25088}) {
		t.Fatalf("freqs = %v", got)
	}
	if got := sizes.TimeOffsets(2); !slices.Equal(got, []int{1, 25088}) {
		t.Fatalf("offsets = %v", got)
	}
}
