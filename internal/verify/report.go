package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pfbverify/internal/compare"
	"pfbverify/internal/reportstore"
)

// ReportFileName is written into the products directory.
const ReportFileName = "report.matlab_dspsr.json"

// Suites.
const (
	SuiteTime            = "time"
	SuiteFreq            = "freq"
	SuiteSimulatedPulsar = "simulated_pulsar"
)

// CaseResult is the outcome of one compared signal.
type CaseResult struct {
	Suite          string  `json:"-"`
	Offset         *int    `json:"offset,omitempty"`
	Freq           *int    `json:"freq,omitempty"`
	Mean           float64 `json:"mean"`
	Sum            float64 `json:"sum"`
	Str            string  `json:"str"`
	Compared       int     `json:"compared"`
	LengthMismatch bool    `json:"length_mismatch,omitempty"`
	MaxAbsDiff     float64 `json:"max_abs_diff"`
	MaxSpectralAbs float64 `json:"max_spectral_abs_diff,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Label names the case in logs and the report store.
func (c CaseResult) Label() string {
	switch {
	case c.Offset != nil:
		return fmt.Sprintf("offset=%d", *c.Offset)
	case c.Freq != nil:
		return fmt.Sprintf("freq=%d", *c.Freq)
	default:
		return c.Suite
	}
}

// Passed reports whether the case ran and every sample agreed.
func (c CaseResult) Passed() bool {
	return c.Error == "" && !c.LengthMismatch && c.Compared > 0 && c.Mean == 1.0
}

func (c *CaseResult) apply(res compare.Result) {
	c.Mean = res.Mean
	c.Sum = res.Sum
	c.Compared = res.Compared
	c.LengthMismatch = res.LengthMismatch()
	c.MaxAbsDiff = res.MaxAbsDiff
	c.MaxSpectralAbs = res.MaxSpectralAbs
	c.Str = fmt.Sprintf("mean=%.6e sum=%.6e", res.Mean, res.Sum)
}

// Report collects every case of one verification run.
type Report struct {
	RunID           string       `json:"run_id"`
	Profile         string       `json:"profile,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
	Sizes           Sizes        `json:"-"`
	TimeImpulse     []CaseResult `json:"test_time_domain_impulse,omitempty"`
	ComplexSinusoid []CaseResult `json:"test_complex_sinusoid,omitempty"`
	SimulatedPulsar []CaseResult `json:"test_simulated_pulsar,omitempty"`
}

// Cases returns every case in suite order.
func (r *Report) Cases() []CaseResult {
	out := make([]CaseResult, 0, len(r.TimeImpulse)+len(r.ComplexSinusoid)+len(r.SimulatedPulsar))
	out = append(out, r.TimeImpulse...)
	out = append(out, r.ComplexSinusoid...)
	return append(out, r.SimulatedPulsar...)
}

// Passed reports whether every case passed.
func (r *Report) Passed() bool {
	for _, c := range r.Cases() {
		if !c.Passed() {
			return false
		}
	}
	return true
}

// Status classifies the run for the report store.
func (r *Report) Status() string {
	status := reportstore.StatusPassed
	for _, c := range r.Cases() {
		if c.Error != "" {
			return reportstore.StatusError
		}
		if !c.Passed() {
			status = reportstore.StatusFailed
		}
	}
	return status
}

// WriteJSON writes the report into dir and returns the file path.
func (r *Report) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create products dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Record converts the report for persistence.
func (r *Report) Record(osFactor string, channels, fft, overlap int, threshold float64) reportstore.Run {
	run := reportstore.Run{
		ID:             r.RunID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Profile:        r.Profile,
		OSFactor:       osFactor,
		Channels:       channels,
		InputFFTLength: fft,
		InputOverlap:   overlap,
		Threshold:      threshold,
		Status:         r.Status(),
	}
	for _, c := range r.Cases() {
		rec := reportstore.Case{
			Suite:        c.Suite,
			Label:        c.Label(),
			Mean:         c.Mean,
			Sum:          c.Sum,
			Compared:     c.Compared,
			MaxAbsDiff:   c.MaxAbsDiff,
			Passed:       c.Passed(),
			ErrorMessage: c.Error,
		}
		switch {
		case c.Offset != nil:
			rec.Parameter = c.Offset
		case c.Freq != nil:
			rec.Parameter = c.Freq
		}
		run.Cases = append(run.Cases, rec)
	}
	return run
}
