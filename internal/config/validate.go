package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"pfbverify/internal/rational"
	"pfbverify/internal/services"
)

// Validate ensures the configuration is usable. Every failure is tagged with
// services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateRequired,
		c.validateFilterbank,
		c.validateBackend,
		c.validateDspsr,
		c.validateVerify,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validateRequired() error {
	missing := make([]string, 0)
	for name, present := range map[string]bool{
		"filterbank.fir_filter_coeff_file_path": c.Filterbank.FIRFilterCoeffFilePath != "",
		"filterbank.header_file_path":           c.Filterbank.HeaderFilePath != "",
		"filterbank.os_factor":                  c.Filterbank.OSFactor != "",
		"dspsr.dump_stage":                      c.Dspsr.DumpStage != "",
		"dspsr.dm":                              c.Dspsr.DM != 0,
		"dspsr.period":                          c.Dspsr.Period != 0,
	} {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/pfbverify/config.toml"
	}
	return fmt.Errorf("required fields missing: %s (edit %s, create with 'pfbverify config init')",
		strings.Join(missing, ", "), defaultPath)
}

func (c *Config) validateFilterbank() error {
	osFactor, err := rational.Parse(c.Filterbank.OSFactor)
	if err != nil {
		return fmt.Errorf("filterbank.os_factor: %w", err)
	}
	if err := ensurePositiveMap(map[string]int{
		"filterbank.channels":         c.Filterbank.Channels,
		"filterbank.input_fft_length": c.Filterbank.InputFFTLength,
		"filterbank.blocks":           c.Filterbank.Blocks,
		"filterbank.fir_filter_taps":  c.Filterbank.FIRFilterTaps,
	}); err != nil {
		return err
	}
	if c.Filterbank.InputOverlap < 0 {
		return errors.New("filterbank.input_overlap must not be negative")
	}
	if _, err := osFactor.Normalize(c.Filterbank.InputFFTLength); err != nil {
		return fmt.Errorf("filterbank.input_fft_length incompatible with os_factor %s: %w", osFactor, err)
	}
	if _, err := osFactor.Normalize(c.Filterbank.InputOverlap); err != nil {
		return fmt.Errorf("filterbank.input_overlap incompatible with os_factor %s: %w", osFactor, err)
	}
	return nil
}

func (c *Config) validateBackend() error {
	for name, value := range map[string]string{
		"backend.test_vectors": c.Backend.TestVectors,
		"backend.channelize":   c.Backend.Channelize,
		"backend.synthesize":   c.Backend.Synthesize,
	} {
		if value != "matlab" {
			return fmt.Errorf("%s: unsupported backend %q (only \"matlab\" is executable)", name, value)
		}
	}
	return nil
}

func (c *Config) validateDspsr() error {
	if c.Dspsr.DM < 0 {
		return errors.New("dspsr.dm must not be negative")
	}
	if c.Dspsr.Period < 0 {
		return errors.New("dspsr.period must not be negative")
	}
	return nil
}

func (c *Config) validateVerify() error {
	if c.Verify.Threshold <= 0 {
		return errors.New("verify.threshold must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if values[name] <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
