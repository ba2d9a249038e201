package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeDspsr()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.build_dir", &c.Paths.BuildDir},
		{"paths.config_dir", &c.Paths.ConfigDir},
		{"paths.data_dir", &c.Paths.DataDir},
		{"paths.products_dir", &c.Paths.ProductsDir},
		{"paths.work_dir", &c.Paths.WorkDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"verify.report_db", &c.Verify.ReportDB},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Filterbank.OSFactor = strings.TrimSpace(c.Filterbank.OSFactor)
	c.Filterbank.FFTWindow = strings.TrimSpace(c.Filterbank.FFTWindow)
	c.Filterbank.FIRFilterCoeffFilePath = strings.TrimSpace(c.Filterbank.FIRFilterCoeffFilePath)
	c.Filterbank.HeaderFilePath = strings.TrimSpace(c.Filterbank.HeaderFilePath)
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.TestVectors = strings.ToLower(strings.TrimSpace(c.Backend.TestVectors))
	c.Backend.Channelize = strings.ToLower(strings.TrimSpace(c.Backend.Channelize))
	c.Backend.Synthesize = strings.ToLower(strings.TrimSpace(c.Backend.Synthesize))
}

func (c *Config) normalizeDspsr() {
	c.Dspsr.Binary = strings.TrimSpace(c.Dspsr.Binary)
	if value, ok := os.LookupEnv("DSPSR_BIN"); ok && strings.TrimSpace(value) != "" {
		c.Dspsr.Binary = strings.TrimSpace(value)
	}
	if c.Dspsr.Binary == "" {
		c.Dspsr.Binary = defaultDspsrBinary
	}
	c.Dspsr.PsrdiffBinary = strings.TrimSpace(c.Dspsr.PsrdiffBinary)
	if c.Dspsr.PsrdiffBinary == "" {
		c.Dspsr.PsrdiffBinary = defaultPsrdiffBinary
	}
	c.Dspsr.PsrtxtBinary = strings.TrimSpace(c.Dspsr.PsrtxtBinary)
	if c.Dspsr.PsrtxtBinary == "" {
		c.Dspsr.PsrtxtBinary = defaultPsrtxtBinary
	}
	c.Dspsr.DumpStage = strings.TrimSpace(c.Dspsr.DumpStage)
	c.Dspsr.ExtraArgs = strings.TrimSpace(c.Dspsr.ExtraArgs)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
