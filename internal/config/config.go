package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"pfbverify/internal/rational"
	"pfbverify/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	BuildDir    string `toml:"build_dir"`
	ConfigDir   string `toml:"config_dir"`
	DataDir     string `toml:"data_dir"`
	ProductsDir string `toml:"products_dir"`
	WorkDir     string `toml:"work_dir"`
	LogDir      string `toml:"log_dir"`
}

// Filterbank describes the polyphase filterbank under test.
type Filterbank struct {
	OSFactor               string `toml:"os_factor"`
	Channels               int    `toml:"channels"`
	InputFFTLength         int    `toml:"input_fft_length"`
	InputOverlap           int    `toml:"input_overlap"`
	FFTWindow              string `toml:"fft_window"`
	Deripple               bool   `toml:"deripple"`
	FIRFilterTaps          int    `toml:"fir_filter_taps"`
	FIRFilterCoeffFilePath string `toml:"fir_filter_coeff_file_path"`
	HeaderFilePath         string `toml:"header_file_path"`
	Blocks                 int    `toml:"blocks"`
}

// Backend selects the implementation used for each data generation stage.
type Backend struct {
	TestVectors string `toml:"test_vectors"`
	Channelize  string `toml:"channelize"`
	Synthesize  string `toml:"synthesize"`
}

// Dspsr contains the production tool invocation parameters.
type Dspsr struct {
	Binary        string  `toml:"binary"`
	PsrdiffBinary string  `toml:"psrdiff_binary"`
	PsrtxtBinary  string  `toml:"psrtxt_binary"`
	DM            float64 `toml:"dm"`
	Period        float64 `toml:"period"`
	DumpStage     string  `toml:"dump_stage"`
	ExtraArgs     string  `toml:"extra_args"`
}

// Verify contains comparison settings.
type Verify struct {
	Threshold float64 `toml:"threshold"`
	ReportDB  string  `toml:"report_db"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Profile overrides a subset of the filterbank settings. Zero values leave
// the base setting untouched.
type Profile struct {
	OSFactor       string `toml:"os_factor"`
	Channels       int    `toml:"channels"`
	InputFFTLength int    `toml:"input_fft_length"`
	InputOverlap   int    `toml:"input_overlap"`
	FFTWindow      string `toml:"fft_window"`
	Deripple       *bool  `toml:"deripple"`
	FIRFilterTaps  int    `toml:"fir_filter_taps"`
	FIRFilterCoeff string `toml:"fir_filter_coeff_file_path"`
	Blocks         int    `toml:"blocks"`
}

// Config encapsulates all configuration values for pfbverify.
//
// Configuration sections by subsystem:
//   - Paths: build, config, data, products, work and log directories
//   - Filterbank: oversampling ratio, channel count, FFT and FIR parameters
//   - Backend: which implementation produces each data generation stage
//   - Dspsr: production tool binaries and pulsar parameters
//   - Verify: comparison tolerance and report database
//   - Logging: log format and level
//   - Profiles: named filterbank overrides selected at startup
type Config struct {
	Paths      Paths              `toml:"paths"`
	Filterbank Filterbank         `toml:"filterbank"`
	Backend    Backend            `toml:"backend"`
	Dspsr      Dspsr              `toml:"dspsr"`
	Verify     Verify             `toml:"verify"`
	Logging    Logging            `toml:"logging"`
	Profiles   map[string]Profile `toml:"profiles"`

	profile string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pfbverify/config.toml")
}

// Load locates, parses, and validates a configuration file. When profile is
// non-empty the named [profiles] entry is applied over [filterbank] before
// validation. The returned config has all path fields expanded.
func Load(path, profile string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.ApplyProfile(profile); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "normalize", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pfbverify.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ApplyProfile overlays the named profile onto the filterbank section.
func (c *Config) ApplyProfile(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return services.Wrap(services.ErrConfiguration, "config", "profile",
			fmt.Sprintf("profile %q is not defined", name), nil)
	}
	fb := &c.Filterbank
	if p.OSFactor != "" {
		fb.OSFactor = p.OSFactor
	}
	if p.Channels != 0 {
		fb.Channels = p.Channels
	}
	if p.InputFFTLength != 0 {
		fb.InputFFTLength = p.InputFFTLength
	}
	if p.InputOverlap != 0 {
		fb.InputOverlap = p.InputOverlap
	}
	if p.FFTWindow != "" {
		fb.FFTWindow = p.FFTWindow
	}
	if p.Deripple != nil {
		fb.Deripple = *p.Deripple
	}
	if p.FIRFilterTaps != 0 {
		fb.FIRFilterTaps = p.FIRFilterTaps
	}
	if p.FIRFilterCoeff != "" {
		fb.FIRFilterCoeffFilePath = p.FIRFilterCoeff
	}
	if p.Blocks != 0 {
		fb.Blocks = p.Blocks
	}
	c.profile = name
	return nil
}

// Profile returns the name of the applied profile, if any.
func (c *Config) Profile() string {
	return c.profile
}

// EnsureDirectories creates the directories pipelines write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ProductsDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OSFactor returns the parsed oversampling ratio. Validate guarantees it parses.
func (c *Config) OSFactor() rational.Ratio {
	r, err := rational.Parse(c.Filterbank.OSFactor)
	if err != nil {
		return rational.Ratio{Numerator: 1, Denominator: 1}
	}
	return r
}

// FIRFilterPath resolves the filter coefficient file against the config directory.
func (c *Config) FIRFilterPath() string {
	return c.resolveConfigFile(c.Filterbank.FIRFilterCoeffFilePath)
}

// HeaderTemplatePath resolves the DADA header template against the config directory.
func (c *Config) HeaderTemplatePath() string {
	return c.resolveConfigFile(c.Filterbank.HeaderFilePath)
}

// BuildBinary returns the path of a MATLAB-compiled tool in the build directory.
func (c *Config) BuildBinary(name string) string {
	return filepath.Join(c.Paths.BuildDir, name)
}

// ReportDBPath returns the SQLite database used for verification reports.
func (c *Config) ReportDBPath() string {
	if strings.TrimSpace(c.Verify.ReportDB) != "" {
		return c.Verify.ReportDB
	}
	return filepath.Join(c.Paths.ProductsDir, "reports.db")
}

func (c *Config) resolveConfigFile(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.ConfigDir, path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
