package config

const (
	defaultBuildDir       = "./build"
	defaultConfigDir      = "./config"
	defaultDataDir        = "./data"
	defaultProductsDir    = "./products"
	defaultWorkDir        = "."
	defaultLogDir         = "~/.local/share/pfbverify/logs"
	defaultOSFactor       = "8/7"
	defaultChannels       = 8
	defaultInputFFTLength = 1792
	defaultInputOverlap   = 224
	defaultFFTWindow      = "tukey"
	defaultFIRFilterTaps  = 81
	defaultBlocks         = 2
	defaultBackend        = "matlab"
	defaultDspsrBinary    = "dspsr"
	defaultPsrdiffBinary  = "psrdiff"
	defaultPsrtxtBinary   = "psrtxt"
	defaultDumpStage      = "Detection"
	defaultThreshold      = 1e-7
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults. The filter
// coefficient and header template paths, and the pulsar DM and period, have
// no defaults and must come from the configuration file.
func Default() Config {
	return Config{
		Paths: Paths{
			BuildDir:    defaultBuildDir,
			ConfigDir:   defaultConfigDir,
			DataDir:     defaultDataDir,
			ProductsDir: defaultProductsDir,
			WorkDir:     defaultWorkDir,
			LogDir:      defaultLogDir,
		},
		Filterbank: Filterbank{
			OSFactor:       defaultOSFactor,
			Channels:       defaultChannels,
			InputFFTLength: defaultInputFFTLength,
			InputOverlap:   defaultInputOverlap,
			FFTWindow:      defaultFFTWindow,
			Deripple:       true,
			FIRFilterTaps:  defaultFIRFilterTaps,
			Blocks:         defaultBlocks,
		},
		Backend: Backend{
			TestVectors: defaultBackend,
			Channelize:  defaultBackend,
			Synthesize:  defaultBackend,
		},
		Dspsr: Dspsr{
			Binary:        defaultDspsrBinary,
			PsrdiffBinary: defaultPsrdiffBinary,
			PsrtxtBinary:  defaultPsrtxtBinary,
			DumpStage:     defaultDumpStage,
		},
		Verify: Verify{
			Threshold: defaultThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
