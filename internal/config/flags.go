package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagDataDir = flag.String("data", "", "Directory holding DAT containers")
	flagFormat  = flag.String("format", "", "Container pixel format (rgb555 or rgb565)")
	flagNoAlign = flag.Bool("no-align", false, "Do not right-align short overlay tables")
	flagLogFile = flag.String("logfile", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDataDir != "" {
		cfg.Data.Dir = *flagDataDir
	}
	if *flagFormat != "" {
		cfg.Data.PixelFormat = *flagFormat
	}
	if *flagNoAlign {
		cfg.Data.OverrideDifferences = false
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
