// Package config handles tool configuration loading and management.
package config

// Config holds all reader and viewer settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig describes where DAT containers live and how to read them.
type DataConfig struct {
	// Dir is the directory holding the numbered DAT containers.
	Dir string `yaml:"dir"`
	// PixelFormat selects the container pixel layout: rgb555 or rgb565.
	PixelFormat string `yaml:"pixel_format"`
	// OverrideDifferences right-aligns overlay tables that are shorter
	// than the body table.
	OverrideDifferences bool `yaml:"override_differences"`
}

// ViewerConfig holds display settings for the viewer binary.
type ViewerConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:                 "GFX",
			PixelFormat:         "rgb555",
			OverrideDifferences: true,
		},
		Viewer: ViewerConfig{
			Width:  800,
			Height: 600,
			Scale:  2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
