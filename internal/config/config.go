// Package config loads config.toml through viper and keeps it current.
package config

// AppName names the config, data and log directories
const AppName = "etcher-ng"

// Config is the user-editable configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Log         LogConfig      `mapstructure:"log"`
	Database    DatabaseConfig `mapstructure:"database"`
	Window      WindowConfig   `mapstructure:"window"`
	Protocol    ProtocolConfig `mapstructure:"protocol"`
	Instance    InstanceConfig `mapstructure:"instance"`
	Runtime     RuntimeConfig  `mapstructure:"runtime"`
}

// LogConfig configures the application logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File is relative to the data directory unless absolute. Empty disables it.
	File      string `mapstructure:"file"`
	MaxSizeKB int    `mapstructure:"max_size_kb"`
}

// DatabaseConfig locates the settings store
type DatabaseConfig struct {
	// Path is relative to the data directory unless absolute
	Path string `mapstructure:"path"`
}

// WindowConfig is the non-fullscreen window size
type WindowConfig struct {
	DefaultWidth  int `mapstructure:"default_width"`
	DefaultHeight int `mapstructure:"default_height"`
	MinWidth      int `mapstructure:"min_width"`
	MinHeight     int `mapstructure:"min_height"`
}

// ProtocolConfig names the custom URL scheme
type ProtocolConfig struct {
	Scheme   string `mapstructure:"scheme"`
	Register bool   `mapstructure:"register"`
}

// InstanceConfig names the single-instance lock
type InstanceConfig struct {
	ID         string `mapstructure:"id"`
	RuntimeDir string `mapstructure:"runtime_dir"`
}

// RuntimeConfig describes how the binary was built
type RuntimeConfig struct {
	// Packaged builds receive one leading runtime argument, development runs two
	Packaged bool `mapstructure:"packaged"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Log: LogConfig{
			Level:     "info",
			Format:    "console",
			File:      "main.log",
			MaxSizeKB: 100,
		},
		Database: DatabaseConfig{
			Path: "etcher-ng.db",
		},
		Window: WindowConfig{
			DefaultWidth:  800,
			DefaultHeight: 480,
			MinWidth:      632,
			MinHeight:     400,
		},
		Protocol: ProtocolConfig{
			Scheme:   "etcher",
			Register: true,
		},
		Instance: InstanceConfig{
			ID: "io.balena.etcher-ng",
		},
		Runtime: RuntimeConfig{
			Packaged: defaultPackaged,
		},
	}
}
