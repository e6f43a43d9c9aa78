package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"etcherng/internal/infrastructure/logging"
)

// Manager loads, validates and watches the configuration
type Manager struct {
	config    *Config
	viper     *viper.Viper
	configDir string
	dataDir   string
	logger    logging.Logger
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// Option customises a Manager
type Option func(*Manager)

// WithDirs overrides the config and data directories
func WithDirs(configDir, dataDir string) Option {
	return func(m *Manager) {
		m.configDir = configDir
		m.dataDir = dataDir
	}
}

// WithLogger sets the logger used for reload diagnostics
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{viper: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewDefaultLogger()
	}

	if m.configDir == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config directory: %w", err)
		}
		m.configDir = dir
	}
	if m.dataDir == "" {
		dir, err := GetDataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine data directory: %w", err)
		}
		m.dataDir = dir
	}

	v := m.viper
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(m.configDir)

	// ETCHER_LOG_LEVEL, ETCHER_WINDOW_DEFAULT_WIDTH, ...
	v.SetEnvPrefix("ETCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("environment", "ETCHER_ENV"); err != nil {
		return nil, fmt.Errorf("failed to bind ETCHER_ENV: %w", err)
	}

	return m, nil
}

// Load reads config.toml, writing the defaults first if it does not exist
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, dir := range []string{m.configDir, m.dataDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to ensure directory %s: %w", dir, err)
		}
	}

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}
	return m.reload()
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config file at %s: %w", m.ConfigFile(), err)
	}

	if err := m.viper.SafeWriteConfigAs(m.ConfigFile()); err != nil {
		return fmt.Errorf("failed to create default config at %s: %w", m.ConfigFile(), err)
	}
	m.logger.Info("Created default configuration file", "path", m.ConfigFile())

	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read newly created config file: %w", err)
	}
	return nil
}

// reload decodes viper's state into a fresh Config. Must hold m.mu for write.
func (m *Manager) reload() error {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", m.ConfigFile(), err)
	}

	config.Log.File = resolvePath(m.dataDir, config.Log.File)
	config.Database.Path = resolvePath(m.dataDir, config.Database.Path)
	config.Protocol.Scheme = strings.ToLower(strings.TrimSuffix(config.Protocol.Scheme, "://"))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	d := DefaultConfig()
	v := m.viper

	v.SetDefault("environment", d.Environment)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_kb", d.Log.MaxSizeKB)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("window.default_width", d.Window.DefaultWidth)
	v.SetDefault("window.default_height", d.Window.DefaultHeight)
	v.SetDefault("window.min_width", d.Window.MinWidth)
	v.SetDefault("window.min_height", d.Window.MinHeight)

	v.SetDefault("protocol.scheme", d.Protocol.Scheme)
	v.SetDefault("protocol.register", d.Protocol.Register)

	v.SetDefault("instance.id", d.Instance.ID)
	v.SetDefault("instance.runtime_dir", d.Instance.RuntimeDir)

	v.SetDefault("runtime.packaged", d.Runtime.Packaged)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// ConfigFile returns the path of config.toml
func (m *Manager) ConfigFile() string {
	if used := m.viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(m.configDir, "config.toml")
}

// DataDir is where the settings store and log file live
func (m *Manager) DataDir() string {
	return m.dataDir
}

// OnConfigChange registers a callback run after every successful reload
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Watch reloads the configuration whenever config.toml changes on disk
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.logger.Debug("Config file changed", "op", e.Op.String(), "file", e.Name)

		m.mu.Lock()
		if err := m.reload(); err != nil {
			m.mu.Unlock()
			m.logger.Warn("Keeping previous configuration", "error", err)
			return
		}
		config := m.config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		for _, callback := range callbacks {
			callback(config)
		}
	})
	m.viper.WatchConfig()
	m.watching = true
}
