package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirPerm = 0o755

// GetConfigDir returns $XDG_CONFIG_HOME/etcher-ng, falling back to the OS config dir
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// GetDataDir returns $XDG_DATA_HOME/etcher-ng, falling back to the config dir
// on platforms without an XDG data home
func GetDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err == nil && isXDGPlatform() {
		return filepath.Join(home, ".local", "share", AppName), nil
	}
	return GetConfigDir()
}

// GetConfigFile returns the path of config.toml
func GetConfigFile() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDirectories creates the config and data directories
func EnsureDirectories() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, dataDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// resolvePath makes a relative path absolute against base
func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(base, path)
}
