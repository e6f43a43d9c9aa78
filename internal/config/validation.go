package config

import (
	"fmt"
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateEnvironment(config)...)
	validationErrors = append(validationErrors, validateLog(config)...)
	validationErrors = append(validationErrors, validateWindow(config)...)
	validationErrors = append(validationErrors, validateProtocol(config)...)
	validationErrors = append(validationErrors, validateInstance(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}
	return nil
}

func validateEnvironment(config *Config) []string {
	switch config.Environment {
	case "production", "development", "test":
		return nil
	default:
		return []string{fmt.Sprintf("environment must be production, development or test, got %q", config.Environment)}
	}
}

func validateLog(config *Config) []string {
	var validationErrors []string
	switch strings.ToLower(config.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("log.level %q is not a known level", config.Log.Level))
	}
	switch config.Log.Format {
	case "console", "json":
	default:
		validationErrors = append(validationErrors, "log.format must be console or json")
	}
	if config.Log.MaxSizeKB < 0 {
		validationErrors = append(validationErrors, "log.max_size_kb must be non-negative")
	}
	return validationErrors
}

func validateWindow(config *Config) []string {
	var validationErrors []string
	w := config.Window
	if w.MinWidth <= 0 || w.MinHeight <= 0 {
		validationErrors = append(validationErrors, "window.min_width and window.min_height must be positive")
	}
	if w.DefaultWidth < w.MinWidth {
		validationErrors = append(validationErrors, "window.default_width must be at least window.min_width")
	}
	if w.DefaultHeight < w.MinHeight {
		validationErrors = append(validationErrors, "window.default_height must be at least window.min_height")
	}
	return validationErrors
}

func validateProtocol(config *Config) []string {
	if !schemePattern.MatchString(config.Protocol.Scheme) {
		return []string{fmt.Sprintf("protocol.scheme %q is not a valid URL scheme", config.Protocol.Scheme)}
	}
	return nil
}

func validateInstance(config *Config) []string {
	if strings.TrimSpace(config.Instance.ID) == "" {
		return []string{"instance.id cannot be empty"}
	}
	return nil
}
