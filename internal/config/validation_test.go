package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "bad environment", modify: func(c *Config) { c.Environment = "staging" }, wantErr: "environment must be"},
		{name: "bad level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "bad format", modify: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "negative log size", modify: func(c *Config) { c.Log.MaxSizeKB = -1 }, wantErr: "log.max_size_kb"},
		{name: "zero min size", modify: func(c *Config) { c.Window.MinWidth = 0 }, wantErr: "must be positive"},
		{name: "default below min", modify: func(c *Config) { c.Window.DefaultWidth = 500 }, wantErr: "window.default_width"},
		{name: "uppercase scheme", modify: func(c *Config) { c.Protocol.Scheme = "Etcher" }, wantErr: "protocol.scheme"},
		{name: "empty instance id", modify: func(c *Config) { c.Instance.ID = " " }, wantErr: "instance.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateConfigCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Format = "xml"
	cfg.Instance.ID = ""

	err := validateConfig(cfg)
	assert.ErrorContains(t, err, "log.format")
	assert.ErrorContains(t, err, "instance.id")
}
