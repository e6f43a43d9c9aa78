// Package settings is the typed model over the settings store that the
// frontend and the window controller read user preferences from.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	repoerrors "etcherng/internal/infrastructure/errors"
	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/repository"
)

// Names of the known boolean settings
const (
	Fullscreen       = "fullscreen"
	Verify           = "verify"
	AutoBlockmapping = "autoBlockmapping"
	DecompressFirst  = "decompressFirst"
)

var defaults = map[string]bool{
	Fullscreen:       false,
	Verify:           true,
	AutoBlockmapping: true,
	DecompressFirst:  true,
}

// Names returns the known setting names, sorted
func Names() []string {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in value of name
func Default(name string) (bool, bool) {
	v, ok := defaults[name]
	return v, ok
}

// Model reads and writes the known settings
type Model struct {
	repo   repository.SettingsRepository
	logger logging.Logger
}

// New creates a model over repo
func New(repo repository.SettingsRepository, logger logging.Logger) *Model {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Model{repo: repo, logger: logger}
}

// Get returns the stored value of name, or its default when never set or unreadable
func (m *Model) Get(ctx context.Context, name string) (bool, error) {
	def, ok := defaults[name]
	if !ok {
		return false, repoerrors.HandleValidationError("Get", "name", name, "unknown setting")
	}

	raw, err := m.repo.Get(ctx, name)
	if repoerrors.IsNotFound(err) {
		return def, nil
	}
	if err != nil {
		return def, err
	}

	var value bool
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		m.logger.Warn("Ignoring malformed setting value", "name", name, "value", raw)
		return def, nil
	}
	return value, nil
}

// Set stores value under name
func (m *Model) Set(ctx context.Context, name string, value bool) error {
	if _, ok := defaults[name]; !ok {
		return repoerrors.HandleValidationError("Set", "name", name, "unknown setting")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}
	if err := m.repo.Set(ctx, name, string(raw)); err != nil {
		return err
	}
	m.logger.Info("Setting changed", "name", name, "value", value)
	return nil
}

// All returns every known setting with defaults applied
func (m *Model) All(ctx context.Context) (map[string]bool, error) {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		v, err := m.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
