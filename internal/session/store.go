// Package session persists the main window placement between runs.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	repoerrors "etcherng/internal/infrastructure/errors"
	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/repository"
)

// Key is the settings store key holding the window session
const Key = "windowDetails"

// WindowSession is the persisted window state, {"position":[x,y]}
type WindowSession struct {
	Position [2]int `json:"position"`
}

// Store loads and saves the window session
type Store struct {
	repo   repository.SettingsRepository
	logger logging.Logger
}

// NewStore creates a store over repo
func NewStore(repo repository.SettingsRepository, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Store{repo: repo, logger: logger}
}

// Load returns the saved session, or nil when none was saved. A record that
// cannot be decoded is treated as absent.
func (s *Store) Load(ctx context.Context) (*WindowSession, error) {
	raw, err := s.repo.Get(ctx, Key)
	if repoerrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ws WindowSession
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		s.logger.Warn("Discarding unreadable window session", "value", raw, "error", err)
		return nil, nil
	}
	return &ws, nil
}

// Save overwrites the stored session
func (s *Store) Save(ctx context.Context, ws WindowSession) error {
	raw, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode window session: %w", err)
	}
	if err := s.repo.Set(ctx, Key, string(raw)); err != nil {
		return err
	}
	s.logger.Debug("Window session saved", "x", ws.Position[0], "y", ws.Position[1])
	return nil
}

// Clear forgets the stored session
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, Key)
}
