// Package window owns the main window handle: its geometry, its lifecycle
// state and the capture of its placement into the session store.
package window

import (
	"context"
	"fmt"
	"sync"

	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/session"
	"etcherng/internal/settings"
)

// State of the main window
type State int

const (
	Uninitialized State = iota
	Created
	Shown
	Closing
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Created:
		return "created"
	case Shown:
		return "shown"
	case Closing:
		return "closing"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Display reports the size of the primary display
type Display interface {
	PrimaryDisplaySize() (width, height int, ok bool)
}

// Surface is a live native window
type Surface interface {
	Display
	Position() (x, y int)
	SetPosition(x, y int)
	SetSize(width, height int)
	Show()
	// Restore unminimises, shows and focuses the window
	Restore()
}

// SessionStore is satisfied by *session.Store
type SessionStore interface {
	Load(ctx context.Context) (*session.WindowSession, error)
	Save(ctx context.Context, ws session.WindowSession) error
}

// SettingReader is satisfied by *settings.Model
type SettingReader interface {
	Get(ctx context.Context, name string) (bool, error)
}

// Config holds the fallback window size
type Config struct {
	DefaultWidth  int
	DefaultHeight int
	MinWidth      int
	MinHeight     int
}

// DefaultConfig is 800x480 with a 632x400 minimum
func DefaultConfig() Config {
	return Config{
		DefaultWidth:  800,
		DefaultHeight: 480,
		MinWidth:      632,
		MinHeight:     400,
	}
}

// Geometry is the size the window is created with
type Geometry struct {
	Width      int
	Height     int
	MinWidth   int
	MinHeight  int
	Fullscreen bool
}

// Controller drives the main window through its states
type Controller struct {
	cfg      Config
	store    SessionStore
	settings SettingReader
	logger   logging.Logger

	mu      sync.Mutex
	state   State
	surface Surface
}

// NewController creates a controller in the Uninitialized state
func NewController(cfg Config, store SessionStore, settingsReader SettingReader, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if cfg.DefaultWidth <= 0 || cfg.DefaultHeight <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		cfg:      cfg,
		store:    store,
		settings: settingsReader,
		logger:   logger,
	}
}

// Geometry computes the window size. With the fullscreen setting on, the
// primary display size is used when display can report it.
func (c *Controller) Geometry(ctx context.Context, display Display) Geometry {
	g := Geometry{
		Width:     c.cfg.DefaultWidth,
		Height:    c.cfg.DefaultHeight,
		MinWidth:  c.cfg.MinWidth,
		MinHeight: c.cfg.MinHeight,
	}

	fullscreen, err := c.settings.Get(ctx, settings.Fullscreen)
	if err != nil {
		c.logger.Warn("Could not read fullscreen setting, using default size", "error", err)
		return g
	}
	g.Fullscreen = fullscreen
	if !fullscreen || display == nil {
		return g
	}

	if w, h, ok := display.PrimaryDisplaySize(); ok {
		g.Width, g.Height = w, h
	}
	return g
}

// Created binds the live surface, applies the fullscreen size and restores
// the stored position. Without a stored session the OS placement is kept.
func (c *Controller) Created(ctx context.Context, surface Surface) error {
	if surface == nil {
		return fmt.Errorf("window created without a surface")
	}

	c.mu.Lock()
	if c.state != Uninitialized {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("window already %s", state)
	}
	c.surface = surface
	c.state = Created
	c.mu.Unlock()

	if g := c.Geometry(ctx, surface); g.Fullscreen {
		surface.SetSize(g.Width, g.Height)
	}

	ws, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("Could not load window session", "error", err)
		return nil
	}
	if ws != nil {
		surface.SetPosition(ws.Position[0], ws.Position[1])
		c.logger.Debug("Window position restored", "x", ws.Position[0], "y", ws.Position[1])
	}
	return nil
}

// Ready shows the window the first time the frontend has painted
func (c *Controller) Ready(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Created {
		return
	}
	c.surface.Show()
	c.state = Shown
}

// Capture writes the current window position to the session store. Without
// a live surface the failure is logged and nothing is saved.
func (c *Controller) Capture(ctx context.Context) {
	c.mu.Lock()
	surface := c.surface
	if surface != nil {
		c.state = Closing
	}
	c.mu.Unlock()

	if surface == nil {
		c.logger.Error("Cannot save window session, no live window")
		return
	}

	x, y := surface.Position()
	if err := c.store.Save(ctx, session.WindowSession{Position: [2]int{x, y}}); err != nil {
		logging.LogError(c.logger, err, "SaveWindowSession", map[string]any{"x": x, "y": y})
	}
}

// Focus restores and focuses the window, if there is one
func (c *Controller) Focus() bool {
	c.mu.Lock()
	surface := c.surface
	c.mu.Unlock()

	if surface == nil {
		return false
	}
	surface.Restore()
	return true
}

// Destroyed releases the surface. A window that goes away without having
// been captured is reported.
func (c *Controller) Destroyed() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Created || c.state == Shown {
		c.logger.Warn("Window destroyed before its position was captured", "state", c.state.String())
	}
	c.surface = nil
	c.state = Destroyed
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
