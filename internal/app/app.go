package app

import (
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"sync"

	"github.com/pkg/browser"

	"etcherng/internal/bus"
	"etcherng/internal/config"
	"etcherng/internal/dispatch"
	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/instance"
	"etcherng/internal/readiness"
	"etcherng/internal/repository"
	"etcherng/internal/session"
	"etcherng/internal/settings"
	"etcherng/internal/source"
	"etcherng/internal/window"
)

// SourceSelectorReadyEvent is emitted by the frontend once it can take a source
const SourceSelectorReadyEvent = "source-selector-ready"

// App wires the shell components to the Wails lifecycle and is bound to the frontend
type App struct {
	cfg        *config.Config
	configFile string
	argv       []string
	logger     logging.Logger

	settings   *settings.Model
	sessions   *session.Store
	window     *window.Controller
	gate       *readiness.Gate
	dispatcher *dispatch.Dispatcher
	resolver   *source.Resolver
	bus        *bus.Bus
	arbiter    *instance.Arbiter

	// lifetime outlives Startup so activations arriving before it still wait on the gate
	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	rt         Runtime
	relaunch   bool
	newRuntime func(ctx context.Context) Runtime
	openFile   func(path string) error
	openURL    func(url string) error
	goos       string
}

// Options carries the collaborators of an App
type Options struct {
	Config     *config.Config
	ConfigFile string
	// Argv is the launch argument vector, os.Args in production
	Argv     []string
	Settings repository.SettingsRepository
	// Arbiter is nil when the instance lock is not used
	Arbiter *instance.Arbiter
	Logger  logging.Logger
}

// New creates the application
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	lifetime, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:        cfg,
		configFile: opts.ConfigFile,
		argv:       opts.Argv,
		logger:     logger,
		arbiter:    opts.Arbiter,
		lifetime:   lifetime,
		cancel:     cancel,
		newRuntime: newWailsRuntime,
		openFile:   browser.OpenFile,
		openURL:    browser.OpenURL,
		goos:       goruntime.GOOS,
	}

	a.settings = settings.New(opts.Settings, logger)
	a.sessions = session.NewStore(opts.Settings, logger)
	a.window = window.NewController(window.Config{
		DefaultWidth:  cfg.Window.DefaultWidth,
		DefaultHeight: cfg.Window.DefaultHeight,
		MinWidth:      cfg.Window.MinWidth,
		MinHeight:     cfg.Window.MinHeight,
	}, a.sessions, a.settings, logger)
	a.gate = readiness.New()
	a.dispatcher = dispatch.New(a.gate, broadcaster{app: a}, logger)
	a.resolver = source.NewResolver(cfg.Runtime.Packaged, source.WithScheme(cfg.Protocol.Scheme))
	a.bus = bus.New(logger)
	a.registerCommands()

	return a
}

// Geometry is the initial window size for the Wails options
func (a *App) Geometry(ctx context.Context) window.Geometry {
	return a.window.Geometry(ctx, nil)
}

// Startup is called by Wails once the runtime is available
func (a *App) Startup(ctx context.Context) {
	rt := a.newRuntime(ctx)
	a.mu.Lock()
	a.rt = rt
	a.mu.Unlock()

	rt.EventsOnce(SourceSelectorReadyEvent, func(...any) {
		if a.gate.Open() {
			a.logger.Debug("Source selector ready")
		}
	})

	if err := a.window.Created(a.lifetime, surface{rt: rt}); err != nil {
		a.logger.Error("Window setup failed", "error", err)
	}

	go a.bus.Run(a.lifetime)

	if a.arbiter != nil && a.arbiter.Role() == instance.RolePrimary {
		go func() {
			if err := a.arbiter.Serve(a.lifetime, a.HandleActivation); err != nil {
				a.logger.Error("Activation server stopped", "error", err)
			}
		}()
	}

	a.logger.Info("Auto-Updates disabled for this build")

	if ref, ok := a.resolver.Resolve(a.argv); ok {
		a.dispatcher.Go(a.lifetime, ref)
	}
}

// DomReady is called after front-end resources have been loaded
func (a *App) DomReady(ctx context.Context) {
	a.window.Ready(ctx)
}

// BeforeClose saves the window position. The close is never prevented:
// closing the only window quits the application on every platform.
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	a.window.Capture(ctx)
	return false
}

// Shutdown abandons pending dispatches and releases the window
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	a.dispatcher.Wait()
	a.window.Destroyed()
	a.logger.Info("Application shutdown completed")
}

// HandleActivation restores the window and dispatches the source carried by
// a second launch
func (a *App) HandleActivation(ctx context.Context, act instance.Activation) {
	a.window.Focus()
	if ref, ok := a.resolver.ResolveFrom(act.Argv, act.WorkingDirectory); ok {
		a.dispatcher.Go(a.lifetime, ref)
	}
}

// HandleURL dispatches an OS open-url payload
func (a *App) HandleURL(url string) {
	a.window.Focus()
	if ref, ok := a.resolver.Normalize(url); ok {
		a.dispatcher.Go(a.lifetime, ref)
	}
}

// HandleFile dispatches a file handed over by the OS file association
func (a *App) HandleFile(path string) {
	a.window.Focus()
	if ref, ok := a.resolver.Resolve(append(make([]string, a.resolver.SkipCount()), path)); ok {
		a.dispatcher.Go(a.lifetime, ref)
	}
}

// RelaunchRequested reports whether the process should start again after exit
func (a *App) RelaunchRequested() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.relaunch
}

func (a *App) runtime() Runtime {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rt
}

// GetSettings returns every setting for the frontend
func (a *App) GetSettings() (map[string]bool, error) {
	return a.settings.All(a.lifetime)
}

// SetSetting stores a boolean setting
func (a *App) SetSetting(name string, value bool) error {
	return a.settings.Set(a.lifetime, name, value)
}

// EditConfigFile opens config.toml in the OS default editor
func (a *App) EditConfigFile() error {
	return a.bus.Post(a.lifetime, bus.Message{Command: bus.EditConfigFile})
}

// Relaunch saves the window session and restarts the application
func (a *App) Relaunch() error {
	return a.bus.Post(a.lifetime, bus.Message{Command: bus.Relaunch})
}

// Quit saves the window session and exits
func (a *App) Quit() error {
	return a.bus.Post(a.lifetime, bus.Message{Command: bus.Quit})
}

// OpenLink opens url in the system browser
func (a *App) OpenLink(url string) error {
	return a.bus.Post(a.lifetime, bus.Message{Command: bus.OpenLink, URL: url})
}

// RunCommand posts a command by its frontend name, such as "open-link".
// url is only used by open-link.
func (a *App) RunCommand(name, url string) error {
	command, err := bus.ParseCommand(name)
	if err != nil {
		return err
	}
	return a.bus.Post(a.lifetime, bus.Message{Command: command, URL: url})
}

func (a *App) registerCommands() {
	a.bus.Handle(bus.EditConfigFile, a.editConfigFile)
	a.bus.Handle(bus.Relaunch, a.restart)
	a.bus.Handle(bus.Quit, a.quit)
	a.bus.Handle(bus.OpenLink, a.openLink)
}

func (a *App) editConfigFile(ctx context.Context, _ bus.Message) error {
	if a.configFile == "" {
		return fmt.Errorf("no configuration file loaded")
	}
	if a.goos == "linux" {
		a.logger.Info("Note that TOML must be a recognized file type for the OS to open the config.toml file.")
		a.logger.Warn("On Linux, a default text editor for handling TOML files must also be present and configured correctly.")
	}
	if _, err := os.Stat(a.configFile); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	return a.openFile(a.configFile)
}

func (a *App) restart(ctx context.Context, _ bus.Message) error {
	a.logger.Warn("Restarting App...")
	a.mu.Lock()
	a.relaunch = true
	a.mu.Unlock()
	return a.quit(ctx, bus.Message{Command: bus.Quit})
}

func (a *App) quit(ctx context.Context, _ bus.Message) error {
	a.window.Capture(ctx)
	rt := a.runtime()
	if rt == nil {
		return fmt.Errorf("runtime not started")
	}
	rt.Quit()
	return nil
}

func (a *App) openLink(ctx context.Context, msg bus.Message) error {
	if msg.URL == "" {
		return fmt.Errorf("open-link without a URL")
	}
	return a.openURL(msg.URL)
}
