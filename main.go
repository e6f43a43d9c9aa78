package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"etcherng/internal/app"
	"etcherng/internal/cli"
	"etcherng/internal/config"
	"etcherng/internal/infrastructure/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{
		Build: cli.BuildInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		},
		Argv:   os.Args,
		RunGUI: runWindow,
	})
	stop()
	os.Exit(code)
}

// runWindow blocks until the flasher window has closed
func runWindow(application *app.App, log logging.Logger) error {
	geometry := application.Geometry(context.Background())

	return wails.Run(&options.App{
		Title:     config.AppName,
		Width:     geometry.Width,
		Height:    geometry.Height,
		MinWidth:  geometry.MinWidth,
		MinHeight: geometry.MinHeight,
		// shown on DOM ready so the first paint is not a blank window
		StartHidden:      true,
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 255},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Logger:           logging.NewWailsLoggerAdapter(log),
		LogLevel:         logger.INFO,
		OnStartup:        application.Startup,
		OnDomReady:       application.DomReady,
		OnBeforeClose:    application.BeforeClose,
		OnShutdown:       application.Shutdown,
		WindowStartState: options.Normal,
		Bind: []interface{}{
			application,
		},
		Windows: &windows.Options{
			WebviewUserDataPath: "",
			ZoomFactor:          1.0,
		},
		Linux: &linux.Options{
			ProgramName: config.AppName,
		},
		Mac: &mac.Options{
			OnUrlOpen:  application.HandleURL,
			OnFileOpen: application.HandleFile,
			About: &mac.AboutInfo{
				Title:   config.AppName,
				Message: version,
			},
		},
	})
}
