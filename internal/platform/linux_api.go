//go:build linux

package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"etcherng/internal/infrastructure/logging"
)

const desktopFileTemplate = `[Desktop Entry]
Version=1.1
Type=Application
Name=%[1]s
Comment=Flash OS images to SD cards and USB drives
Exec=%[2]s %%u
Icon=%[3]s
Terminal=false
Categories=Utility;
MimeType=x-scheme-handler/%[4]s;
StartupWMClass=%[3]s
`

// LinuxRegistrar writes a .desktop entry and makes it the scheme's default handler
type LinuxRegistrar struct {
	info     ProtocolInfo
	dataHome string
	logger   logging.Logger
	run      func(ctx context.Context, name string, args ...string) error
	lookPath func(file string) (string, error)
}

// NewLinuxRegistrar creates a registrar for the XDG desktop
func NewLinuxRegistrar(info ProtocolInfo, logger logging.Logger) *LinuxRegistrar {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &LinuxRegistrar{
		info:     info,
		logger:   logger,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

// NewProtocolRegistrar creates the registrar for this platform
func NewProtocolRegistrar(info ProtocolInfo, logger logging.Logger) ProtocolRegistrar {
	return NewLinuxRegistrar(info, logger)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (l *LinuxRegistrar) applicationsDir() (string, error) {
	dataHome := l.dataHome
	if dataHome == "" {
		dataHome = os.Getenv("XDG_DATA_HOME")
	}
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "applications"), nil
}

func (l *LinuxRegistrar) desktopFileName() string {
	return l.info.AppName + ".desktop"
}

// DesktopFilePath is where the entry is written
func (l *LinuxRegistrar) DesktopFilePath() (string, error) {
	dir, err := l.applicationsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, l.desktopFileName()), nil
}

// RegisterProtocol writes the desktop entry and asks xdg-mime to make it the
// default handler. Missing xdg tools are not an error.
func (l *LinuxRegistrar) RegisterProtocol(ctx context.Context) error {
	exe, err := l.executable()
	if err != nil {
		return err
	}

	path, err := l.DesktopFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create applications dir: %w", err)
	}

	content := fmt.Sprintf(desktopFileTemplate, l.info.AppName, exe, l.info.AppName, l.info.Scheme)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write desktop file: %w", err)
	}

	mime := "x-scheme-handler/" + l.info.Scheme
	if xdgMime, err := l.lookPath("xdg-mime"); err == nil {
		if err := l.run(ctx, xdgMime, "default", l.desktopFileName(), mime); err != nil {
			l.logger.Warn("xdg-mime could not set the scheme handler", "scheme", l.info.Scheme, "error", err)
		}
	} else {
		l.logger.Debug("xdg-mime not found, desktop entry written only", "path", path)
	}

	if updateDB, err := l.lookPath("update-desktop-database"); err == nil {
		if err := l.run(ctx, updateDB, filepath.Dir(path)); err != nil {
			l.logger.Debug("update-desktop-database failed", "error", err)
		}
	}

	l.logger.Info("Registered protocol handler", "scheme", l.info.Scheme, "desktop_file", path)
	return nil
}

func (l *LinuxRegistrar) executable() (string, error) {
	if l.info.ExePath != "" {
		return l.info.ExePath, nil
	}
	exe, err := executablePath()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return exe, nil
}

// IsRegistered reports whether the desktop entry exists, handles the scheme
// and launches the current executable. An entry left behind by a moved
// binary counts as unregistered so it gets rewritten.
func (l *LinuxRegistrar) IsRegistered(ctx context.Context) (bool, error) {
	path, err := l.DesktopFilePath()
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	exe, err := l.executable()
	if err != nil {
		return false, err
	}

	wantExec := fmt.Sprintf("Exec=%s %%u", exe)
	wantMime := "x-scheme-handler/" + l.info.Scheme + ";"
	var execOK, mimeOK bool
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Exec="):
			execOK = line == wantExec
		case strings.HasPrefix(line, "MimeType="):
			mimeOK = strings.Contains(line, wantMime)
		}
	}
	return execOK && mimeOK, nil
}
