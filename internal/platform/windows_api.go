//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"

	"etcherng/internal/infrastructure/logging"
)

// WindowsRegistrar writes the per-user URL protocol keys under
// HKCU\Software\Classes\<scheme>
type WindowsRegistrar struct {
	info   ProtocolInfo
	logger logging.Logger
}

// NewProtocolRegistrar creates the registrar for this platform
func NewProtocolRegistrar(info ProtocolInfo, logger logging.Logger) ProtocolRegistrar {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &WindowsRegistrar{info: info, logger: logger}
}

func (w *WindowsRegistrar) keyPath() string {
	return `Software\Classes\` + w.info.Scheme
}

// RegisterProtocol creates the scheme key and its open command
func (w *WindowsRegistrar) RegisterProtocol(ctx context.Context) error {
	exe := w.info.ExePath
	if exe == "" {
		var err error
		if exe, err = executablePath(); err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, w.keyPath(), registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.keyPath(), err)
	}
	defer key.Close()

	if err := key.SetStringValue("", "URL:"+w.info.AppName+" Protocol"); err != nil {
		return fmt.Errorf("set protocol description: %w", err)
	}
	if err := key.SetStringValue("URL Protocol", ""); err != nil {
		return fmt.Errorf("mark URL protocol: %w", err)
	}

	cmdKey, _, err := registry.CreateKey(registry.CURRENT_USER, w.keyPath()+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create open command key: %w", err)
	}
	defer cmdKey.Close()

	command := fmt.Sprintf(`"%s" "%%1"`, exe)
	if err := cmdKey.SetStringValue("", command); err != nil {
		return fmt.Errorf("set open command: %w", err)
	}

	w.logger.Info("Registered protocol handler", "scheme", w.info.Scheme, "command", command)
	return nil
}

// IsRegistered reports whether the scheme key exists
func (w *WindowsRegistrar) IsRegistered(ctx context.Context) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, w.keyPath(), registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	key.Close()
	return true, nil
}
