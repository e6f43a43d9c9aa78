//go:build darwin

package platform

import (
	"context"

	"etcherng/internal/infrastructure/logging"
)

// DarwinRegistrar relies on CFBundleURLTypes in Info.plist. Launch Services
// registers the scheme when the bundle is installed and delivers links
// through the open-url callback.
type DarwinRegistrar struct {
	info   ProtocolInfo
	logger logging.Logger
}

// NewProtocolRegistrar creates the registrar for this platform
func NewProtocolRegistrar(info ProtocolInfo, logger logging.Logger) ProtocolRegistrar {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &DarwinRegistrar{info: info, logger: logger}
}

// RegisterProtocol is a no-op; the bundle declares the scheme
func (d *DarwinRegistrar) RegisterProtocol(ctx context.Context) error {
	d.logger.Debug("Protocol handler declared by the application bundle", "scheme", d.info.Scheme)
	return nil
}

// IsRegistered always reports true for bundled builds
func (d *DarwinRegistrar) IsRegistered(ctx context.Context) (bool, error) {
	return true, nil
}
