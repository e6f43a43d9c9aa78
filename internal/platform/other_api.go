//go:build !linux && !darwin && !windows

package platform

import (
	"context"

	"etcherng/internal/infrastructure/logging"
)

type noopRegistrar struct {
	info   ProtocolInfo
	logger logging.Logger
}

// NewProtocolRegistrar returns a registrar that only logs
func NewProtocolRegistrar(info ProtocolInfo, logger logging.Logger) ProtocolRegistrar {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &noopRegistrar{info: info, logger: logger}
}

func (n *noopRegistrar) RegisterProtocol(ctx context.Context) error {
	n.logger.Debug("Protocol registration not supported on this platform", "scheme", n.info.Scheme)
	return nil
}

func (n *noopRegistrar) IsRegistered(ctx context.Context) (bool, error) {
	return false, nil
}
