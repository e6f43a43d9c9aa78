// Package platform registers the application as the OS handler of its
// custom URL scheme.
package platform

import (
	"context"
	"os"
	"path/filepath"
)

// ProtocolRegistrar installs the OS association for a URL scheme
type ProtocolRegistrar interface {
	RegisterProtocol(ctx context.Context) error
	IsRegistered(ctx context.Context) (bool, error)
}

// ProtocolInfo describes the handler being registered
type ProtocolInfo struct {
	Scheme  string `json:"scheme"`
	AppName string `json:"appName"`
	ExePath string `json:"exePath"`
}

// executablePath returns the running binary with symlinks resolved
func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
