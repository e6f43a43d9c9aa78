//go:build windows

package instance

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// instanceLock is a named mutex in the session namespace
type instanceLock struct {
	handle windows.Handle
}

func tryLock(_ string, id string) (*instanceLock, bool, error) {
	name, err := windows.UTF16PtrFromString(`Local\` + id)
	if err != nil {
		return nil, false, fmt.Errorf("mutex name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, false, name)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if handle != 0 {
			_ = windows.CloseHandle(handle)
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create mutex: %w", err)
	}
	return &instanceLock{handle: handle}, true, nil
}

func (l *instanceLock) unlock() error {
	return windows.CloseHandle(l.handle)
}
