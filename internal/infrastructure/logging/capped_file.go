package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const logFilePerm = 0o600

// CappedFile is an append-only log file that is moved aside to a single
// ".old" backup once it would exceed maxSize bytes.
type CappedFile struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	file    *os.File
	size    int64
}

// NewCappedFile opens (or creates) path for appending
func NewCappedFile(path string, maxSize int64) (*CappedFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	c := &CappedFile{path: path, maxSize: maxSize}
	if err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CappedFile) open() error {
	file, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	c.file = file
	c.size = info.Size()
	return nil
}

// BackupPath returns the path the previous log is moved to
func (c *CappedFile) BackupPath() string {
	ext := filepath.Ext(c.path)
	return strings.TrimSuffix(c.path, ext) + ".old" + ext
}

func (c *CappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file == nil {
		if err := c.open(); err != nil {
			return 0, err
		}
	}

	if c.maxSize > 0 && c.size > 0 && c.size+int64(len(p)) > c.maxSize {
		if err := c.roll(); err != nil {
			return 0, err
		}
	}

	n, err := c.file.Write(p)
	c.size += int64(n)
	return n, err
}

func (c *CappedFile) roll() error {
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	c.file = nil
	if err := os.Rename(c.path, c.BackupPath()); err != nil {
		return fmt.Errorf("move log file aside: %w", err)
	}
	return c.open()
}

// Close closes the underlying file
func (c *CappedFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
