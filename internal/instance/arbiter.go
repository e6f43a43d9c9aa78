// Package instance keeps the application to a single running process and
// carries the arguments of later launches over to the one that is running.
package instance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"etcherng/internal/infrastructure/logging"
)

// DefaultID is the application identity the lock and socket are named after
const DefaultID = "io.balena.etcher-ng"

const forwardTimeout = 5 * time.Second

// Role is decided once per process by Acquire
type Role int

const (
	RoleSecondary Role = iota
	RolePrimary
)

func (r Role) String() string {
	if r == RolePrimary {
		return "primary"
	}
	return "secondary"
}

// Activation is what a secondary launch forwards to the primary
type Activation struct {
	ID               string   `json:"id"`
	Argv             []string `json:"argv"`
	WorkingDirectory string   `json:"workingDirectory"`
}

// NewActivation stamps argv and the working directory with a fresh ID
func NewActivation(argv []string, workingDirectory string) Activation {
	return Activation{
		ID:               uuid.NewString(),
		Argv:             append([]string(nil), argv...),
		WorkingDirectory: workingDirectory,
	}
}

// Handler receives forwarded activations on the primary
type Handler func(ctx context.Context, act Activation)

type ack struct {
	ID string `json:"id"`
}

// Config names the lock and where it lives
type Config struct {
	ID         string
	RuntimeDir string
}

// Arbiter owns the single-instance lock and the activation socket
type Arbiter struct {
	id     string
	dir    string
	logger logging.Logger

	mu       sync.Mutex
	role     Role
	acquired bool
	lock     *instanceLock
	listener net.Listener
}

// New creates an arbiter. Nothing is locked until Acquire.
func New(cfg Config, logger logging.Logger) *Arbiter {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	id := cfg.ID
	if strings.TrimSpace(id) == "" {
		id = DefaultID
	}
	dir := cfg.RuntimeDir
	if dir == "" {
		dir = DefaultRuntimeDir()
	}
	return &Arbiter{
		id:     sanitizeID(id),
		dir:    dir,
		logger: logger,
	}
}

// DefaultRuntimeDir is $XDG_RUNTIME_DIR when set, otherwise the temp dir
func DefaultRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, id)
}

// LockPath is the file (or mutex name on Windows) guarding the instance
func (a *Arbiter) LockPath() string {
	return filepath.Join(a.dir, a.id+".lock")
}

// SocketPath is where the primary listens for activations
func (a *Arbiter) SocketPath() string {
	return filepath.Join(a.dir, a.id+".sock")
}

// Acquire takes the instance lock. Failing to take it for any reason makes
// this process the secondary; the error is only logged.
func (a *Arbiter) Acquire(ctx context.Context) Role {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.acquired {
		return a.role
	}
	a.acquired = true
	a.role = RoleSecondary

	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		a.logger.Error("Cannot create runtime directory, running as secondary", "dir", a.dir, "error", err)
		return a.role
	}

	lock, ok, err := tryLock(a.dir, a.id)
	if err != nil {
		a.logger.Error("Instance lock failed, running as secondary", "path", a.LockPath(), "error", err)
		return a.role
	}
	if !ok {
		a.logger.Info("Another instance holds the lock", "path", a.LockPath())
		return a.role
	}

	// a socket file left by a crashed primary blocks Listen
	_ = os.Remove(a.SocketPath())
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "unix", a.SocketPath())
	if err != nil {
		_ = lock.unlock()
		a.logger.Error("Cannot listen for activations, running as secondary", "socket", a.SocketPath(), "error", err)
		return a.role
	}

	a.lock = lock
	a.listener = listener
	a.role = RolePrimary
	a.logger.Info("Acquired instance lock", "id", a.id, "socket", a.SocketPath())
	return a.role
}

// Serve accepts forwarded activations until ctx is done or the arbiter is
// released. Each activation is handled on its own goroutine.
func (a *Arbiter) Serve(ctx context.Context, handler Handler) error {
	a.mu.Lock()
	listener := a.listener
	a.mu.Unlock()
	if listener == nil {
		return errors.New("instance: Serve called without holding the lock")
	}

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept activation: %w", err)
		}
		go a.handleConn(ctx, conn, handler)
	}
}

func (a *Arbiter) handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(forwardTimeout))

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		a.logger.Warn("Dropped malformed activation", "error", err)
		return
	}

	var act Activation
	if err := json.Unmarshal(line, &act); err != nil {
		a.logger.Warn("Dropped malformed activation", "error", err)
		return
	}

	if err := json.NewEncoder(conn).Encode(ack{ID: act.ID}); err != nil {
		a.logger.Debug("Activation ack not delivered", "id", act.ID, "error", err)
	}

	a.logger.Info("Received activation from second instance", "id", act.ID, "argc", len(act.Argv))
	handler(ctx, act)
}

// Forward sends act to the primary and waits for its acknowledgement
func (a *Arbiter) Forward(ctx context.Context, act Activation) error {
	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", a.SocketPath())
	if err != nil {
		return fmt.Errorf("connect to running instance: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(act); err != nil {
		return fmt.Errorf("send activation: %w", err)
	}

	var reply ack
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return fmt.Errorf("read activation ack: %w", err)
	}
	if reply.ID != act.ID {
		return fmt.Errorf("activation ack mismatch: sent %s, got %s", act.ID, reply.ID)
	}

	a.logger.Info("Forwarded activation to running instance", "id", act.ID)
	return nil
}

// Role returns the role decided by Acquire
func (a *Arbiter) Role() Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.role
}

// Release stops listening and gives up the lock
func (a *Arbiter) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.listener != nil {
		if err := a.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
		a.listener = nil
		_ = os.Remove(a.SocketPath())
	}
	if a.lock != nil {
		if err := a.lock.unlock(); err != nil {
			errs = append(errs, err)
		}
		a.lock = nil
	}
	if a.role == RolePrimary {
		a.logger.Info("Released instance lock", "id", a.id)
	}
	a.role = RoleSecondary
	a.acquired = false
	return errors.Join(errs...)
}
