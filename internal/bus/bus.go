// Package bus carries application lifecycle commands between the frontend
// bindings, menus and the shell.
package bus

import (
	"context"
	"fmt"
	"sync"

	"etcherng/internal/infrastructure/logging"
)

// Command identifies a lifecycle action
type Command int

const (
	// EditConfigFile opens the configuration file in the OS default editor
	EditConfigFile Command = iota + 1
	// Relaunch saves the session and restarts the process
	Relaunch
	// Quit saves the session and exits
	Quit
	// OpenLink opens Message.URL in the system browser
	OpenLink
)

func (c Command) String() string {
	switch c {
	case EditConfigFile:
		return "edit-config-file"
	case Relaunch:
		return "relaunch"
	case Quit:
		return "quit"
	case OpenLink:
		return "open-link"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// ParseCommand maps the frontend name of a command back to its value
func ParseCommand(name string) (Command, error) {
	for _, c := range []Command{EditConfigFile, Relaunch, Quit, OpenLink} {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// Message is a command plus its argument
type Message struct {
	Command Command
	URL     string
}

// Handler executes a command
type Handler func(ctx context.Context, msg Message) error

// Bus routes messages to the handler registered for their command.
// Messages are handled one at a time by Run.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Command]Handler
	queue    chan Message
	logger   logging.Logger
}

// New creates a bus with a buffered queue
func New(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Bus{
		handlers: make(map[Command]Handler),
		queue:    make(chan Message, 8),
		logger:   logger,
	}
}

// Handle registers h for c, replacing any previous handler
func (b *Bus) Handle(c Command, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[c] = h
}

// Post queues msg for Run. It fails when the queue is full or ctx is done.
func (b *Bus) Post(ctx context.Context, msg Message) error {
	select {
	case b.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("command queue full, dropping %s", msg.Command)
	}
}

// Send executes msg synchronously on the caller's goroutine
func (b *Bus) Send(ctx context.Context, msg Message) error {
	b.mu.RLock()
	h, ok := b.handlers[msg.Command]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for %s", msg.Command)
	}
	return h(ctx, msg)
}

// Run handles queued messages until ctx is done
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.queue:
			if err := b.Send(ctx, msg); err != nil {
				b.logger.Error("Command failed", "command", msg.Command.String(), "error", err)
			}
		}
	}
}
