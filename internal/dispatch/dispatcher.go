// Package dispatch delivers resolved sources to the frontend once it is ready.
package dispatch

import (
	"context"
	"sync"

	"etcherng/internal/infrastructure/logging"
	"etcherng/internal/source"
)

// SelectImageEvent is the frontend event carrying the source string
const SelectImageEvent = "select-image"

// Waiter is satisfied by *readiness.Gate
type Waiter interface {
	Wait(ctx context.Context) error
}

// Broadcaster sends an event to every open window
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload ...any)
}

// Dispatcher hands references to the frontend after the readiness gate opens
type Dispatcher struct {
	gate        Waiter
	broadcaster Broadcaster
	logger      logging.Logger

	wg sync.WaitGroup
}

// New creates a dispatcher
func New(gate Waiter, broadcaster Broadcaster, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Dispatcher{
		gate:        gate,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Dispatch waits for readiness and broadcasts ref. An empty ref is a no-op.
// The broadcast is not acknowledged. A cancelled ctx abandons the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, ref source.Reference) error {
	if ref == "" {
		return nil
	}

	if err := d.gate.Wait(ctx); err != nil {
		d.logger.Debug("Dispatch abandoned before frontend was ready", "source", ref.String(), "error", err)
		return err
	}

	d.broadcaster.Broadcast(ctx, SelectImageEvent, ref.String())
	d.logger.Info("Source dispatched", "source", ref.String())
	return nil
}

// Go runs Dispatch in the background
func (d *Dispatcher) Go(ctx context.Context, ref source.Reference) {
	if ref == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.Dispatch(ctx, ref)
	}()
}

// Wait blocks until every dispatch started with Go has returned
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
