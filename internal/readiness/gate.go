// Package readiness holds the one-shot latch the frontend opens once it can
// accept a source selection.
package readiness

import (
	"context"
	"sync"
)

// Gate is a single-fire latch. The zero value is not usable, use New.
type Gate struct {
	once sync.Once
	done chan struct{}
}

// New returns a gate that waits for Open
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Open fires the gate. Only the first call has an effect. It reports whether
// this call was the one that opened it.
func (g *Gate) Open() bool {
	opened := false
	g.once.Do(func() {
		close(g.done)
		opened = true
	})
	return opened
}

// Wait blocks until the gate is open or ctx is done
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	default:
	}

	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the gate opens
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// IsOpen reports whether Open has been called
func (g *Gate) IsOpen() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}
