// Package gate holds the cancellation flag shared by a run's producer and the
// event translator.
package gate

import (
	"context"
	"sync"
	"sync/atomic"
)

// Signal is what the translator consults before and after every event
type Signal interface {
	ShouldContinue() bool
}

// Gate is a one-way stop flag. The zero value is open.
type Gate struct {
	stopped atomic.Bool
}

// New returns an open gate
func New() *Gate {
	return &Gate{}
}

// ShouldContinue reports whether the run may go on
func (g *Gate) ShouldContinue() bool {
	return !g.stopped.Load()
}

// Cancel closes the gate. It is safe to call from any goroutine and more
// than once; the gate never reopens.
func (g *Gate) Cancel() {
	g.stopped.Store(true)
}

// Stopped reports whether Cancel was called
func (g *Gate) Stopped() bool {
	return g.stopped.Load()
}

// Bind closes the gate when ctx is done. The returned func releases the
// binding without closing the gate.
func (g *Gate) Bind(ctx context.Context) (release func() bool) {
	return context.AfterFunc(ctx, g.Cancel)
}

// Group cancels a set of gates together, as fail-fast runs need. Gates
// added after Cancel are closed on arrival.
type Group struct {
	mu        sync.Mutex
	gates     []*Gate
	cancelled bool
}

// NewGroup returns a group over gates
func NewGroup(gates ...*Gate) *Group {
	return &Group{gates: append([]*Gate(nil), gates...)}
}

// Add puts another gate under the group
func (g *Group) Add(gate *Gate) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates = append(g.gates, gate)
	if g.cancelled {
		gate.Cancel()
	}
}

// Cancel closes every gate of the group
func (g *Group) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = true
	for _, gate := range g.gates {
		gate.Cancel()
	}
}

// Cancelled reports whether the group was cancelled
func (g *Group) Cancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled
}
