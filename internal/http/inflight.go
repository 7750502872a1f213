package http

import (
	"context"
	"sync"
)

// requestGate counts control requests being served and signals when none are.
// Shutdown waits on it so a print accepted just before exit reaches the queue
// before the printer is closed.
type requestGate struct {
	mu     sync.Mutex
	active int64
	idle   chan struct{} // closed while active == 0
}

func newRequestGate() *requestGate {
	g := &requestGate{idle: make(chan struct{})}
	close(g.idle)
	return g
}

func (g *requestGate) enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == 0 {
		g.idle = make(chan struct{})
	}
	g.active++
}

func (g *requestGate) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active--
	if g.active == 0 {
		close(g.idle)
	}
}

func (g *requestGate) count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// wait returns once no request is active, or with ctx's error.
func (g *requestGate) wait(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var controlRequests = newRequestGate()

// InFlightCount returns the number of control requests being served.
func InFlightCount() int64 {
	return controlRequests.count()
}

// WaitForInFlight blocks until no control request is being served or ctx is done.
func WaitForInFlight(ctx context.Context) error {
	return controlRequests.wait(ctx)
}
