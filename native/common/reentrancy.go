package common

import (
	"errors"
	"sync"

	"synthd/internal/goroutine"
)

// ErrReentrantCall is returned when a guarded entry point is invoked from
// within a guarded operation's own call stack, e.g. from a price-feed or
// transfer callback triggered by the outer operation.
var ErrReentrantCall = errors.New("reentrant call rejected")

// ReentrancyGuard serializes the engine's state-mutating entry points.
// Independent concurrent callers queue; only a nested call from the goroutine
// already running an operation is rejected, since letting it queue would
// deadlock. Enter hands back a release capability that must be invoked via
// defer so the guard clears on every exit path, including panics.
type ReentrancyGuard struct {
	op sync.Mutex // serializes operations

	mu    sync.Mutex
	owner uint64 // goroutine id of the running operation, 0 when idle
}

func NewReentrancyGuard() *ReentrancyGuard {
	return &ReentrancyGuard{}
}

// Enter acquires the guard, blocking while another operation is in flight. A
// call from the goroutine that already holds the guard fails immediately with
// ErrReentrantCall.
func (g *ReentrancyGuard) Enter() (func(), error) {
	id := goroutine.ID()
	g.mu.Lock()
	reentrant := g.owner != 0 && g.owner == id
	g.mu.Unlock()
	if reentrant {
		return nil, ErrReentrantCall
	}

	g.op.Lock()
	g.mu.Lock()
	g.owner = id
	g.mu.Unlock()

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			g.mu.Lock()
			g.owner = 0
			g.mu.Unlock()
			g.op.Unlock()
		})
	}, nil
}
