package lifecycle

import "sync/atomic"

var draining atomic.Bool

// SetDraining sets the draining flag. Call when SIGTERM/SIGINT is received or
// input is exhausted and the queue is being emptied for exit.
// While set, the control API refuses new prints and /health reports draining.
func SetDraining(v bool) {
	draining.Store(v)
}

// IsDraining returns true if the process is emptying its print queue before exit.
func IsDraining() bool {
	return draining.Load()
}
