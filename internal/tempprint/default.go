package tempprint

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	defaultOnce    sync.Once
	defaultPrinter *Printer
)

// Default returns the process-wide printer: stdout, no display time, no skip checks.
// The package-level Print and PrintText print persistent lines by default.
// Only one printer should own a terminal at a time; plain writes to the same
// terminal while a temporary line is visible end up on that line.
func Default() *Printer {
	defaultOnce.Do(func() {
		// Config{} always validates.
		defaultPrinter, _ = New(Config{})
	})
	return defaultPrinter
}

// Print queues values on the default printer. The line is persistent, like
// fmt.Println, unless the call passes WithDisplayTime or Temporary.
func Print(values []any, opts ...Option) (uuid.UUID, error) {
	return Default().Print(values, persistentUnlessTimed(opts)...)
}

// PrintText queues text on the default printer, persistent unless timed.
func PrintText(text string, opts ...Option) (uuid.UUID, error) {
	return Default().PrintText(text, persistentUnlessTimed(opts)...)
}

func persistentUnlessTimed(opts []Option) []Option {
	var r request
	for _, opt := range opts {
		opt(&r)
	}
	if r.temporary || r.entry.Persistent || r.entry.DisplayTime > 0 {
		return opts
	}
	return append([]Option{Persistent()}, opts...)
}

// Skip cuts short the print the default printer is showing.
func Skip() {
	Default().Skip()
}

// Clear empties the default printer's queue, and with undisplay skips the print on screen.
func Clear(undisplay bool) {
	Default().Clear(undisplay)
}

// IsRunning reports whether the default printer has work.
func IsRunning() bool {
	return Default().IsRunning()
}

// SetDisplayTime sets the default printer's display time. Negative values are rejected.
func SetDisplayTime(d time.Duration) error {
	return Default().SetDisplayTime(d)
}

// SetRefreshRate sets the default printer's refresh rate. It applies to
// every later wait, including prints already queued.
func SetRefreshRate(d time.Duration) {
	Default().SetRefreshRate(d)
}

// Wait blocks until the default printer is idle or ctx is done.
func Wait(ctx context.Context) error {
	return Default().Wait(ctx)
}
