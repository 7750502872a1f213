// Package tempprint writes console lines that erase themselves after a delay.
//
// Prints are queued and drained in order by a single worker goroutine. A
// temporary print is written without a newline, left on screen for its
// display time and then blanked by returning the cursor to column zero and
// overwriting the line with spaces. Persistent prints are written with a
// trailing newline and left alone.
package tempprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/tempprint/internal/console"
	"github.com/kjstillabower/tempprint/internal/observability"
	"github.com/kjstillabower/tempprint/internal/validation"
)

// ErrNoDisplayTime is returned when a temporary print has neither its own
// display time nor a printer default.
var ErrNoDisplayTime = errors.New("no display time: set one on the printer or pass WithDisplayTime")

// Config holds Printer parameters.
type Config struct {
	// DisplayTime is the default for temporary prints. Zero means unset.
	DisplayTime time.Duration
	// RefreshRate is how often a running wait checks for a skip.
	// Zero never checks, negative reacts immediately.
	RefreshRate time.Duration
	// Writer defaults to os.Stdout.
	Writer io.Writer
	// MaxWidth truncates temporary text to this many cells. Zero disables.
	MaxWidth int
	Logger   *zap.Logger
}

// Printer queues prints and drains them on one worker goroutine.
type Printer struct {
	mu          sync.Mutex
	queue       []*Entry
	current     *Entry
	running     bool
	done        chan struct{} // closed when the current worker exits
	displayTime time.Duration
	refreshRate time.Duration
	visible     int

	writer   io.Writer
	maxWidth int
	logger   *zap.Logger
}

// New creates a Printer. Nothing is started until the first print.
func New(cfg Config) (*Printer, error) {
	if err := validation.ValidateDisplayTime(cfg.DisplayTime); err != nil {
		return nil, err
	}
	if err := validation.ValidateWidth(cfg.MaxWidth); err != nil {
		return nil, err
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Printer{
		displayTime: cfg.DisplayTime,
		refreshRate: cfg.RefreshRate,
		writer:      cfg.Writer,
		maxWidth:    cfg.MaxWidth,
		logger:      cfg.Logger,
	}, nil
}

// Print joins values like fmt.Sprint would print them one by one, separated by
// the WithSep string (default " ") and followed by the WithEnd string, and
// queues the result. The worker is started if it isn't running.
func (p *Printer) Print(values []any, opts ...Option) (uuid.UUID, error) {
	r := &request{sep: " "}
	for _, opt := range opts {
		opt(r)
	}
	e := &r.entry
	e.Text = join(values, r.sep) + r.end

	if err := validation.ValidateText(e.Text, e.Persistent); err != nil {
		observability.PrintsRejectedTotal.WithLabelValues("control_chars").Inc()
		return uuid.Nil, err
	}
	if !e.Persistent {
		if e.DisplayTime <= 0 {
			e.DisplayTime = p.DisplayTime()
		}
		if e.DisplayTime <= 0 {
			observability.PrintsRejectedTotal.WithLabelValues("no_display_time").Inc()
			return uuid.Nil, ErrNoDisplayTime
		}
	}
	if e.Delay < 0 {
		e.Delay = 0
	}
	if e.PostDelay < 0 {
		e.PostDelay = 0
	}
	e.ID = uuid.New()
	e.stop = make(chan struct{})

	p.enqueue(e)
	return e.ID, nil
}

// PrintText queues a single string.
func (p *Printer) PrintText(text string, opts ...Option) (uuid.UUID, error) {
	return p.Print([]any{text}, opts...)
}

func join(values []any, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}

func (p *Printer) enqueue(e *Entry) {
	p.mu.Lock()
	if e.Overwrite || e.Priority {
		p.queue = append([]*Entry{e}, p.queue...)
	} else {
		p.queue = append(p.queue, e)
	}
	depth := len(p.queue)
	var displaced *Entry
	if e.Overwrite && p.current != nil {
		displaced = p.current
	}
	if !p.running {
		p.running = true
		p.done = make(chan struct{})
		go p.run(p.done)
	}
	p.mu.Unlock()

	observability.PrintQueueDepth.Set(float64(depth))
	observability.PrintsQueuedTotal.WithLabelValues(e.kind()).Inc()
	p.logger.Debug("print queued",
		zap.String("entry_id", e.ID.String()),
		zap.String("kind", e.kind()),
		zap.Bool("priority", e.Priority || e.Overwrite),
		zap.Int("queue_depth", depth))

	if displaced != nil {
		p.skipEntry(displaced, "overwrite")
	}
}

func (p *Printer) run(done chan struct{}) {
	defer close(done)
	for {
		e, ok := p.next()
		if !ok {
			return
		}
		p.process(e)
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
	}
}

// next pops the head of the queue. When the queue is empty the worker is
// marked stopped under the same lock so a concurrent enqueue starts a new one.
func (p *Printer) next() (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		p.current = nil
		p.running = false
		observability.PrintQueueDepth.Set(0)
		return nil, false
	}
	e := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.current = e
	observability.PrintQueueDepth.Set(float64(len(p.queue)))
	return e, true
}

func (p *Printer) process(e *Entry) {
	w := e.Writer
	if w == nil {
		w = p.writer
	}
	log := p.logger.With(zap.String("entry_id", e.ID.String()))

	p.wait(e, e.Delay)

	if e.Persistent {
		p.write(w, e.Text+"\n", e.Flush, log)
		observability.PrintsDisplayedTotal.WithLabelValues(e.kind()).Inc()
		log.Debug("persistent print written")
		p.wait(e, e.PostDelay)
		return
	}

	text := console.Fit(e.Text, p.maxWidth)
	width := console.VisibleWidth(text)
	p.setVisible(width)
	p.write(w, text, e.Flush, log)
	observability.PrintsDisplayedTotal.WithLabelValues(e.kind()).Inc()
	log.Debug("temporary print displayed", zap.Duration("display_time", e.DisplayTime))

	start := time.Now()
	p.wait(e, e.DisplayTime)
	p.wait(e, e.PostDelay)

	p.write(w, console.EraseLine(width), e.Flush, log)
	p.setVisible(0)
	observability.PrintDisplaySeconds.Observe(time.Since(start).Seconds())
	log.Debug("temporary print erased", zap.Bool("skipped", e.skipped()))
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

func (p *Printer) write(w io.Writer, s string, flush bool, log *zap.Logger) {
	if _, err := io.WriteString(w, s); err != nil {
		log.Warn("console write failed", zap.Error(err))
		return
	}
	if !flush {
		return
	}
	switch f := w.(type) {
	case flusher:
		if err := f.Flush(); err != nil {
			log.Warn("console flush failed", zap.Error(err))
		}
	case syncer:
		// Sync on a terminal returns EINVAL on some platforms; the bytes are already out.
		_ = f.Sync()
	}
}

func (p *Printer) setVisible(n int) {
	p.mu.Lock()
	p.visible = n
	p.mu.Unlock()
}

// Visible returns the width of the temporary text currently on screen, 0 when none.
func (p *Printer) Visible() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Skip cuts the currently displayed print short. It is erased at the next
// stop check. No-op when nothing is running.
func (p *Printer) Skip() {
	p.mu.Lock()
	e := p.current
	p.mu.Unlock()
	if e != nil {
		p.skipEntry(e, "skip")
	}
}

func (p *Printer) skipEntry(e *Entry, reason string) {
	if e.skip() {
		observability.PrintsSkippedTotal.Inc()
		p.logger.Debug("print skipped", zap.String("entry_id", e.ID.String()), zap.String("reason", reason))
	}
}

// Clear drops every queued print. With undisplay, the print on screen is skipped too.
func (p *Printer) Clear(undisplay bool) {
	p.mu.Lock()
	dropped := len(p.queue)
	p.queue = nil
	e := p.current
	p.mu.Unlock()

	observability.PrintQueueDepth.Set(0)
	if dropped > 0 {
		p.logger.Debug("queue cleared", zap.Int("dropped", dropped))
	}
	if undisplay && e != nil {
		p.skipEntry(e, "clear")
	}
}

// IsRunning reports whether a print is on screen or waiting in the queue.
func (p *Printer) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running || len(p.queue) > 0
}

// Pending returns the number of queued prints, excluding the one being processed.
func (p *Printer) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// SetDisplayTime changes the default display time for future prints.
// Prints already queued keep the time they were given.
func (p *Printer) SetDisplayTime(d time.Duration) error {
	if err := validation.ValidateDisplayTime(d); err != nil {
		return err
	}
	p.mu.Lock()
	p.displayTime = d
	p.mu.Unlock()
	return nil
}

// DisplayTime returns the default display time. Zero means unset.
func (p *Printer) DisplayTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.displayTime
}

// SetRefreshRate changes how often waits check for a skip. A wait already in
// progress keeps its rate; every later wait, including for queued prints, uses the new one.
func (p *Printer) SetRefreshRate(d time.Duration) {
	p.mu.Lock()
	p.refreshRate = d
	p.mu.Unlock()
}

// RefreshRate returns the current refresh rate.
func (p *Printer) RefreshRate() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshRate
}

// Wait blocks until the queue is drained and the worker has exited, or ctx is done.
func (p *Printer) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		if !p.running && len(p.queue) == 0 {
			p.mu.Unlock()
			return nil
		}
		done := p.done
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	}
}

// Close clears the queue, skips the print on screen and waits for the worker.
// The printer remains usable afterwards.
func (p *Printer) Close(ctx context.Context) error {
	p.Clear(true)
	return p.Wait(ctx)
}
