package tempprint

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kjstillabower/tempprint/internal/observability"
)

// Entry is one pending print request.
type Entry struct {
	ID          uuid.UUID
	Text        string
	DisplayTime time.Duration // temporary prints only
	Delay       time.Duration // before the text appears
	PostDelay   time.Duration // after display, before erasing
	Persistent  bool
	Flush       bool
	Writer      io.Writer // nil: printer's writer
	Priority    bool
	Overwrite   bool

	stopOnce sync.Once
	stop     chan struct{}
}

func (e *Entry) kind() string {
	if e.Persistent {
		return observability.KindPersistent
	}
	return observability.KindTemporary
}

// skip ends the entry's remaining waits. Safe to call more than once.
func (e *Entry) skip() bool {
	first := false
	e.stopOnce.Do(func() {
		close(e.stop)
		first = true
	})
	return first
}

func (e *Entry) skipped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// request collects options before an Entry is built.
type request struct {
	entry Entry
	sep   string
	end   string

	temporary bool
}

// Option customizes a single print.
type Option func(*request)

// WithDisplayTime sets how long temporary text stays visible. Zero or negative
// falls back to the printer default.
func WithDisplayTime(d time.Duration) Option {
	return func(r *request) { r.entry.DisplayTime = d }
}

// WithSep sets the string inserted between values. Defaults to a single space.
func WithSep(sep string) Option {
	return func(r *request) { r.sep = sep }
}

// WithEnd sets the string appended after the last value. Defaults to empty.
func WithEnd(end string) Option {
	return func(r *request) { r.end = end }
}

// WithFlush flushes the writer after the text is written, when it supports Flush or Sync.
func WithFlush() Option {
	return func(r *request) { r.entry.Flush = true }
}

// WithWriter sends this print to w instead of the printer's writer.
func WithWriter(w io.Writer) Option {
	return func(r *request) { r.entry.Writer = w }
}

// WithPriority puts the print at the front of the queue.
func WithPriority() Option {
	return func(r *request) { r.entry.Priority = true }
}

// WithOverwrite is WithPriority plus skipping whatever is currently displayed.
func WithOverwrite() Option {
	return func(r *request) { r.entry.Overwrite = true }
}

// Persistent writes the text followed by a newline and never erases it.
// Persistent text may contain newlines and carriage returns.
func Persistent() Option {
	return func(r *request) {
		r.entry.Persistent = true
		r.temporary = false
	}
}

// Temporary undoes an earlier Persistent. Package-level prints need it, or a
// display time, to be erased.
func Temporary() Option {
	return func(r *request) {
		r.entry.Persistent = false
		r.temporary = true
	}
}

// WithDelay waits d before the text is written.
func WithDelay(d time.Duration) Option {
	return func(r *request) { r.entry.Delay = d }
}

// WithPostDelay waits d after the text has been displayed. For temporary
// prints the wait happens before erasing.
func WithPostDelay(d time.Duration) Option {
	return func(r *request) { r.entry.PostDelay = d }
}
