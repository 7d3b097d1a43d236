// Package capture correlates process output with an issued operator
// command: lines arriving inside a bounded time window after the command
// are attributed to it.
package capture

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/server-relay/relayd/internal/ringlog"
)

// ErrBusy is returned when a window is opened while another is active.
var ErrBusy = errors.New("a command capture is already in progress")

// Window is a single-slot capture window. At most one capture is active at
// a time; opening while active is rejected, never queued. All methods are
// called from the orchestrator loop only; the one-shot timer callback does
// nothing but hand the window ID to the elapsed handler.
type Window struct {
	scratch   *ringlog.Buffer
	delay     time.Duration
	onElapsed func(id string)

	active bool
	id     string
	timer  *time.Timer
}

func NewWindow(capacity int, delay time.Duration) *Window {
	return &Window{
		scratch: ringlog.New(capacity),
		delay:   delay,
	}
}

// SetElapsedHandler registers the callback invoked (from the timer
// goroutine) when the window's timer fires. The handler should enqueue an
// event carrying the ID back to the orchestrator, nothing more.
func (w *Window) SetElapsedHandler(fn func(id string)) {
	w.onElapsed = fn
}

// Open starts a capture window and arms its one-shot timer. It returns the
// window ID, or ErrBusy if a window is already active.
func (w *Window) Open() (string, error) {
	if w.active {
		return "", ErrBusy
	}

	w.scratch.Reset()
	w.active = true
	w.id = uuid.NewString()

	id := w.id
	w.timer = time.AfterFunc(w.delay, func() {
		if w.onElapsed != nil {
			w.onElapsed(id)
		}
	})
	return w.id, nil
}

// Observe appends a process output line to the scratch buffer while the
// window is active.
func (w *Window) Observe(line string) {
	if w.active {
		w.scratch.Append(line)
	}
}

// Active reports whether a capture is in progress.
func (w *Window) Active() bool {
	return w.active
}

// Close deactivates the window identified by id and returns the captured
// text. A stale id (from a window that was already superseded) is ignored.
func (w *Window) Close(id string) (string, bool) {
	if !w.active || w.id != id {
		return "", false
	}
	w.active = false
	w.timer = nil
	return w.scratch.String(), true
}

// Cancel stops any pending timer and deactivates the window without
// delivering a result. Used on shutdown.
func (w *Window) Cancel() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.active = false
}
