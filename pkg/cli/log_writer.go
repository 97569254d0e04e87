package cli

import (
	"strings"

	"github.com/haivivi/tably/go/pkg/buffer"
)

// LogWriter adapts log output into the frame's log section. It keeps
// the newest lines in a ring and signals arrivals on a channel so the
// view can redraw promptly instead of waiting for its tick.
type LogWriter struct {
	ring     *buffer.Ring[string]
	arrivals chan struct{}
}

// NewLogWriter returns a writer keeping the last keep lines.
func NewLogWriter(keep int) *LogWriter {
	return &LogWriter{
		ring:     buffer.NewRing[string](keep),
		arrivals: make(chan struct{}, 1),
	}
}

// Write splits p into lines and records each one. It never fails, so
// it is safe as an slog sink.
func (w *LogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.ring.Push(line)
	}
	select {
	case w.arrivals <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	return w.ring.Snapshot()
}

// Channel signals after new lines arrive. Signals coalesce; read
// Lines for the content.
func (w *LogWriter) Channel() <-chan struct{} {
	return w.arrivals
}
