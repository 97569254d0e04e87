package capture

import (
	"context"
	"errors"
	"io"

	"github.com/haivivi/tably/go/pkg/buffer"
)

// DefaultQueueFrames is the queue capacity when none is configured.
// At 1024-sample frames and 16 kHz this buffers about four seconds.
const DefaultQueueFrames = 64

// QueueSource sits between a live frame producer and the dialogue
// consumer. The producer side never blocks: when the consumer falls
// behind, the oldest frames are dropped. Audio frames are latency
// sensitive, not durable.
type QueueSource struct {
	ring *buffer.Ring[Frame]
}

var _ Source = (*QueueSource)(nil)

// NewQueueSource returns a queue holding up to capacity frames.
// capacity < 1 means DefaultQueueFrames.
func NewQueueSource(capacity int) *QueueSource {
	if capacity < 1 {
		capacity = DefaultQueueFrames
	}
	return &QueueSource{ring: buffer.NewRing[Frame](capacity)}
}

// Run pumps src into the queue until the source ends or ctx is
// canceled. Source EOF closes the queue for writing so the consumer
// drains the remaining frames; any other error tears the queue down
// and surfaces on the consumer side too.
func (q *QueueSource) Run(ctx context.Context, src Source) error {
	for {
		frame, err := src.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				q.ring.CloseWrite()
				return nil
			}
			q.ring.CloseWithError(err)
			return err
		}
		if err := q.ring.Push(frame); err != nil {
			return err
		}
	}
}

// NextFrame returns the oldest queued frame, blocking until one
// arrives. After the producer stops it drains the queue, then
// reports the producer's end: io.EOF or its error.
func (q *QueueSource) NextFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.ring.Next()
}

// Dropped returns how many frames were discarded to keep the
// producer from blocking.
func (q *QueueSource) Dropped() uint64 {
	return q.ring.Dropped()
}

// Close tears the queue down from the consumer side.
func (q *QueueSource) Close() error {
	return q.ring.Close()
}
