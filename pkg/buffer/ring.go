// Package buffer provides the bounded lossy queue that decouples audio
// capture from the dialogue loop. The producer never blocks; when the ring
// is full the oldest element is overwritten and counted as dropped.
package buffer

import (
	"fmt"
	"io"
	"sync"
)

// Ring is a thread-safe bounded FIFO. Push overwrites the oldest element
// when the ring is full instead of blocking, so a slow consumer sees the
// most recent window of data rather than stalling the producer.
type Ring[T any] struct {
	notify chan struct{}

	mu         sync.Mutex
	buf        []T
	head, tail int64
	dropped    uint64
	closeWrite bool
	closeErr   error
}

// NewRing creates a Ring holding at most capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("buffer: ring capacity must be positive")
	}
	return &Ring[T]{
		notify: make(chan struct{}, 1),
		buf:    make([]T, capacity),
	}
}

// Push appends v, overwriting the oldest element when the ring is full.
// It never blocks on the consumer.
func (r *Ring[T]) Push(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		return fmt.Errorf("buffer: push to closed ring: %w", r.closeErr)
	}
	if r.closeWrite {
		return fmt.Errorf("buffer: push to closed ring: %w", io.ErrClosedPipe)
	}
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
		r.dropped++
	}
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// Next removes and returns the oldest element. It blocks until an element
// is available or the ring is closed. After CloseWrite it drains the
// remaining elements and then returns io.EOF.
func (r *Ring[T]) Next() (v T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		err = fmt.Errorf("buffer: read from closed ring: %w", r.closeErr)
		return
	}
	for r.head == r.tail {
		if r.closeWrite {
			err = io.EOF
			return
		}
		r.mu.Unlock()
		<-r.notify
		r.mu.Lock()
		if r.closeErr != nil {
			err = fmt.Errorf("buffer: read from closed ring: %w", r.closeErr)
			return
		}
	}
	v = r.buf[r.head%int64(len(r.buf))]
	r.head++
	return v, nil
}

// Len returns the number of elements currently buffered.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Dropped returns the cumulative number of elements overwritten by Push.
func (r *Ring[T]) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Snapshot returns a copy of the buffered elements, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.tail - r.head)
	out := make([]T, 0, n)
	for i := range n {
		out = append(out, r.buf[(r.head+int64(i))%int64(len(r.buf))])
	}
	return out
}

// Reset discards all buffered elements. The drop counter is retained.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = r.tail
}

// CloseWrite stops further pushes. Pending and future Next calls drain the
// remaining elements, then return io.EOF.
func (r *Ring[T]) CloseWrite() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeWrite {
		return nil
	}
	r.closeWrite = true
	close(r.notify)
	return nil
}

// CloseWithError closes both sides with err. Blocked and future calls fail
// with the error. A nil err is replaced by io.ErrClosedPipe.
func (r *Ring[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeErr != nil {
		return nil
	}
	r.closeErr = err
	if !r.closeWrite {
		r.closeWrite = true
		close(r.notify)
	}
	return nil
}

// Close closes the ring. Equivalent to CloseWithError(io.ErrClosedPipe).
func (r *Ring[T]) Close() error {
	return r.CloseWithError(io.ErrClosedPipe)
}

// Error returns the error the ring was closed with, if any.
func (r *Ring[T]) Error() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeErr
}
