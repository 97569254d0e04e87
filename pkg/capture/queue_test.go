package capture_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
	"github.com/haivivi/tably/go/pkg/capture"
)

func TestQueueSourceDropsOldest(t *testing.T) {
	frames := make([]capture.Frame, 6)
	for i := range frames {
		frames[i] = capture.Frame{int16(i)}
	}
	q := capture.NewQueueSource(4)
	if err := q.Run(context.Background(), &sliceSource{frames: frames}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := q.Dropped(); got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
	ctx := context.Background()
	for want := 2; want < 6; want++ {
		f, err := q.NextFrame(ctx)
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		if f[0] != int16(want) {
			t.Errorf("frame = %d, want %d", f[0], want)
		}
	}
	if _, err := q.NextFrame(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("NextFrame after drain = %v, want io.EOF", err)
	}
}

func TestQueueSourceConcurrent(t *testing.T) {
	frames := make([]capture.Frame, 16)
	for i := range frames {
		frames[i] = quiet()
	}
	q := capture.NewQueueSource(64)
	done := make(chan error, 1)
	go func() {
		done <- q.Run(context.Background(), &sliceSource{frames: frames})
	}()
	ctx := context.Background()
	var got int
	for {
		_, err := q.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		got++
	}
	if got != 16 {
		t.Errorf("received %d frames, want 16", got)
	}
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

type errSource struct {
	err error
}

func (s *errSource) NextFrame(context.Context) (capture.Frame, error) {
	return nil, s.err
}

func TestQueueSourceError(t *testing.T) {
	errMic := errors.New("mic unplugged")
	q := capture.NewQueueSource(4)
	if err := q.Run(context.Background(), &errSource{err: errMic}); !errors.Is(err, errMic) {
		t.Fatalf("Run = %v, want errMic", err)
	}
	if _, err := q.NextFrame(context.Background()); !errors.Is(err, errMic) {
		t.Fatalf("NextFrame = %v, want errMic", err)
	}
}

func TestQueueSourceRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := capture.NewQueueSource(4)
	blocked := capture.SourceFunc(func(ctx context.Context) (capture.Frame, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if err := q.Run(ctx, blocked); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if _, err := q.NextFrame(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("NextFrame = %v, want context.Canceled", err)
	}
}

func TestReaderSourceFrames(t *testing.T) {
	samples := make([]int16, 10)
	for i := range samples {
		samples[i] = int16(i + 1)
	}
	src := capture.NewReaderSource(bytes.NewReader(pcm.EncodeInt16(samples)), 4)
	ctx := context.Background()

	var got []int16
	sizes := []int{}
	for {
		f, err := src.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		sizes = append(sizes, len(f))
		got = append(got, f...)
	}
	if want := []int{4, 4, 2}; len(sizes) != 3 || sizes[0] != want[0] || sizes[1] != want[1] || sizes[2] != want[2] {
		t.Errorf("frame sizes = %v, want %v", sizes, []int{4, 4, 2})
	}
	for i, s := range got {
		if s != int16(i+1) {
			t.Fatalf("sample %d = %d, want %d", i, s, i+1)
		}
	}
}

func TestReaderSourceEmpty(t *testing.T) {
	src := capture.NewReaderSource(bytes.NewReader(nil), 4)
	if _, err := src.NextFrame(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("NextFrame = %v, want io.EOF", err)
	}
}
