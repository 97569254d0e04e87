package capture_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
	"github.com/haivivi/tably/go/pkg/capture"
)

// 100ms frames at 16kHz.
const testChunk = 1600

func tone(amp int16) capture.Frame {
	f := make(capture.Frame, testChunk)
	for i := range f {
		f[i] = amp
	}
	return f
}

func quiet() capture.Frame { return tone(0) }
func loud() capture.Frame  { return tone(1000) }

type sliceSource struct {
	frames []capture.Frame
	i      int
}

func (s *sliceSource) NextFrame(context.Context) (capture.Frame, error) {
	if s.i >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.i]
	s.i++
	return f, nil
}

func testRecorder() *capture.Recorder {
	return capture.NewRecorder(pcm.L16Mono16K, &capture.RecorderOptions{
		SilenceDuration:  300 * time.Millisecond,
		MaxUtterance:     2 * time.Second,
		PreSpeechTimeout: 500 * time.Millisecond,
		MinSpeech:        150 * time.Millisecond,
	})
}

func TestRecordEndpointsOnSilence(t *testing.T) {
	src := &sliceSource{frames: []capture.Frame{
		quiet(),
		loud(), loud(), loud(), loud(),
		quiet(), quiet(), quiet(),
		loud(), // never reached
	}}
	u, err := testRecorder().Record(context.Background(), src)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Speech plus the trailing silence window, not the leading quiet.
	if got := len(u.Samples); got != 7*testChunk {
		t.Errorf("len(Samples) = %d, want %d", got, 7*testChunk)
	}
	if got := u.Duration(); got != 700*time.Millisecond {
		t.Errorf("Duration = %v, want 700ms", got)
	}
	if !u.End.Equal(u.Start.Add(700 * time.Millisecond)) {
		t.Errorf("End = %v, want Start+700ms", u.End)
	}
	if src.i != 8 {
		t.Errorf("consumed %d frames, want 8", src.i)
	}
}

func TestRecordNoSpeechTimeout(t *testing.T) {
	src := &sliceSource{frames: []capture.Frame{
		quiet(), quiet(), quiet(), quiet(), quiet(), quiet(),
	}}
	_, err := testRecorder().Record(context.Background(), src)
	if !errors.Is(err, capture.ErrNoSpeech) {
		t.Fatalf("Record = %v, want ErrNoSpeech", err)
	}
}

func TestRecordHardCap(t *testing.T) {
	frames := make([]capture.Frame, 25)
	for i := range frames {
		frames[i] = loud()
	}
	u, err := testRecorder().Record(context.Background(), &sliceSource{frames: frames})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// 2s cap at 100ms frames.
	if got := len(u.Samples); got != 20*testChunk {
		t.Errorf("len(Samples) = %d, want %d", got, 20*testChunk)
	}
}

func TestRecordDiscardsShortBurst(t *testing.T) {
	// One 100ms burst is below the 150ms minimum: back to waiting,
	// and the pre-speech timeout still ends the capture.
	src := &sliceSource{frames: []capture.Frame{
		loud(),
		quiet(), quiet(), quiet(), quiet(),
	}}
	_, err := testRecorder().Record(context.Background(), src)
	if !errors.Is(err, capture.ErrNoSpeech) {
		t.Fatalf("Record = %v, want ErrNoSpeech", err)
	}
}

func TestRecordBurstThenSpeech(t *testing.T) {
	src := &sliceSource{frames: []capture.Frame{
		loud(),
		quiet(), quiet(), quiet(),
		loud(), loud(), loud(),
		quiet(), quiet(), quiet(),
	}}
	u, err := testRecorder().Record(context.Background(), src)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// The discarded burst must not leak into the utterance.
	if got := len(u.Samples); got != 6*testChunk {
		t.Errorf("len(Samples) = %d, want %d", got, 6*testChunk)
	}
}

func TestRecordSourceEOF(t *testing.T) {
	_, err := testRecorder().Record(context.Background(), &sliceSource{})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Record = %v, want io.EOF", err)
	}
}

func TestRecordContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testRecorder().Record(ctx, &sliceSource{frames: []capture.Frame{loud()}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Record = %v, want context.Canceled", err)
	}
}

func TestFrameEnergy(t *testing.T) {
	tests := []struct {
		frame capture.Frame
		want  int
	}{
		{nil, 0},
		{capture.Frame{1000, -1000}, 1000},
		{capture.Frame{0, 0, 300, -300}, 150},
	}
	for _, tt := range tests {
		if got := tt.frame.Energy(); got != tt.want {
			t.Errorf("Energy(%v) = %d, want %d", tt.frame, got, tt.want)
		}
	}
}
