// Package capture turns a raw audio stream into endpointed utterances.
//
// A Source yields fixed-size frames of mono 16-bit samples. The
// Recorder watches frame energy to find where speech starts and stops
// and hands the spanned samples to transcription as one Utterance.
// QueueSource decouples a live producer from the dialogue loop with a
// bounded drop-oldest queue, so capture never blocks on a slow
// consumer.
package capture

import (
	"context"
	"errors"
	"time"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
)

// ErrNoSpeech reports that no speech crossed the energy threshold
// before the pre-speech timeout. Callers retry silently; the customer
// simply has not spoken yet.
var ErrNoSpeech = errors.New("capture: no speech detected")

// Frame is one chunk of mono 16-bit samples.
type Frame []int16

// Energy returns the mean absolute amplitude of the frame, the
// voice-activity measure endpointing decisions run on.
func (f Frame) Energy() int {
	if len(f) == 0 {
		return 0
	}
	var sum int64
	for _, s := range f {
		if s < 0 {
			sum -= int64(s)
		} else {
			sum += int64(s)
		}
	}
	return int(sum / int64(len(f)))
}

// Source yields successive audio frames. io.EOF ends the stream.
type Source interface {
	NextFrame(ctx context.Context) (Frame, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Frame, error)

// NextFrame calls f.
func (f SourceFunc) NextFrame(ctx context.Context) (Frame, error) {
	return f(ctx)
}

// Utterance is one endpointed stretch of speech, spanning the first
// speech frame through the trailing silence window. It is immutable
// once returned by the Recorder.
type Utterance struct {
	Samples []int16
	Format  pcm.Format
	Start   time.Time
	End     time.Time
}

// Duration returns the audio length of the utterance.
func (u *Utterance) Duration() time.Duration {
	return u.Format.Duration(int64(len(u.Samples)))
}
