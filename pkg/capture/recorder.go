package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
)

// Recorder defaults, tuned for a counter-top microphone.
const (
	DefaultSilenceThreshold = 500
	DefaultSilenceDuration  = 1500 * time.Millisecond
	DefaultMaxUtterance     = 10 * time.Second
	DefaultPreSpeechTimeout = 6 * time.Second
	DefaultMinSpeech        = 300 * time.Millisecond
)

// RecorderOptions tunes endpointing. Zero fields take the defaults.
type RecorderOptions struct {
	// SilenceThreshold is the frame energy below which a frame counts
	// as silence, on the int16 amplitude scale.
	SilenceThreshold int
	// SilenceDuration of trailing silence that ends an utterance.
	SilenceDuration time.Duration
	// MaxUtterance caps a single capture regardless of silence.
	MaxUtterance time.Duration
	// PreSpeechTimeout bounds how long to wait for speech to start.
	PreSpeechTimeout time.Duration
	// MinSpeech is the shortest burst that counts as speech; shorter
	// ones are discarded as noise and the wait continues.
	MinSpeech time.Duration
}

func (o *RecorderOptions) withDefaults() RecorderOptions {
	out := RecorderOptions{}
	if o != nil {
		out = *o
	}
	if out.SilenceThreshold == 0 {
		out.SilenceThreshold = DefaultSilenceThreshold
	}
	if out.SilenceDuration == 0 {
		out.SilenceDuration = DefaultSilenceDuration
	}
	if out.MaxUtterance == 0 {
		out.MaxUtterance = DefaultMaxUtterance
	}
	if out.PreSpeechTimeout == 0 {
		out.PreSpeechTimeout = DefaultPreSpeechTimeout
	}
	if out.MinSpeech == 0 {
		out.MinSpeech = DefaultMinSpeech
	}
	return out
}

// Recorder captures one utterance at a time from a frame source.
type Recorder struct {
	format pcm.Format
	opts   RecorderOptions
}

// NewRecorder returns a recorder for format. opts may be nil.
func NewRecorder(format pcm.Format, opts *RecorderOptions) *Recorder {
	return &Recorder{format: format, opts: opts.withDefaults()}
}

// Record accumulates frames until trailing silence ends the utterance
// or the hard cap is hit. Time is counted in samples, so file and
// simulated sources endpoint exactly like live ones.
//
// No speech before the pre-speech timeout returns ErrNoSpeech. Bursts
// shorter than MinSpeech are dropped as noise and waiting resumes,
// still bounded by the same timeout. Source errors, including io.EOF,
// pass through wrapped.
func (r *Recorder) Record(ctx context.Context, src Source) (*Utterance, error) {
	silenceWin := int(r.format.SamplesInDuration(r.opts.SilenceDuration))
	maxSamples := int(r.format.SamplesInDuration(r.opts.MaxUtterance))
	preSamples := int(r.format.SamplesInDuration(r.opts.PreSpeechTimeout))
	minSpeech := int(r.format.SamplesInDuration(r.opts.MinSpeech))

	var (
		buf           []int16
		speechStarted bool
		silence       int
		total         int
		speechAt      time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := src.NextFrame(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture: read frame: %w", err)
		}
		total += len(frame)

		switch {
		case frame.Energy() >= r.opts.SilenceThreshold:
			if !speechStarted {
				speechStarted = true
				speechAt = time.Now()
			}
			silence = 0
			buf = append(buf, frame...)

		case speechStarted:
			silence += len(frame)
			buf = append(buf, frame...)
			if silence >= silenceWin {
				if len(buf)-silence < minSpeech {
					// Noise burst, not speech. Back to waiting.
					buf = buf[:0]
					speechStarted = false
					silence = 0
					if total >= preSamples {
						return nil, ErrNoSpeech
					}
					continue
				}
				return r.utterance(buf, speechAt), nil
			}

		default:
			if total >= preSamples {
				return nil, ErrNoSpeech
			}
		}

		if total >= maxSamples {
			if !speechStarted {
				return nil, ErrNoSpeech
			}
			return r.utterance(buf, speechAt), nil
		}
	}
}

func (r *Recorder) utterance(samples []int16, start time.Time) *Utterance {
	return &Utterance{
		Samples: samples,
		Format:  r.format,
		Start:   start,
		End:     start.Add(r.format.Duration(int64(len(samples)))),
	}
}
