// Package resampler converts 16-bit PCM from a capture source format
// into the mono pipeline rate. It handles sample rate conversion and
// stereo downmixing in a streaming io.Reader, so sources that deliver
// 44.1k/48k or stereo audio feed the 16k mono dialogue pipeline
// unchanged downstream.
package resampler

import (
	"fmt"
	"io"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
)

// Format describes a capture source: 16-bit signed samples at
// SampleRate, stereo when Stereo is set.
type Format struct {
	SampleRate int  `json:"sample_rate" yaml:"sample_rate"`
	Stereo     bool `json:"stereo,omitempty" yaml:"stereo,omitempty"`
}

func (f Format) sampleBytes() int {
	if f.Stereo {
		return 4
	}
	return 2
}

// Reader streams src converted to mono 16-bit PCM at the target rate.
// Close releases the converter; CloseWithError makes later Reads fail
// with the given error.
type Reader struct {
	from    Format
	dstRate int
	ratio   float64
	src     io.Reader

	mu       sync.Mutex
	conv     resampling.Resampler
	readBuf  []byte
	leftover []byte
	closeErr error
	closed   bool
}

var _ io.ReadCloser = (*Reader)(nil)

// New wraps src, a stream of raw samples in the from format, as a mono
// stream at dstRate. Same-rate mono sources pass through with only
// alignment buffering.
func New(src io.Reader, from Format, dstRate int) (*Reader, error) {
	if from.SampleRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", from.SampleRate, dstRate)
	}
	r := &Reader{
		from:    from,
		dstRate: dstRate,
		ratio:   float64(from.SampleRate) / float64(dstRate),
		src:     newSampleReader(src, from.sampleBytes()),
	}
	if from.SampleRate != dstRate {
		conv, err := resampling.New(&resampling.Config{
			InputRate:  float64(from.SampleRate),
			OutputRate: float64(dstRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		r.conv = conv
	}
	return r, nil
}

// Read fills p with converted mono samples. Not safe for concurrent
// use. A short final chunk from the source is returned alongside its
// error, io.Reader style.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/2*2]

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}
	if r.closed {
		return 0, r.closeErr
	}

	n, readErr := r.fill(len(p))
	if n == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	if r.conv == nil {
		return copy(p, r.readBuf[:n]), readErr
	}

	in := pcm.DecodeInt16(r.readBuf[:n])
	input := make([]float64, len(in))
	for i, s := range in {
		input[i] = float64(s) / 32768.0
	}
	output, err := r.conv.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	out := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s >= 1.0:
			out[i] = 32767
		case s <= -1.0:
			out[i] = -32768
		default:
			out[i] = int16(s * 32767.0)
		}
	}
	data := pcm.EncodeInt16(out)
	copied := copy(p, data)
	if copied < len(data) {
		r.leftover = append(r.leftover, data[copied:]...)
	}
	return copied, readErr
}

// fill reads enough source data to produce about dstLen output bytes,
// downmixing stereo in place. Returns mono source-rate bytes.
func (r *Reader) fill(dstLen int) (int, error) {
	want := dstLen
	if r.conv != nil {
		want = int(float64(dstLen)*r.ratio) + 8
	}
	srcLen := want
	if r.from.Stereo {
		srcLen *= 2
	}
	if cap(r.readBuf) < srcLen {
		r.readBuf = make([]byte, srcLen)
	}
	n, err := r.src.Read(r.readBuf[:srcLen])
	if r.from.Stereo && n > 0 {
		n = stereoToMono(r.readBuf[:n])
	}
	return n, err
}

// Close marks the reader closed. Later Reads return io.ErrClosedPipe
// after any leftover converted samples drain.
func (r *Reader) Close() error {
	return r.CloseWithError(nil)
}

// CloseWithError closes the reader with a custom error. A nil err
// means io.ErrClosedPipe.
func (r *Reader) CloseWithError(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if err == nil {
		err = io.ErrClosedPipe
	}
	r.closed = true
	r.closeErr = err
	return nil
}

// stereoToMono averages interleaved L/R 16-bit samples in place and
// returns the mono byte length.
func stereoToMono(b []byte) int {
	frames := len(b) / 4
	for i := range frames {
		j := i * 4
		k := i * 2
		l := int16(b[j]) | int16(b[j+1])<<8
		rr := int16(b[j+2]) | int16(b[j+3])<<8
		m := int16((int32(l) + int32(rr)) / 2)
		b[k] = byte(m)
		b[k+1] = byte(m >> 8)
	}
	return frames * 2
}
