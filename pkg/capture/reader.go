package capture

import (
	"context"
	"io"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
)

// ReaderSource frames a stream of raw little-endian 16-bit PCM. Rate
// or channel conversion belongs upstream (see pkg/audio/resampler);
// by the time bytes reach a ReaderSource they are pipeline-format
// mono samples.
type ReaderSource struct {
	r     io.Reader
	chunk int
	buf   []byte
}

var _ Source = (*ReaderSource)(nil)

// NewReaderSource reads frames of chunk samples from r.
func NewReaderSource(r io.Reader, chunk int) *ReaderSource {
	if chunk < 1 {
		panic("capture: chunk must be at least 1 sample")
	}
	return &ReaderSource{r: r, chunk: chunk}
}

// NextFrame reads the next frame. A short final read is delivered as
// a partial frame; the call after it returns io.EOF.
func (s *ReaderSource) NextFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	need := s.chunk * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	n, err := io.ReadFull(s.r, s.buf[:need])
	if n == 0 {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return Frame(pcm.DecodeInt16(s.buf[:n])), err
}
