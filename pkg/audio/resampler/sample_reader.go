package resampler

import "io"

// sampleReader aligns reads from an arbitrary io.Reader to whole
// samples, buffering any partial tail until the next call. Capture
// sources and pipes deliver byte counts with no regard for sample
// boundaries.
type sampleReader struct {
	buffer     []byte
	buffered   int
	sampleSize int
	r          io.Reader
}

func newSampleReader(r io.Reader, sampleSize int) *sampleReader {
	return &sampleReader{
		buffer:     make([]byte, sampleSize-1),
		sampleSize: sampleSize,
		r:          r,
	}
}

// Read returns 0 or a multiple of sampleSize bytes, except at EOF
// where a truncated final sample surfaces as io.ErrUnexpectedEOF.
func (sr *sampleReader) Read(p []byte) (n int, err error) {
	if len(p) < sr.sampleSize {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/sr.sampleSize*sr.sampleSize]
	if sr.buffered > 0 {
		n = copy(p, sr.buffer[:sr.buffered])
		sr.buffered = 0
	}

	rn, err := sr.r.Read(p[n:])
	n += rn
	if err != nil {
		if n%sr.sampleSize != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if mod := n % sr.sampleSize; mod != 0 {
		n -= mod
		copy(sr.buffer[:mod], p[n:n+mod])
		sr.buffered = mod
	}
	return n, nil
}
