package speech

import (
	"encoding/binary"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
)

// EncodeWAV wraps samples in a minimal RIFF/WAVE container, the upload
// format the cloud transcribers expect.
func EncodeWAV(format pcm.Format, samples []int16) []byte {
	data := pcm.EncodeInt16(samples)

	out := make([]byte, 44+len(data))
	le := binary.LittleEndian
	copy(out[0:], "RIFF")
	le.PutUint32(out[4:], uint32(36+len(data)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	le.PutUint32(out[16:], 16) // PCM fmt chunk size
	le.PutUint16(out[20:], 1)  // linear PCM
	le.PutUint16(out[22:], uint16(format.Channels()))
	le.PutUint32(out[24:], uint32(format.SampleRate()))
	le.PutUint32(out[28:], uint32(format.BytesRate()))
	le.PutUint16(out[32:], uint16(format.Channels()*format.Depth()/8))
	le.PutUint16(out[34:], uint16(format.Depth()))
	copy(out[36:], "data")
	le.PutUint32(out[40:], uint32(len(data)))
	copy(out[44:], data)
	return out
}
