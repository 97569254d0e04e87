// Package audio is the umbrella for audio sub-packages:
//
//   - pcm: sample formats and []int16 frame helpers
//   - resampler: source-rate adaptation for capture inputs
//
// Example usage:
//
//	import "github.com/haivivi/tably/go/pkg/audio/pcm"
//
//	format := pcm.L16Mono16K
//	dur := format.Duration(int64(len(samples)))
package audio
