package speech

import (
	"context"

	"github.com/haivivi/tably/go/pkg/capture"
)

// NullEngine is the engine path of the always-available null transcriber.
const NullEngine = "local/null"

func init() {
	if err := HandleASR(NullEngine, Null{}); err != nil {
		panic(err)
	}
}

// Null accepts any utterance and produces an empty transcript. It keeps
// a pipeline runnable with no speech engine configured; the controller
// treats the empty text as a low-confidence result.
type Null struct{}

var _ Transcriber = Null{}

// Transcribe returns an empty transcript.
func (Null) Transcribe(context.Context, string, *capture.Utterance) (*Transcript, error) {
	return &Transcript{}, nil
}
