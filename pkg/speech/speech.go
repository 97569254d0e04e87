// Package speech is the spoken I/O boundary of the ordering pipeline:
// transcribers turn a captured utterance into text, renderers speak a
// response line back to the customer.
//
// Transcribers register on a multiplexer under an engine path such as
// "openai/whisper-1" or "genai/gemini-2.0-flash"; wildcard patterns
// ("openai/+") let one engine serve a whole model family. The
// "local/null" engine is always registered so a pipeline can run with
// no speech stack configured.
package speech

import (
	"context"
	"fmt"

	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/trie"
)

// Transcript is the text of one utterance and the engine's confidence
// in it, 0 to 1. Immutable; one per utterance.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber converts a finished utterance into a transcript. The
// engine path that resolved to the transcriber is passed through so a
// wildcard registration can pick the concrete model.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error)
}

// TranscribeFunc is an adapter to allow the use of ordinary functions
// as Transcribers.
type TranscribeFunc func(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error)

// Transcribe calls the underlying function.
func (f TranscribeFunc) Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	return f(ctx, name, utt)
}

// ASR is a multiplexer for transcribers. It routes transcription
// requests to the registered engine whose pattern matches the name.
type ASR struct {
	mux *trie.Trie[Transcriber]
}

var _ Transcriber = (*ASR)(nil)

// NewASRMux creates and returns a new ASR multiplexer.
func NewASRMux() *ASR {
	return &ASR{
		mux: trie.New[Transcriber](),
	}
}

// Handle registers a Transcriber for the given engine pattern.
func (m *ASR) Handle(pattern string, transcriber Transcriber) error {
	return m.mux.Add(pattern, transcriber)
}

// HandleFunc registers a TranscribeFunc for the given engine pattern.
func (m *ASR) HandleFunc(pattern string, f TranscribeFunc) error {
	return m.Handle(pattern, f)
}

// Transcribe dispatches the utterance to the engine registered for name.
func (m *ASR) Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	t, _, ok := m.mux.Lookup(name)
	if !ok || t == nil {
		return nil, fmt.Errorf("speech: transcriber not found for %s", name)
	}
	return t.Transcribe(ctx, name, utt)
}

// Engines returns the registered engine patterns, sorted.
func (m *ASR) Engines() []string {
	return m.mux.Patterns()
}

// ASRMux is the default multiplexer for transcribers.
var ASRMux = NewASRMux()

// HandleASR registers a Transcriber with the default mux.
func HandleASR(pattern string, transcriber Transcriber) error {
	return ASRMux.Handle(pattern, transcriber)
}

// HandleASRFunc registers a TranscribeFunc with the default mux.
func HandleASRFunc(pattern string, f TranscribeFunc) error {
	return ASRMux.HandleFunc(pattern, f)
}

// Transcribe transcribes an utterance using the default mux.
func Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	return ASRMux.Transcribe(ctx, name, utt)
}
