// Package wake turns continuous audio frames into wake-word triggers.
// A Detector scores each frame window against one or more keyword
// models; the Gate applies the trigger policy (confidence threshold,
// per-keyword cooldown) on top of any detector.
//
// Detector models are registered by name so the configured
// wake_word.model resolves through a registry, like the speech engines.
// An energy-based reference model ships as "hey_tably".
package wake

import (
	"fmt"
	"time"

	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/trie"
)

// Event is one keyword score for the window ending at a frame. The
// controller consumes a triggering event once and never retains it.
type Event struct {
	Keyword string    `json:"keyword"`
	Score   float64   `json:"score"`
	Time    time.Time `json:"time"`
}

// Detector scores audio frames against keyword models. Process returns
// one event per model for the window ending at this frame; threshold
// policy belongs to the caller, not the detector.
type Detector interface {
	Process(frame capture.Frame) []Event

	// Reset clears internal scoring state, e.g. after a trigger has
	// been acted on.
	Reset()
}

// DetectorFunc adapts a scoring function to the Detector interface with
// a no-op Reset.
type DetectorFunc func(frame capture.Frame) []Event

// Process calls the underlying function.
func (f DetectorFunc) Process(frame capture.Frame) []Event { return f(frame) }

// Reset does nothing.
func (DetectorFunc) Reset() {}

// Factory builds a Detector for a model name resolved from the
// registry. The matched name is passed through so one factory can serve
// a wildcard pattern.
type Factory func(name string) (Detector, error)

var models = trie.New[Factory]()

// Register makes a detector factory available under the given pattern.
// Engines typically register from an init function.
func Register(pattern string, f Factory) error {
	return models.Add(pattern, f)
}

// New builds the detector registered under name.
func New(name string) (Detector, error) {
	f, _, ok := models.Lookup(name)
	if !ok || f == nil {
		return nil, fmt.Errorf("wake: unknown detector model %q", name)
	}
	return f(name)
}

// Models returns the registered model name patterns, sorted.
func Models() []string {
	return models.Patterns()
}
