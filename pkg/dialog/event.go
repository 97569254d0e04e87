package dialog

import (
	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
	"github.com/haivivi/tably/go/pkg/speech"
)

// EventType names what an Event carries.
type EventType string

const (
	// EventState marks a state transition.
	EventState EventType = "state"
	// EventWake carries the keyword that triggered capture.
	EventWake EventType = "wake"
	// EventTranscript carries the accepted transcript of an utterance.
	EventTranscript EventType = "transcript"
	// EventResponse carries a spoken response line.
	EventResponse EventType = "response"
	// EventOrder carries a running order snapshot after a change.
	EventOrder EventType = "order"
	// EventFinal carries the persisted record of a finalized order.
	EventFinal EventType = "final"
)

// Event is one observer notification from a running controller.
// Delivery is lossy: each subscriber reads from its own bounded
// drop-oldest queue and can never block the controller.
type Event struct {
	Type  EventType      `json:"type"`
	Time  jsontime.Milli `json:"time"`
	State State          `json:"state"`

	Keyword    string             `json:"keyword,omitempty"`
	Score      float64            `json:"score,omitempty"`
	Transcript *speech.Transcript `json:"transcript,omitempty"`
	Response   string             `json:"response,omitempty"`
	Lines      []order.Line       `json:"lines,omitempty"`
	Total      menu.Cents         `json:"total,omitempty"`
	Final      *order.Record      `json:"final,omitempty"`
}
