package wake

import (
	"time"

	"github.com/haivivi/tably/go/pkg/capture"
)

// DefaultModel is the registry name of the reference detector.
const DefaultModel = "hey_tably"

// Reference detector defaults.
const (
	DefaultEnergyFloor  = 1000 // per-frame mean |amplitude| counted as active
	DefaultEnergyWindow = 8    // frames in the scoring window
)

func init() {
	err := Register(DefaultModel, func(string) (Detector, error) {
		return NewEnergy(DefaultModel, nil), nil
	})
	if err != nil {
		panic(err)
	}
}

// EnergyOptions tune the reference detector. Zero values take defaults.
type EnergyOptions struct {
	// Floor is the per-frame mean absolute amplitude counted as
	// active, on the int16 scale.
	Floor int

	// Window is the number of recent frames scored.
	Window int
}

// Energy is a stand-in for a trained keyword model: it scores sustained
// loudness instead of a phrase, which is enough to drive the pipeline
// from files and in development. The score is the fraction of the last
// Window frames whose energy reached the floor, so it ramps up over
// roughly half a second of speech and decays in silence.
type Energy struct {
	keyword string
	floor   int
	recent  []bool
	pos     int
	active  int
}

var _ Detector = (*Energy)(nil)

// NewEnergy builds the reference detector reporting the given keyword.
// opts may be nil for defaults.
func NewEnergy(keyword string, opts *EnergyOptions) *Energy {
	floor, window := DefaultEnergyFloor, DefaultEnergyWindow
	if opts != nil {
		if opts.Floor > 0 {
			floor = opts.Floor
		}
		if opts.Window > 0 {
			window = opts.Window
		}
	}
	return &Energy{
		keyword: keyword,
		floor:   floor,
		recent:  make([]bool, window),
	}
}

// Process folds the frame into the window and reports the current score.
func (e *Energy) Process(frame capture.Frame) []Event {
	if e.recent[e.pos] {
		e.active--
	}
	hot := frame.Energy() >= e.floor
	e.recent[e.pos] = hot
	if hot {
		e.active++
	}
	e.pos = (e.pos + 1) % len(e.recent)
	return []Event{{
		Keyword: e.keyword,
		Score:   float64(e.active) / float64(len(e.recent)),
		Time:    time.Now(),
	}}
}

// Reset clears the scoring window.
func (e *Energy) Reset() {
	clear(e.recent)
	e.pos = 0
	e.active = 0
}
