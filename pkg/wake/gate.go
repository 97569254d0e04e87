package wake

import (
	"time"

	"github.com/haivivi/tably/go/pkg/capture"
)

// Gate policy defaults, matching the wake_word settings defaults.
const (
	DefaultThreshold = 0.5
	DefaultCooldown  = 2 * time.Second
)

// GateOptions tune the trigger policy. Zero values take the defaults.
type GateOptions struct {
	// Threshold is the minimum score that fires a trigger, 0 to 1.
	Threshold float64

	// Cooldown suppresses re-triggers of the same keyword for this
	// long after it fired.
	Cooldown time.Duration
}

func (o *GateOptions) withDefaults() GateOptions {
	var out GateOptions
	if o != nil {
		out = *o
	}
	if out.Threshold <= 0 {
		out.Threshold = DefaultThreshold
	}
	if out.Cooldown <= 0 {
		out.Cooldown = DefaultCooldown
	}
	return out
}

// Gate is the idle-listening trigger: it applies threshold and cooldown
// policy over a Detector. Not safe for concurrent use; the controller
// feeds it from a single loop.
type Gate struct {
	det  Detector
	opts GateOptions
	last map[string]time.Time
}

// NewGate wraps det with trigger policy. opts may be nil for defaults.
func NewGate(det Detector, opts *GateOptions) *Gate {
	return &Gate{
		det:  det,
		opts: opts.withDefaults(),
		last: make(map[string]time.Time),
	}
}

// Feed scores one frame. It returns the first event at or above the
// threshold whose keyword is out of cooldown, records that keyword's
// trigger time, and resets the detector so residual window state cannot
// fire again on the next idle frame.
func (g *Gate) Feed(frame capture.Frame) (Event, bool) {
	for _, ev := range g.det.Process(frame) {
		if ev.Score < g.opts.Threshold {
			continue
		}
		if last, ok := g.last[ev.Keyword]; ok && ev.Time.Sub(last) < g.opts.Cooldown {
			continue
		}
		g.last[ev.Keyword] = ev.Time
		g.det.Reset()
		return ev, true
	}
	return Event{}, false
}

// Reset clears detector state. Cooldown bookkeeping is kept so a reset
// during capture cannot re-arm the keyword that started it.
func (g *Gate) Reset() {
	g.det.Reset()
}
