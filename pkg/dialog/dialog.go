// Package dialog ties the ordering pipeline together. An explicit state
// machine cycles one session through idle listening, capture,
// transcription, interpretation, and response, mutating the order
// ledger along the way. Per-utterance problems are absorbed into spoken
// responses; only input failures and cancellation escape Run.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haivivi/tably/go/pkg/buffer"
	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/intent"
	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
	"github.com/haivivi/tably/go/pkg/speech"
	"github.com/haivivi/tably/go/pkg/wake"
)

// CapturePolicy says what a wake trigger during an active capture does.
type CapturePolicy string

const (
	// CaptureIgnore drops wake triggers while capturing.
	CaptureIgnore CapturePolicy = "ignore"
	// CaptureRestart abandons the current capture and starts over.
	CaptureRestart CapturePolicy = "restart"
)

// AmbiguousPolicy says how an ambiguous menu match is handled.
type AmbiguousPolicy string

const (
	// AmbiguousClarify asks the customer to pick between candidates.
	AmbiguousClarify AmbiguousPolicy = "clarify"
	// AmbiguousBest silently takes the top-ranked candidate.
	AmbiguousBest AmbiguousPolicy = "best"
)

// Controller defaults.
const (
	DefaultConfidenceThreshold = 0.5
	DefaultEventQueue          = 16
)

var (
	errIdleTimeout    = errors.New("dialog: session idle timeout")
	errRestartCapture = errors.New("dialog: wake during capture")
)

// Options wire a Controller. Source, Recorder, Transcriber, Parser,
// Catalog, and Ledger are required; everything else has defaults.
type Options struct {
	Source   capture.Source
	Gate     *wake.Gate // nil skips wake gating: capture runs back to back
	Recorder *capture.Recorder

	Transcriber speech.Transcriber
	Engine      string // engine path given to the transcriber; default local/null

	Parser  *intent.Parser
	Catalog *menu.Catalog
	Ledger  *order.Ledger

	Renderer speech.Renderer // nil means speech.Discard
	Composer *Composer

	ConfidenceThreshold float64         // reject transcripts below this; default 0.5
	CapturePolicy       CapturePolicy   // default ignore
	AmbiguousPolicy     AmbiguousPolicy // default clarify
	IdleTimeout         time.Duration   // end the session after this much quiet; 0 disables

	EventQueue int // per-subscriber queue capacity; default 16
	Logger     *slog.Logger
}

// Controller runs one ordering session. One instance drives one
// session; it is not safe to share across concurrent sessions.
type Controller struct {
	opts  Options
	comp  *Composer
	log   *slog.Logger
	state atomic.Int32

	mu   sync.Mutex
	subs []*buffer.Ring[Event]
}

// New validates the wiring and returns a ready Controller.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("dialog: Source is required")
	case opts.Recorder == nil:
		return nil, errors.New("dialog: Recorder is required")
	case opts.Transcriber == nil:
		return nil, errors.New("dialog: Transcriber is required")
	case opts.Parser == nil:
		return nil, errors.New("dialog: Parser is required")
	case opts.Catalog == nil:
		return nil, errors.New("dialog: Catalog is required")
	case opts.Ledger == nil:
		return nil, errors.New("dialog: Ledger is required")
	}
	if opts.Engine == "" {
		opts.Engine = speech.NullEngine
	}
	if opts.Renderer == nil {
		opts.Renderer = speech.Discard
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	switch opts.CapturePolicy {
	case "":
		opts.CapturePolicy = CaptureIgnore
	case CaptureIgnore, CaptureRestart:
	default:
		return nil, fmt.Errorf("dialog: invalid capture policy %q", opts.CapturePolicy)
	}
	switch opts.AmbiguousPolicy {
	case "":
		opts.AmbiguousPolicy = AmbiguousClarify
	case AmbiguousClarify, AmbiguousBest:
	default:
		return nil, fmt.Errorf("dialog: invalid ambiguous policy %q", opts.AmbiguousPolicy)
	}
	if opts.EventQueue <= 0 {
		opts.EventQueue = DefaultEventQueue
	}
	comp := opts.Composer
	if comp == nil {
		comp = &Composer{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{opts: opts, comp: comp, log: log}, nil
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Subscribe returns a queue receiving every event from now on. Each
// subscriber has its own bounded queue; a slow subscriber loses oldest
// events rather than blocking the controller.
func (c *Controller) Subscribe() *buffer.Ring[Event] {
	ring := buffer.NewRing[Event](c.opts.EventQueue)
	c.mu.Lock()
	c.subs = append(c.subs, ring)
	c.mu.Unlock()
	return ring
}

// Close ends event delivery to subscribers. Run does this on return;
// Close is for script-driven use that never calls Run.
func (c *Controller) Close() error {
	c.closeSubs()
	return nil
}

func (c *Controller) closeSubs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		s.CloseWrite()
	}
}

func (c *Controller) publish(ev Event) {
	ev.Time = jsontime.NowEpochMilli()
	ev.State = c.State()
	c.mu.Lock()
	for _, s := range c.subs {
		s.Push(ev)
	}
	c.mu.Unlock()
}

func (c *Controller) publishOrder() {
	c.publish(Event{
		Type:  EventOrder,
		Lines: c.opts.Ledger.Lines(),
		Total: c.opts.Ledger.Total(),
	})
}

func (c *Controller) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	c.publish(Event{Type: EventState})
}

func (c *Controller) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	c.publish(Event{Type: EventResponse, Response: text})
	if err := c.opts.Renderer.Render(ctx, text); err != nil {
		c.log.Warn("dialog: renderer failed", "err", err)
	}
}

func (c *Controller) respond(ctx context.Context, text string) {
	c.setState(StateResponding)
	c.speak(ctx, text)
}

// Run drives one ordering session until the customer is done, the
// input ends, or ctx is canceled. Per-utterance errors become spoken
// responses and the loop continues; source failures are fatal.
func (c *Controller) Run(ctx context.Context) error {
	defer c.closeSubs()
	c.setState(StateIdleListening)
	c.speak(ctx, c.comp.Greet())

	deadline := c.nextDeadline()
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			c.log.Info("dialog: session idle timeout", "timeout", c.opts.IdleTimeout)
			done, err := c.finishSession(ctx)
			if err != nil {
				return err
			}
			if done {
				c.setState(StateSessionDone)
				return nil
			}
			// Persistence failed; keep the session for a retry.
			deadline = c.nextDeadline()
			continue
		}

		if c.opts.Gate != nil {
			ev, err := c.waitWake(ctx, deadline)
			if errors.Is(err, errIdleTimeout) {
				continue
			}
			if errors.Is(err, io.EOF) {
				c.setState(StateSessionDone)
				return nil
			}
			if err != nil {
				return c.fatal(err)
			}
			c.log.Info("dialog: wake word detected", "keyword", ev.Keyword, "score", ev.Score)
			c.publish(Event{Type: EventWake, Keyword: ev.Keyword, Score: ev.Score})
			c.speak(ctx, c.comp.Listening())
		}

		utt, err := c.capture(ctx)
		if errors.Is(err, capture.ErrNoSpeech) {
			c.setState(StateIdleListening)
			continue
		}
		if errors.Is(err, io.EOF) {
			c.setState(StateSessionDone)
			return nil
		}
		if err != nil {
			return c.fatal(err)
		}
		c.log.Debug("dialog: utterance captured", "duration", utt.Duration())

		done, err := c.handleUtterance(ctx, utt)
		if err != nil {
			return err
		}
		if done {
			c.setState(StateSessionDone)
			return nil
		}
		c.setState(StateIdleListening)
		deadline = c.nextDeadline()
	}
}

func (c *Controller) nextDeadline() time.Time {
	if c.opts.IdleTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.opts.IdleTimeout)
}

func (c *Controller) fatal(err error) error {
	c.setState(StateSessionDone)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.log.Error("dialog: audio source failed", "err", err)
	return fmt.Errorf("dialog: audio source: %w", err)
}

func (c *Controller) waitWake(ctx context.Context, deadline time.Time) (wake.Event, error) {
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return wake.Event{}, errIdleTimeout
		}
		frame, err := c.opts.Source.NextFrame(ctx)
		if err != nil {
			return wake.Event{}, err
		}
		if ev, ok := c.opts.Gate.Feed(frame); ok {
			return ev, nil
		}
	}
}

func (c *Controller) capture(ctx context.Context) (*capture.Utterance, error) {
	c.setState(StateCapturing)
	src := c.opts.Source
	if c.opts.Gate != nil && c.opts.CapturePolicy == CaptureRestart {
		src = capture.SourceFunc(func(ctx context.Context) (capture.Frame, error) {
			frame, err := c.opts.Source.NextFrame(ctx)
			if err != nil {
				return nil, err
			}
			if _, ok := c.opts.Gate.Feed(frame); ok {
				return nil, errRestartCapture
			}
			return frame, nil
		})
	}
	for {
		utt, err := c.opts.Recorder.Record(ctx, src)
		if errors.Is(err, errRestartCapture) {
			c.log.Debug("dialog: wake during capture, restarting")
			continue
		}
		return utt, err
	}
}

func (c *Controller) handleUtterance(ctx context.Context, utt *capture.Utterance) (bool, error) {
	c.setState(StateTranscribing)
	tr, err := c.opts.Transcriber.Transcribe(ctx, c.opts.Engine, utt)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.log.Warn("dialog: transcription failed", "engine", c.opts.Engine, "err", err)
		c.respond(ctx, c.comp.DidntCatch())
		return false, nil
	}
	if tr.Text == "" || tr.Confidence < c.opts.ConfidenceThreshold {
		c.log.Debug("dialog: transcript rejected", "text", tr.Text, "confidence", tr.Confidence)
		c.respond(ctx, c.comp.DidntCatch())
		return false, nil
	}
	c.log.Info("dialog: transcript accepted", "text", tr.Text, "confidence", tr.Confidence)
	c.publish(Event{Type: EventTranscript, Transcript: tr})
	c.setState(StateInterpreting)
	return c.interpret(ctx, tr.Text)
}

// HandleText drives one typed utterance through interpretation and
// response, bypassing wake, capture, and transcription. It reports
// whether the session completed, for script runners.
func (c *Controller) HandleText(ctx context.Context, text string) (bool, error) {
	c.setState(StateInterpreting)
	done, err := c.interpret(ctx, text)
	if err != nil {
		return done, err
	}
	if done {
		c.setState(StateSessionDone)
	} else {
		c.setState(StateIdleListening)
	}
	return done, nil
}

func (c *Controller) interpret(ctx context.Context, text string) (bool, error) {
	in := c.opts.Parser.Parse(text)
	c.log.Debug("dialog: intent", "kind", in.Kind, "mentions", len(in.Mentions))
	switch in.Kind {
	case intent.KindOrder:
		c.respond(ctx, c.orderReply(in.Mentions))
	case intent.KindSuggest:
		c.respond(ctx, c.comp.Suggestions(c.opts.Catalog.PopularItems(3)))
	case intent.KindConfirm:
		c.respond(ctx, c.comp.Confirmed(c.opts.Ledger.Total(), c.opts.Ledger.Empty()))
	case intent.KindCancel:
		c.respond(ctx, c.cancelReply(in.Mentions))
	case intent.KindInfo:
		c.respond(ctx, c.infoReply(in.Mentions))
	case intent.KindDone:
		return c.finishSession(ctx)
	default:
		c.respond(ctx, c.comp.Unknown())
	}
	return false, nil
}

func (c *Controller) orderReply(mentions []intent.Mention) string {
	if len(mentions) == 0 {
		return c.comp.NoItems()
	}
	type staged struct {
		item *menu.Item
		qty  int
	}
	type pending struct {
		raw   string
		cands []menu.Candidate
	}
	var (
		adds    []staged
		ambig   []pending
		missing []string
	)
	for _, m := range mentions {
		res := c.opts.Catalog.Resolve(m.RawText)
		switch res.Kind {
		case menu.MatchUnique:
			adds = append(adds, staged{res.Item(), m.Quantity})
		case menu.MatchAmbiguous:
			if c.opts.AmbiguousPolicy == AmbiguousBest {
				adds = append(adds, staged{res.Item(), m.Quantity})
			} else {
				ambig = append(ambig, pending{m.RawText, res.Candidates})
			}
		default:
			missing = append(missing, m.RawText)
		}
	}

	// Resolution pass finished; only now touch the ledger, so a
	// clarification never leaves it half updated.
	var added []order.Line
	for _, a := range adds {
		c.opts.Ledger.Add(a.item, a.qty)
		added = append(added, order.Line{
			ItemID:    a.item.ID,
			Name:      a.item.Name,
			Quantity:  a.qty,
			UnitPrice: a.item.Price,
		})
	}
	if len(added) > 0 {
		c.publishOrder()
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, c.comp.Added(added))
	}
	for _, p := range ambig {
		parts = append(parts, c.comp.DidYouMean(p.raw, p.cands))
	}
	if len(missing) > 0 {
		parts = append(parts, c.comp.NotFound(missing))
	}
	if len(ambig) == 0 && len(missing) == 0 {
		parts = append(parts, c.comp.AnythingElse())
	}
	return strings.Join(parts, " ")
}

// cancelReply removes the named items, matched against what is
// actually on the order so "the burger" finds the one burger line even
// when the menu has several. An utterance that names no menu item at
// all ("cancel my order", "never mind") resets the whole order.
func (c *Controller) cancelReply(mentions []intent.Mention) string {
	led := c.opts.Ledger
	reset := func() string {
		led.Reset()
		c.publishOrder()
		return c.comp.Canceled()
	}
	if len(mentions) == 0 {
		return reset()
	}

	onOrder := make(map[string]bool)
	for _, ln := range led.Lines() {
		onOrder[ln.ItemID] = true
	}
	var parts []string
	var changed bool
	for _, m := range mentions {
		res := c.opts.Catalog.Resolve(m.RawText)
		if res.Kind == menu.MatchNone {
			// Not an item reference, just cancel phrasing.
			continue
		}
		removed := false
		for _, cand := range res.Candidates {
			if !onOrder[cand.Item.ID] {
				continue
			}
			if line, ok := led.Remove(cand.Item.ID); ok {
				delete(onOrder, cand.Item.ID)
				parts = append(parts, c.comp.Removed(line))
				changed = true
				removed = true
			}
			break
		}
		if removed {
			continue
		}
		name := m.RawText
		if res.Kind == menu.MatchUnique {
			name = res.Item().Name
		}
		parts = append(parts, c.comp.NotInOrder(name))
	}
	if len(parts) == 0 {
		return reset()
	}
	if changed {
		c.publishOrder()
	}
	return strings.Join(parts, " ")
}

func (c *Controller) infoReply(mentions []intent.Mention) string {
	if len(mentions) == 0 {
		return c.comp.WhichItem()
	}
	var parts []string
	for _, m := range mentions {
		res := c.opts.Catalog.Resolve(m.RawText)
		switch res.Kind {
		case menu.MatchUnique:
			parts = append(parts, c.comp.ItemInfo(res.Item()))
		case menu.MatchAmbiguous:
			parts = append(parts, c.comp.DidYouMean(m.RawText, res.Candidates))
		default:
			parts = append(parts, c.comp.NoInfo(m.RawText))
		}
	}
	return strings.Join(parts, " ")
}

// finishSession runs the DONE flow: finalize a non-empty order, speak
// the summary, and end the session. A persistence failure keeps the
// order in memory and the session alive for a retry.
func (c *Controller) finishSession(ctx context.Context) (bool, error) {
	led := c.opts.Ledger
	if led.Empty() {
		c.respond(ctx, c.comp.GoodbyeEmpty())
		return true, nil
	}
	lines, total := led.Lines(), led.Total()
	rec, err := led.Finalize(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		c.log.Error("dialog: order persistence failed", "session", led.SessionID(), "err", err)
		c.respond(ctx, c.comp.SaveFailed())
		return false, nil
	}
	c.log.Info("dialog: order finalized", "id", rec.ID, "total", rec.Total, "lines", len(rec.Lines))
	c.publish(Event{Type: EventFinal, Final: rec})
	c.respond(ctx, c.comp.OrderSaved(lines, total))
	return true, nil
}
