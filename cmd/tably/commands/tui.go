package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haivivi/tably/go/pkg/cli"
	"github.com/haivivi/tably/go/pkg/dialog"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
)

const (
	viewWidth  = 100
	viewHeight = 30
)

// sessionView renders the live session panel for run --tui. It redraws
// on controller events and on a slow tick, from one goroutine; the
// event reader only updates state.
type sessionView struct {
	ctrl *dialog.Controller
	logs *cli.LogWriter

	mu         sync.Mutex
	keyword    string
	transcript string
	response   string
	lines      []order.Line
	total      menu.Cents
	finalID    string

	redraw chan struct{}
}

func newSessionView(ctrl *dialog.Controller, logs *cli.LogWriter) *sessionView {
	return &sessionView{
		ctrl:   ctrl,
		logs:   logs,
		redraw: make(chan struct{}, 1),
	}
}

// loop renders until ctx is canceled. It owns the terminal: nothing
// else may write to stdout while it runs.
func (v *sessionView) loop(ctx context.Context) {
	sub := v.ctrl.Subscribe()
	go func() {
		for {
			ev, err := sub.Next()
			if err != nil {
				return
			}
			v.apply(ev)
			select {
			case v.redraw <- struct{}{}:
			default:
			}
		}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	v.render()
	for {
		select {
		case <-ctx.Done():
			v.render()
			fmt.Println()
			return
		case <-ticker.C:
			v.render()
		case <-v.redraw:
			v.render()
		case <-v.logs.Channel():
			v.render()
		}
	}
}

func (v *sessionView) apply(ev dialog.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch ev.Type {
	case dialog.EventWake:
		v.keyword = fmt.Sprintf("%s (%.2f)", ev.Keyword, ev.Score)
	case dialog.EventTranscript:
		if ev.Transcript != nil {
			v.transcript = ev.Transcript.Text
		}
	case dialog.EventResponse:
		v.response = ev.Response
	case dialog.EventOrder:
		v.lines = ev.Lines
		v.total = ev.Total
	case dialog.EventFinal:
		if ev.Final != nil {
			v.finalID = ev.Final.ID
			v.lines = nil
			v.total = 0
		}
	}
}

func (v *sessionView) render() {
	frame := cli.Frame{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "tably",
		Status: v.ctrl.State().String(),
		Sections: []cli.Section{
			{Label: "order", Content: v.orderLines},
			{Label: "dialog", Content: v.dialogLines},
			{Label: "log", Content: v.logs.Lines},
		},
		Help: "ctrl+c quit",
	}
	fmt.Print("\x1b[2J\x1b[H" + frame.Render(viewWidth, viewHeight))
}

func (v *sessionView) orderLines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lines) == 0 {
		if v.finalID != "" {
			return []string{"(saved as " + v.finalID + ")"}
		}
		return []string{"(empty)"}
	}
	out := make([]string, 0, len(v.lines)+1)
	for _, ln := range v.lines {
		out = append(out, fmt.Sprintf("%dx %-28s %8s", ln.Quantity, ln.Name, ln.Subtotal().Dollars()))
	}
	out = append(out, fmt.Sprintf("   %-28s %8s", "total", v.total.Dollars()))
	return out
}

func (v *sessionView) dialogLines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return []string{
		"wake:  " + v.keyword,
		"heard: " + v.transcript,
		"said:  " + v.response,
	}
}
