package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// Renderer speaks one response line to the customer.
type Renderer interface {
	Render(ctx context.Context, text string) error
}

// RenderFunc is an adapter to allow the use of ordinary functions as
// Renderers.
type RenderFunc func(ctx context.Context, text string) error

// Render calls the underlying function.
func (f RenderFunc) Render(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Discard is a Renderer that drops every line.
var Discard Renderer = RenderFunc(func(context.Context, string) error { return nil })

// Console writes response lines to a writer, for terminal runs.
type Console struct {
	W      io.Writer // nil means os.Stdout
	Prefix string    // e.g. "tably> "
}

var _ Renderer = (*Console)(nil)

func (c *Console) Render(_ context.Context, text string) error {
	w := c.W
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintf(w, "%s%s\n", c.Prefix, text)
	return err
}

// Exec hands each response line to an external speech command, e.g.
// "say" on macOS or "espeak". The line is passed as the final argument.
type Exec struct {
	Command string
	Args    []string
}

var _ Renderer = (*Exec)(nil)

func (e *Exec) Render(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, e.Command, append(slices.Clone(e.Args), text)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech: render command %s: %s: %w", e.Command, msg, err)
		}
		return fmt.Errorf("speech: render command %s: %w", e.Command, err)
	}
	return nil
}
