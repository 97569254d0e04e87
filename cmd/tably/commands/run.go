package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/cmd/tably/internal/config"
	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/cli"
	"github.com/haivivi/tably/go/pkg/dialog"
	"github.com/haivivi/tably/go/pkg/intent"
	"github.com/haivivi/tably/go/pkg/speech"
	"github.com/haivivi/tably/go/pkg/wake"
)

var (
	runInput string
	runTUI   bool
	runRules string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the voice ordering session loop",
	Long: `Run one ordering session over a PCM audio stream.

The input is raw little-endian 16-bit mono PCM at audio.source_rate
(audio.sample_rate when source_rate is 0). Use '-' to read from stdin,
e.g. piped from a capture tool:

  arecord -f S16_LE -r 16000 -c 1 -t raw | tably run --input -

The session ends when the customer says they are done, the input ends,
or the process is interrupted. With --tui the terminal shows a live
panel with the session state, the running order, and the log tail.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "-", "raw PCM input file ('-' for stdin)")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "render a live session panel")
	runCmd.Flags().StringVar(&runRules, "rules", "", "intent rules YAML replacing the built-in table")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	in, closeIn, err := openInput(runInput)
	if err != nil {
		return err
	}
	defer closeIn()

	logSink := io.Writer(os.Stderr)
	var logView *cli.LogWriter
	if runTUI {
		logView = cli.NewLogWriter(64)
		logSink = logView
	}
	log := settings.NewLogger(logSink)

	src, err := settings.NewSource(in)
	if err != nil {
		return err
	}
	queue := settings.NewQueue()
	go func() {
		if err := queue.Run(ctx, src); err != nil && ctx.Err() == nil {
			log.Error("audio source stopped", "err", err)
		}
	}()
	defer queue.Close()

	gate, err := settings.NewGate()
	if err != nil {
		return err
	}

	renderer := settings.NewRenderer()
	if runTUI && settings.TTS.Command == "" {
		// The panel shows responses; a console renderer would write
		// over it.
		renderer = speech.Discard
	}

	ctrl, closeLedger, err := newController(ctx, settings, queue, gate, renderer, runRules, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	if srv := settings.NewFeed(log); srv != nil {
		sub := ctrl.Subscribe()
		go func() {
			if err := srv.ListenAndServe(ctx, settings.Feed.Listen); err != nil {
				log.Error("feed server failed", "err", err)
			}
		}()
		go func() {
			if err := srv.Forward(ctx, sub); err != nil && ctx.Err() == nil {
				log.Warn("feed forward stopped", "err", err)
			}
		}()
		log.Info("kitchen feed listening", "addr", settings.Feed.Listen, "path", "/events")
	}

	if runTUI {
		view := newSessionView(ctrl, logView)
		viewDone := make(chan struct{})
		go func() {
			defer close(viewDone)
			view.loop(ctx)
		}()
		err = ctrl.Run(ctx)
		cancel()
		<-viewDone
	} else {
		err = ctrl.Run(ctx)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newController builds the dialogue stack shared by run and simulate.
// The returned closer releases the order stores.
func newController(ctx context.Context, s *config.Settings, src capture.Source, gate *wake.Gate, renderer speech.Renderer, rulesPath string, log *slog.Logger) (*dialog.Controller, func() error, error) {
	rec, err := s.NewRecorder()
	if err != nil {
		return nil, nil, err
	}
	transcriber, err := s.NewTranscriber(ctx)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := s.LoadCatalog()
	if err != nil {
		return nil, nil, err
	}
	rules := intent.DefaultRules()
	if rulesPath != "" {
		if rules, err = intent.LoadRules(rulesPath); err != nil {
			return nil, nil, err
		}
	}
	parser, err := intent.NewParser(rules)
	if err != nil {
		return nil, nil, err
	}
	ledger, closer, err := s.NewLedger(log)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := dialog.New(dialog.Options{
		Source:              src,
		Gate:                gate,
		Recorder:            rec,
		Transcriber:         transcriber,
		Engine:              s.ASR.Engine,
		Parser:              parser,
		Catalog:             catalog,
		Ledger:              ledger,
		Renderer:            renderer,
		ConfidenceThreshold: s.ASR.ConfidenceThreshold,
		CapturePolicy:       dialog.CapturePolicy(s.WakeWord.CapturePolicy),
		AmbiguousPolicy:     dialog.AmbiguousPolicy(s.Menu.AmbiguousPolicy),
		IdleTimeout:         time.Duration(s.Session.IdleTimeout),
		Logger:              log,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return ctrl, closer, nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, f.Close, nil
}
