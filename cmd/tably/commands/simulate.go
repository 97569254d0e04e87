package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/cli"
)

var (
	simScript string
	simRules  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate --script <file>",
	Short: "Drive a session from typed transcripts",
	Long: `Drive one ordering session from typed transcripts, bypassing wake
word, capture, and transcription. One utterance per line; blank lines
and #-comments are skipped. Use '-' to read the script from stdin.

Example script:

  i want a beef burger and a coffee
  give me two spring rolls
  that's all

Responses print to the console; the finalized order is saved exactly
as in a live session.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simScript, "script", "", "transcript file, one utterance per line ('-' for stdin)")
	simulateCmd.Flags().StringVar(&simRules, "rules", "", "intent rules YAML replacing the built-in table")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simScript == "" {
		return fmt.Errorf("flag --script is required")
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	lines, err := cli.LoadScript(simScript)
	if err != nil {
		return err
	}

	log := settings.NewLogger(os.Stderr)
	ctx := cmd.Context()

	// No audio in a scripted session; the source only satisfies the
	// controller wiring.
	src := capture.SourceFunc(func(context.Context) (capture.Frame, error) {
		return nil, io.EOF
	})
	ctrl, closer, err := newController(ctx, settings, src, nil, settings.NewRenderer(), simRules, log)
	if err != nil {
		return err
	}
	defer closer()
	defer ctrl.Close()

	for _, text := range lines {
		fmt.Printf("> %s\n", text)
		done, err := ctrl.HandleText(ctx, text)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}
