package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/tably/go/cmd/tably/internal/config"
	"github.com/haivivi/tably/go/pkg/cli"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tably",
	Short: "Voice-driven restaurant ordering assistant",
	Long: `tably - a voice-driven ordering assistant for restaurants.

The session loop listens for the wake word, captures one utterance,
transcribes it, parses the intent, resolves item mentions against the
menu, updates the running order, and speaks a response. Orders are
saved as JSON files when the customer is done.

Settings come from one YAML file, resolved in order:
  1. --config FILE
  2. ./tably.yaml
  3. ~/.tably/tably.yaml
  4. built-in defaults

Examples:
  # Order from a recorded PCM stream
  tably run --input lunch-rush.pcm

  # Type transcripts instead of speaking
  tably simulate --script testdata/script.txt

  # Check where "spring roles" lands on the menu
  tably menu resolve "spring roles"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (default ./tably.yaml, then ~/.tably/tably.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadSettings resolves and loads the settings file. Without --config
// and without a file on disk it falls back to built-in defaults, so
// every command works in a bare directory.
func loadSettings() (*config.Settings, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if _, err := os.Stat(cli.DefaultConfigFile); err == nil {
		return config.Load(cli.DefaultConfigFile)
	}
	if paths, err := cli.NewPaths(); err == nil {
		if p := paths.ConfigFile(); fileExists(p) {
			return config.Load(p)
		}
	}
	return config.Default(), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
