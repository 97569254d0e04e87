// Package main is the entry point for the tably CLI.
//
// Usage:
//
//	tably [flags] <command> [subcommand] [args]
//
// Commands:
//
//	run       - Run the voice ordering session loop
//	simulate  - Drive a session from typed transcripts
//	menu      - Menu inspection (show, validate, resolve)
//	orders    - Saved order access (list, show, export)
//	config    - Configuration tools (schema)
//	version   - Show version information
package main

import (
	"os"

	"github.com/haivivi/tably/go/cmd/tably/commands"
	"github.com/haivivi/tably/go/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
