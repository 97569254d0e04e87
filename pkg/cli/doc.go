// Package cli provides shared utilities for the tably command line.
//
// This package includes:
//   - Output rendering (YAML, JSON, raw) for command results
//   - Aligned tables and a bordered status frame styled with lipgloss
//   - A line-buffered log writer for feeding the live frame
//   - Script loading for the simulate command
//   - The ~/.tably settings location
//
// Example usage:
//
//	cli.Output(rec, cli.OutputOptions{Format: cli.FormatJSON})
package cli
