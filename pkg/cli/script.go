package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadScript reads utterance lines for the simulate command. Path "-"
// reads stdin. Blank lines and lines starting with # are skipped.
func LoadScript(path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		defer f.Close()
		r = f
	}
	return ParseScript(r)
}

// ParseScript reads utterance lines from r, one per line.
func ParseScript(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return lines, nil
}
