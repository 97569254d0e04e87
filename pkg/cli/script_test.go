package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseScript(t *testing.T) {
	input := strings.Join([]string{
		"# warm-up order",
		"I want a beef burger and a coffee",
		"",
		"   what do you suggest   ",
		"that's all",
	}, "\n")

	lines, err := ParseScript(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseScript error: %v", err)
	}

	want := []string{
		"I want a beef burger and a coffee",
		"what do you suggest",
		"that's all",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestParseScript_Empty(t *testing.T) {
	lines, err := ParseScript(strings.NewReader("\n# only a comment\n\n"))
	if err != nil {
		t.Fatalf("ParseScript error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %q, want none", lines)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.txt")
	content := "two spring rolls\nthat's all\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	lines, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "two spring rolls" {
		t.Errorf("lines = %q", lines)
	}
}

func TestLoadScript_Missing(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Error("LoadScript should fail for a missing file")
	}
}
