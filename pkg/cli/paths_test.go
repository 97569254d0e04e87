package cli

import (
	"path/filepath"
	"testing"
)

func TestPathsLayout(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	paths, err := NewPaths()
	if err != nil {
		t.Fatalf("NewPaths: %v", err)
	}

	if got, want := paths.BaseDir(), filepath.Join(home, ".tably"); got != want {
		t.Errorf("BaseDir = %q, want %q", got, want)
	}
	if got, want := paths.ConfigFile(), filepath.Join(home, ".tably", "tably.yaml"); got != want {
		t.Errorf("ConfigFile = %q, want %q", got, want)
	}
}
