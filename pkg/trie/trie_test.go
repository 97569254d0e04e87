package trie

import (
	"errors"
	"slices"
	"testing"
)

func TestLookupPrecedence(t *testing.T) {
	tr := New[string]()
	for _, p := range []struct{ pattern, value string }{
		{"openai/whisper-1", "exact"},
		{"openai/+", "any-model"},
		{"openai/#", "tail"},
		{"local/null", "null"},
		{"#", "fallback"},
	} {
		if err := tr.Add(p.pattern, p.value); err != nil {
			t.Fatalf("Add(%q): %v", p.pattern, err)
		}
	}

	tests := []struct {
		path        string
		wantValue   string
		wantPattern string
		wantOK      bool
	}{
		{"openai/whisper-1", "exact", "openai/whisper-1", true},
		{"openai/gpt-4o-transcribe", "any-model", "openai/+", true},
		{"openai/fine/tuned", "tail", "openai/#", true},
		{"local/null", "null", "local/null", true},
		{"genai/gemini-2.0-flash", "fallback", "#", true},
	}
	for _, tt := range tests {
		got, pattern, ok := tr.Lookup(tt.path)
		if ok != tt.wantOK || got != tt.wantValue || pattern != tt.wantPattern {
			t.Errorf("Lookup(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.path, got, pattern, ok, tt.wantValue, tt.wantPattern, tt.wantOK)
		}
	}
}

func TestLookupMiss(t *testing.T) {
	tr := New[int]()
	tr.Add("a/b", 1)
	if _, _, ok := tr.Lookup("a"); ok {
		t.Error("prefix matched a full pattern")
	}
	if _, _, ok := tr.Lookup("a/b/c"); ok {
		t.Error("longer path matched a shorter pattern")
	}
	if _, _, ok := tr.Lookup("x"); ok {
		t.Error("unrelated path matched")
	}
}

func TestAddErrors(t *testing.T) {
	tr := New[int]()
	if err := tr.Add("a/#/b", 1); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("mid-pattern # error = %v", err)
	}
	if err := tr.Add("a/b", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tr.Add("a/b", 2); !errors.Is(err, ErrDuplicatePattern) {
		t.Errorf("duplicate error = %v", err)
	}
}

func TestPatternsAndLen(t *testing.T) {
	tr := New[int]()
	tr.Add("b/c", 1)
	tr.Add("a/+", 2)
	tr.Add("a/#", 3)
	want := []string{"a/#", "a/+", "b/c"}
	if got := tr.Patterns(); !slices.Equal(got, want) {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}
	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}
}
