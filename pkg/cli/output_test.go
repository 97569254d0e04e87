package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestOutputDefaultsToYAML(t *testing.T) {
	var buf bytes.Buffer

	err := Output(map[string]string{"wake_word": "hey tably"}, OutputOptions{Writer: &buf})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(buf.String(), "wake_word: hey tably") {
		t.Errorf("default output not YAML: %q", buf.String())
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer

	in := map[string]any{"id": "ORD-1", "total": 15.98}
	if err := Output(in, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out["id"] != "ORD-1" {
		t.Errorf("id = %v, want ORD-1", out["id"])
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Errorf("JSON output not indented: %q", buf.String())
	}
}

func TestOutputRaw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("one beef burger\n", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if buf.String() != "one beef burger\n" {
		t.Errorf("raw string = %q", buf.String())
	}

	buf.Reset()
	if err := Output([]byte{0x01, 0x02}, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x02}) {
		t.Errorf("raw bytes = %v", buf.Bytes())
	}
}

func TestOutputRawStructured(t *testing.T) {
	var buf bytes.Buffer

	// Raw only short-circuits for pre-rendered data. Everything else
	// still gets an encoding.
	if err := Output(map[string]int{"units": 2}, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(buf.String(), "units: 2") {
		t.Errorf("structured raw output = %q", buf.String())
	}
}

func TestOutputUnknownFormat(t *testing.T) {
	var buf bytes.Buffer

	err := Output("x", OutputOptions{Format: "xml", Writer: &buf})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "xml") {
		t.Errorf("error should name the format: %v", err)
	}
}

func TestOutputFormatSpellings(t *testing.T) {
	// Flag values are compared against these strings verbatim.
	if FormatYAML != "yaml" || FormatJSON != "json" || FormatRaw != "raw" {
		t.Errorf("format constants changed: %q %q %q", FormatYAML, FormatJSON, FormatRaw)
	}
}
