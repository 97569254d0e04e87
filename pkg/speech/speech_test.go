package speech_test

import (
	"context"
	"encoding/binary"
	"slices"
	"strings"
	"testing"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/speech"
)

func testUtterance() *capture.Utterance {
	return &capture.Utterance{
		Samples: []int16{1, -2, 3, -4},
		Format:  pcm.L16Mono16K,
	}
}

func TestASRMuxRouting(t *testing.T) {
	mux := speech.NewASRMux()
	var gotName string
	err := mux.HandleFunc("openai/+", func(_ context.Context, name string, _ *capture.Utterance) (*speech.Transcript, error) {
		gotName = name
		return &speech.Transcript{Text: "two spring rolls", Confidence: 0.92}, nil
	})
	if err != nil {
		t.Fatalf("HandleFunc: %v", err)
	}

	tr, err := mux.Transcribe(context.Background(), "openai/whisper-1", testUtterance())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "openai/whisper-1" {
		t.Errorf("engine name = %q, want openai/whisper-1", gotName)
	}
	if tr.Text != "two spring rolls" || tr.Confidence != 0.92 {
		t.Errorf("transcript = %+v", tr)
	}

	if _, err := mux.Transcribe(context.Background(), "doubao/seed", testUtterance()); err == nil {
		t.Fatal("unregistered engine did not fail")
	} else if !strings.Contains(err.Error(), "transcriber not found") {
		t.Errorf("unexpected error: %v", err)
	}

	if !slices.Contains(mux.Engines(), "openai/+") {
		t.Errorf("Engines() = %v, missing openai/+", mux.Engines())
	}
}

func TestNullEngine(t *testing.T) {
	tr, err := speech.Transcribe(context.Background(), speech.NullEngine, testUtterance())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "" || tr.Confidence != 0 {
		t.Errorf("transcript = %+v, want empty", tr)
	}
}

func TestEncodeWAV(t *testing.T) {
	wav := speech.EncodeWAV(pcm.L16Mono16K, []int16{1, -2, 3, -4})
	if len(wav) != 52 {
		t.Fatalf("len = %d, want 52", len(wav))
	}
	le := binary.LittleEndian
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("bad container magic %q %q", wav[0:4], wav[8:12])
	}
	if got := le.Uint32(wav[4:]); got != 44 {
		t.Errorf("riff size = %d, want 44", got)
	}
	if string(wav[12:16]) != "fmt " {
		t.Fatalf("bad fmt chunk id %q", wav[12:16])
	}
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"fmt size", le.Uint32(wav[16:]), 16},
		{"audio format", uint32(le.Uint16(wav[20:])), 1},
		{"channels", uint32(le.Uint16(wav[22:])), 1},
		{"sample rate", le.Uint32(wav[24:]), 16000},
		{"byte rate", le.Uint32(wav[28:]), 32000},
		{"block align", uint32(le.Uint16(wav[32:])), 2},
		{"bit depth", uint32(le.Uint16(wav[34:])), 16},
		{"data size", le.Uint32(wav[40:]), 8},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if string(wav[36:40]) != "data" {
		t.Fatalf("bad data chunk id %q", wav[36:40])
	}
	if got := pcm.DecodeInt16(wav[44:]); !slices.Equal(got, []int16{1, -2, 3, -4}) {
		t.Errorf("payload = %v", got)
	}
}

func TestConsoleRenderer(t *testing.T) {
	var buf strings.Builder
	c := &speech.Console{W: &buf, Prefix: "tably> "}
	if err := c.Render(context.Background(), "Anything else?"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := buf.String(); got != "tably> Anything else?\n" {
		t.Errorf("output = %q", got)
	}
}

func TestDiscardRenderer(t *testing.T) {
	if err := speech.Discard.Render(context.Background(), "hello"); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestExecRendererMissingCommand(t *testing.T) {
	e := &speech.Exec{Command: "/definitely/not/a/speech/command"}
	if err := e.Render(context.Background(), "hello"); err == nil {
		t.Fatal("missing command did not fail")
	}
}
