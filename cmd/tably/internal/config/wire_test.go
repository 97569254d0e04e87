package config

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/speech"
)

func TestNewLogger(t *testing.T) {
	s := Default()
	s.Logging.Level = "debug"
	log := s.NewLogger(io.Discard)
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug logger rejects debug records")
	}

	s.Logging.Level = "error"
	log = s.NewLogger(io.Discard)
	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("error logger accepts info records")
	}
}

func TestNewSource(t *testing.T) {
	s := Default()
	src, err := s.NewSource(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	if _, ok := src.(*capture.ReaderSource); !ok {
		t.Fatalf("NewSource() = %T, want *capture.ReaderSource", src)
	}
}

func TestNewSourceResamples(t *testing.T) {
	s := Default()
	s.Audio.SourceRate = 48000
	if _, err := s.NewSource(bytes.NewReader(nil)); err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
}

func TestNewRecorder(t *testing.T) {
	rec, err := Default().NewRecorder()
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if rec == nil {
		t.Fatal("NewRecorder() = nil")
	}
}

func TestNewGate(t *testing.T) {
	gate, err := Default().NewGate()
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	if gate == nil {
		t.Fatal("NewGate() = nil")
	}

	s := Default()
	s.WakeWord.Model = "no_such_model"
	if _, err := s.NewGate(); err == nil {
		t.Fatal("NewGate() accepted an unregistered model")
	}
}

func TestNewRenderer(t *testing.T) {
	s := Default()
	if _, ok := s.NewRenderer().(*speech.Console); !ok {
		t.Errorf("NewRenderer() = %T, want *speech.Console", s.NewRenderer())
	}

	s.TTS.Command = "say -v Daniel"
	r, ok := s.NewRenderer().(*speech.Exec)
	if !ok {
		t.Fatalf("NewRenderer() = %T, want *speech.Exec", s.NewRenderer())
	}
	if r.Command != "say" || len(r.Args) != 2 || r.Args[0] != "-v" {
		t.Errorf("Exec = %q %v, want say [-v Daniel]", r.Command, r.Args)
	}
}

func TestNewTranscriberLocal(t *testing.T) {
	tr, err := Default().NewTranscriber(context.Background())
	if err != nil {
		t.Fatalf("NewTranscriber() error = %v", err)
	}
	res, err := tr.Transcribe(context.Background(), speech.NullEngine, &capture.Utterance{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "" {
		t.Errorf("null transcript = %q, want empty", res.Text)
	}
}

func TestNewTranscriberOpenAI(t *testing.T) {
	s := Default()
	s.ASR.Engine = "openai/whisper-1"
	s.ASR.APIKeyEnv = "TABLY_TEST_OPENAI_KEY"

	t.Setenv("TABLY_TEST_OPENAI_KEY", "")
	if _, err := s.NewTranscriber(context.Background()); err == nil {
		t.Fatal("NewTranscriber() succeeded without an API key")
	} else if !strings.Contains(err.Error(), "TABLY_TEST_OPENAI_KEY") {
		t.Errorf("error = %v, want the env var name", err)
	}

	t.Setenv("TABLY_TEST_OPENAI_KEY", "sk-test")
	tr, err := s.NewTranscriber(context.Background())
	if err != nil {
		t.Fatalf("NewTranscriber() error = %v", err)
	}
	if tr == nil {
		t.Fatal("NewTranscriber() = nil")
	}
}

func TestNewTranscriberNormalize(t *testing.T) {
	s := Default()
	s.ASR.Engine = "openai/whisper-1"
	s.ASR.APIKeyEnv = "TABLY_TEST_OPENAI_KEY"
	s.ASR.NormalizeModel = "gpt-4o-mini"
	t.Setenv("TABLY_TEST_OPENAI_KEY", "sk-test")

	tr, err := s.NewTranscriber(context.Background())
	if err != nil {
		t.Fatalf("NewTranscriber() error = %v", err)
	}
	if _, ok := tr.(*speech.Normalizer); !ok {
		t.Fatalf("NewTranscriber() = %T, want *speech.Normalizer", tr)
	}
}

func TestNewLedger(t *testing.T) {
	s := Default()
	s.Orders.Dir = t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger, closer, err := s.NewLedger(log)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	t.Cleanup(func() { closer() })
	if ledger == nil {
		t.Fatal("NewLedger() = nil")
	}
	if ledger.SessionID() == "" {
		t.Error("ledger has no session id")
	}
}

func TestNewLedgerWithStats(t *testing.T) {
	s := Default()
	s.Orders.Dir = t.TempDir()
	s.Orders.StatsDir = filepath.Join(t.TempDir(), "stats")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger, closer, err := s.NewLedger(log)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	if ledger == nil {
		t.Fatal("NewLedger() = nil")
	}
	if !ledger.Empty() {
		t.Error("fresh ledger is not empty")
	}
	if err := closer(); err != nil {
		t.Errorf("closer() = %v", err)
	}
}

func TestNewFeed(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if srv := Default().NewFeed(log); srv != nil {
		t.Error("NewFeed() with empty listen returned a server")
	}

	s := Default()
	s.Feed.Listen = ":8070"
	if srv := s.NewFeed(log); srv == nil {
		t.Error("NewFeed() = nil with listen set")
	}
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := NewS3Client(); err == nil {
		t.Fatal("NewS3Client() succeeded without credentials")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_ENDPOINT_URL", "http://127.0.0.1:9000")
	client, err := NewS3Client()
	if err != nil {
		t.Fatalf("NewS3Client() error = %v", err)
	}
	if client == nil {
		t.Fatal("NewS3Client() = nil")
	}
}
