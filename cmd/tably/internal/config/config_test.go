package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	s, err := Parse([]byte(`
audio:
  sample_rate: 24000
wake_word:
  threshold: 0.7
  capture_policy: restart
recorder:
  silence_duration: 2s
session:
  idle_timeout: 90s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Audio.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", s.Audio.SampleRate)
	}
	if s.Audio.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d, want default 1024", s.Audio.ChunkSize)
	}
	if s.WakeWord.Threshold != 0.7 {
		t.Errorf("Threshold = %v, want 0.7", s.WakeWord.Threshold)
	}
	if s.WakeWord.CapturePolicy != "restart" {
		t.Errorf("CapturePolicy = %q, want restart", s.WakeWord.CapturePolicy)
	}
	if got := time.Duration(s.Recorder.SilenceDuration); got != 2*time.Second {
		t.Errorf("SilenceDuration = %v, want 2s", got)
	}
	if got := time.Duration(s.Session.IdleTimeout); got != 90*time.Second {
		t.Errorf("IdleTimeout = %v, want 90s", got)
	}
	if s.Logging.Level != "info" {
		t.Errorf("Level = %q, want default info", s.Logging.Level)
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("wake_word:\n  modle: oops\n"))
	if err == nil {
		t.Fatal("Parse() accepted an unknown field")
	}
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte(":\t:::"))
	if err == nil {
		t.Fatal("Parse() accepted garbage")
	}
	if !strings.Contains(err.Error(), "config:") {
		t.Errorf("error = %v, want config: prefix", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantSub string
	}{
		{"bad sample rate", func(s *Settings) { s.Audio.SampleRate = 44100 }, "sample_rate"},
		{"zero chunk", func(s *Settings) { s.Audio.ChunkSize = 0 }, "chunk_size"},
		{"negative source rate", func(s *Settings) { s.Audio.SourceRate = -1 }, "source_rate"},
		{"zero queue", func(s *Settings) { s.Audio.QueueFrames = 0 }, "queue_frames"},
		{"empty model", func(s *Settings) { s.WakeWord.Model = "" }, "wake_word.model"},
		{"threshold above one", func(s *Settings) { s.WakeWord.Threshold = 1.5 }, "[0,1]"},
		{"negative cooldown", func(s *Settings) { s.WakeWord.Cooldown = -1 }, "cooldown"},
		{"bad capture policy", func(s *Settings) { s.WakeWord.CapturePolicy = "queue" }, "capture_policy"},
		{"zero silence threshold", func(s *Settings) { s.Recorder.SilenceThreshold = 0 }, "silence_threshold"},
		{"zero silence duration", func(s *Settings) { s.Recorder.SilenceDuration = 0 }, "silence_duration"},
		{"zero max utterance", func(s *Settings) { s.Recorder.MaxUtterance = 0 }, "max_utterance"},
		{"engine without family", func(s *Settings) { s.ASR.Engine = "whisper" }, "family"},
		{"unknown engine family", func(s *Settings) { s.ASR.Engine = "azure/stt" }, "unknown family"},
		{"cloud engine without key env", func(s *Settings) { s.ASR.Engine = "openai/whisper-1" }, "api_key_env"},
		{"confidence above one", func(s *Settings) { s.ASR.ConfidenceThreshold = 2 }, "confidence_threshold"},
		{"normalize on local engine", func(s *Settings) { s.ASR.NormalizeModel = "gpt-4o-mini" }, "normalize_model"},
		{"zero tts rate", func(s *Settings) { s.TTS.Rate = 0 }, "tts.rate"},
		{"volume above one", func(s *Settings) { s.TTS.Volume = 1.2 }, "tts.volume"},
		{"empty menu path", func(s *Settings) { s.Menu.Path = "" }, "menu.path"},
		{"negative match threshold", func(s *Settings) { s.Menu.MatchThreshold = -0.1 }, "match_threshold"},
		{"bad ambiguous policy", func(s *Settings) { s.Menu.AmbiguousPolicy = "ask" }, "ambiguous_policy"},
		{"empty orders dir", func(s *Settings) { s.Orders.Dir = "" }, "orders.dir"},
		{"non-s3 archive", func(s *Settings) { s.Orders.Archive = "http://bucket/x" }, "s3://"},
		{"negative idle timeout", func(s *Settings) { s.Session.IdleTimeout = -1 }, "idle_timeout"},
		{"feed listen without port", func(s *Settings) { s.Feed.Listen = "8070" }, "feed.listen"},
		{"bad log level", func(s *Settings) { s.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %v, want substring %q", err, tt.wantSub)
			}
			if !strings.HasPrefix(err.Error(), "config:") {
				t.Errorf("error = %v, want config: prefix", err)
			}
		})
	}
}

func TestValidateAcceptsEdges(t *testing.T) {
	s := Default()
	s.Audio.SourceRate = 48000
	s.WakeWord.Threshold = 1
	s.Session.IdleTimeout = 0
	s.Feed.Listen = ":8070"
	s.Orders.Archive = "s3://orders-bucket/daily"
	s.Orders.StatsDir = "stats"
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tably.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", s.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() = nil, want error")
	}
	if !strings.Contains(err.Error(), "read") {
		t.Errorf("error = %v, want read error", err)
	}
}

func TestParseArchiveURL(t *testing.T) {
	tests := []struct {
		raw     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{"s3://orders-bucket/daily", "orders-bucket", "daily", false},
		{"s3://orders-bucket", "orders-bucket", "", false},
		{"s3://b/a/c/", "b", "a/c", false},
		{"gs://bucket/x", "", "", true},
		{"s3://", "", "", true},
		{"orders", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			bucket, prefix, err := ParseArchiveURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseArchiveURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if bucket != tt.bucket || prefix != tt.prefix {
				t.Errorf("ParseArchiveURL(%q) = (%q, %q), want (%q, %q)",
					tt.raw, bucket, prefix, tt.bucket, tt.prefix)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	sch, err := Schema()
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	data, err := json.Marshal(sch)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, want := range []string{"sample_rate", "wake_word", "ambiguous_policy"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestMenuSchema(t *testing.T) {
	sch, err := MenuSchema()
	if err != nil {
		t.Fatalf("MenuSchema() error = %v", err)
	}
	data, err := json.Marshal(sch)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	for _, want := range []string{"categories", "price"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
