// Package config loads tably.yaml, the single settings file for the
// ordering pipeline, and builds pipeline pieces from it.
//
// Every option is validated up front: Load and Parse return a
// "config:"-prefixed error for out-of-range thresholds, non-positive
// rates or durations, and unknown enum strings, so a bad file fails
// the process before any audio is read. The zero config is not usable;
// start from Default.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
	"github.com/haivivi/tably/go/pkg/dialog"
	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/speech"
	"github.com/haivivi/tably/go/pkg/wake"
)

// Audio describes the PCM pipeline: all stages run mono 16-bit at
// SampleRate, and a differing SourceRate is resampled at the boundary.
type Audio struct {
	// SampleRate is the pipeline rate in Hz.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
	// ChunkSize is the samples per frame handed to the detector.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// SourceRate is the input rate in Hz; 0 means same as SampleRate.
	SourceRate int `yaml:"source_rate" json:"source_rate,omitempty"`
	// QueueFrames is the bounded frame queue capacity.
	QueueFrames int `yaml:"queue_frames" json:"queue_frames"`
}

// WakeWord configures the keyword gate in front of capture.
type WakeWord struct {
	// Model is the detector registry name.
	Model string `yaml:"model" json:"model"`
	// Threshold is the minimum trigger score, 0 to 1.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// Cooldown suppresses re-triggers of the same keyword.
	Cooldown jsontime.Duration `yaml:"cooldown" json:"cooldown"`
	// CapturePolicy is what a wake during capture does: ignore or restart.
	CapturePolicy string `yaml:"capture_policy" json:"capture_policy"`
}

// Recorder configures utterance endpointing.
type Recorder struct {
	// SilenceThreshold is the frame energy below which a frame counts
	// as silence, on the int16 amplitude scale.
	SilenceThreshold int `yaml:"silence_threshold" json:"silence_threshold"`
	// SilenceDuration of trailing silence that ends an utterance.
	SilenceDuration jsontime.Duration `yaml:"silence_duration" json:"silence_duration"`
	// MaxUtterance caps a single capture regardless of silence.
	MaxUtterance jsontime.Duration `yaml:"max_utterance" json:"max_utterance"`
	// PreSpeechTimeout bounds how long to wait for speech to start.
	PreSpeechTimeout jsontime.Duration `yaml:"pre_speech_timeout" json:"pre_speech_timeout"`
	// MinSpeech is the shortest burst that counts as speech.
	MinSpeech jsontime.Duration `yaml:"min_speech" json:"min_speech"`
}

// ASR selects and configures the transcription engine.
type ASR struct {
	// Engine is the transcriber mux path, e.g. "openai/whisper-1",
	// "genai/gemini-2.0-flash", or "local/null".
	Engine string `yaml:"engine" json:"engine"`
	// ModelPath points embedded engines at their weights file.
	ModelPath string `yaml:"model_path" json:"model_path,omitempty"`
	// ConfidenceThreshold rejects transcripts scored below it, 0 to 1.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	// APIKeyEnv names the environment variable holding the cloud API
	// key. Required for openai and genai engines.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env,omitempty"`
	// Language is an optional ISO-639-1 hint for the engine.
	Language string `yaml:"language" json:"language,omitempty"`
	// NormalizeModel names a chat model that cleans transcripts before
	// parsing. Openai engines only; empty disables normalization.
	NormalizeModel string `yaml:"normalize_model" json:"normalize_model,omitempty"`
}

// TTS configures the spoken response renderer.
type TTS struct {
	// Rate is a words-per-minute hint for the voice.
	Rate int `yaml:"rate" json:"rate"`
	// Volume is the output level, 0 to 1.
	Volume float64 `yaml:"volume" json:"volume"`
	// Command runs an external program per response line, e.g. "say".
	// Empty prints responses to the console.
	Command string `yaml:"command" json:"command,omitempty"`
}

// Menu points at the menu file and tunes mention resolution.
type Menu struct {
	// Path is the menu YAML file.
	Path string `yaml:"path" json:"path"`
	// MatchThreshold is the minimum fuzzy-match score, 0 to 1.
	MatchThreshold float64 `yaml:"match_threshold" json:"match_threshold"`
	// AmbiguityMargin is the lead the best candidate needs over the
	// runner-up to resolve uniquely, 0 to 1.
	AmbiguityMargin float64 `yaml:"ambiguity_margin" json:"ambiguity_margin"`
	// AmbiguousPolicy handles near-ties: clarify or best.
	AmbiguousPolicy string `yaml:"ambiguous_policy" json:"ambiguous_policy"`
}

// Orders configures order persistence.
type Orders struct {
	// Dir holds one JSON file per finalized order.
	Dir string `yaml:"dir" json:"dir"`
	// Archive mirrors saved orders to "s3://bucket/prefix"; empty
	// disables the mirror.
	Archive string `yaml:"archive" json:"archive,omitempty"`
	// StatsDir is the badger directory for item counts and the order
	// index; empty disables stats.
	StatsDir string `yaml:"stats_dir" json:"stats_dir,omitempty"`
}

// Session bounds a single ordering conversation.
type Session struct {
	// IdleTimeout ends the session after this much quiet; 0 disables.
	IdleTimeout jsontime.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// Feed configures the kitchen event feed.
type Feed struct {
	// Listen is the websocket address, e.g. ":8070"; empty disables
	// the feed.
	Listen string `yaml:"listen" json:"listen,omitempty"`
}

// Logging configures the process logger.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
}

// Settings is the full tably.yaml file.
type Settings struct {
	Audio    Audio    `yaml:"audio" json:"audio"`
	WakeWord WakeWord `yaml:"wake_word" json:"wake_word"`
	Recorder Recorder `yaml:"recorder" json:"recorder"`
	ASR      ASR      `yaml:"asr" json:"asr"`
	TTS      TTS      `yaml:"tts" json:"tts"`
	Menu     Menu     `yaml:"menu" json:"menu"`
	Orders   Orders   `yaml:"orders" json:"orders"`
	Session  Session  `yaml:"session" json:"session"`
	Feed     Feed     `yaml:"feed" json:"feed"`
	Logging  Logging  `yaml:"logging" json:"logging"`
}

// Default returns settings with every option at its documented default.
func Default() *Settings {
	return &Settings{
		Audio: Audio{
			SampleRate:  16000,
			ChunkSize:   1024,
			QueueFrames: 64,
		},
		WakeWord: WakeWord{
			Model:         wake.DefaultModel,
			Threshold:     0.5,
			Cooldown:      jsontime.Duration(2 * time.Second),
			CapturePolicy: string(dialog.CaptureIgnore),
		},
		Recorder: Recorder{
			SilenceThreshold: 500,
			SilenceDuration:  jsontime.Duration(1500 * time.Millisecond),
			MaxUtterance:     jsontime.Duration(10 * time.Second),
			PreSpeechTimeout: jsontime.Duration(6 * time.Second),
			MinSpeech:        jsontime.Duration(300 * time.Millisecond),
		},
		ASR: ASR{
			Engine:              speech.NullEngine,
			ConfidenceThreshold: 0.5,
			Language:            "en",
		},
		TTS: TTS{
			Rate:   150,
			Volume: 0.9,
		},
		Menu: Menu{
			Path:            "menu.yaml",
			MatchThreshold:  0.6,
			AmbiguityMargin: 0.15,
			AmbiguousPolicy: string(dialog.AmbiguousClarify),
		},
		Orders: Orders{
			Dir: "orders",
		},
		Session: Session{
			IdleTimeout: jsontime.Duration(5 * time.Minute),
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads and validates a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes settings YAML over the defaults and validates the
// result. Unknown fields are an error.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.UnmarshalWithOptions(data, s, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every option and reports the first violation.
func (s *Settings) Validate() error {
	if _, err := pcm.FormatForRate(s.Audio.SampleRate); err != nil {
		return fmt.Errorf("config: audio.sample_rate: %w", err)
	}
	if s.Audio.ChunkSize <= 0 {
		return fmt.Errorf("config: audio.chunk_size must be positive, got %d", s.Audio.ChunkSize)
	}
	if s.Audio.SourceRate < 0 {
		return fmt.Errorf("config: audio.source_rate must not be negative, got %d", s.Audio.SourceRate)
	}
	if s.Audio.QueueFrames <= 0 {
		return fmt.Errorf("config: audio.queue_frames must be positive, got %d", s.Audio.QueueFrames)
	}

	if s.WakeWord.Model == "" {
		return fmt.Errorf("config: wake_word.model is required")
	}
	if err := unitRange("wake_word.threshold", s.WakeWord.Threshold); err != nil {
		return err
	}
	if s.WakeWord.Cooldown < 0 {
		return fmt.Errorf("config: wake_word.cooldown must not be negative, got %s", s.WakeWord.Cooldown)
	}
	switch dialog.CapturePolicy(s.WakeWord.CapturePolicy) {
	case dialog.CaptureIgnore, dialog.CaptureRestart:
	default:
		return fmt.Errorf("config: wake_word.capture_policy must be %q or %q, got %q",
			dialog.CaptureIgnore, dialog.CaptureRestart, s.WakeWord.CapturePolicy)
	}

	if s.Recorder.SilenceThreshold <= 0 {
		return fmt.Errorf("config: recorder.silence_threshold must be positive, got %d", s.Recorder.SilenceThreshold)
	}
	for _, d := range []struct {
		name string
		val  jsontime.Duration
	}{
		{"recorder.silence_duration", s.Recorder.SilenceDuration},
		{"recorder.max_utterance", s.Recorder.MaxUtterance},
		{"recorder.pre_speech_timeout", s.Recorder.PreSpeechTimeout},
		{"recorder.min_speech", s.Recorder.MinSpeech},
	} {
		if d.val <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", d.name, d.val)
		}
	}

	family, _, ok := strings.Cut(s.ASR.Engine, "/")
	if !ok || family == "" {
		return fmt.Errorf("config: asr.engine must be a family/model path, got %q", s.ASR.Engine)
	}
	switch family {
	case "local":
	case "openai", "genai":
		if s.ASR.APIKeyEnv == "" {
			return fmt.Errorf("config: asr.api_key_env is required for %s engines", family)
		}
	default:
		return fmt.Errorf("config: asr.engine %q: unknown family (want local/, openai/ or genai/)", s.ASR.Engine)
	}
	if err := unitRange("asr.confidence_threshold", s.ASR.ConfidenceThreshold); err != nil {
		return err
	}
	if s.ASR.NormalizeModel != "" && family != "openai" {
		return fmt.Errorf("config: asr.normalize_model requires an openai engine, got %q", s.ASR.Engine)
	}

	if s.TTS.Rate <= 0 {
		return fmt.Errorf("config: tts.rate must be positive, got %d", s.TTS.Rate)
	}
	if err := unitRange("tts.volume", s.TTS.Volume); err != nil {
		return err
	}
	if s.TTS.Command != "" && len(strings.Fields(s.TTS.Command)) == 0 {
		return fmt.Errorf("config: tts.command must name a program, got %q", s.TTS.Command)
	}

	if s.Menu.Path == "" {
		return fmt.Errorf("config: menu.path is required")
	}
	if err := unitRange("menu.match_threshold", s.Menu.MatchThreshold); err != nil {
		return err
	}
	if err := unitRange("menu.ambiguity_margin", s.Menu.AmbiguityMargin); err != nil {
		return err
	}
	switch dialog.AmbiguousPolicy(s.Menu.AmbiguousPolicy) {
	case dialog.AmbiguousClarify, dialog.AmbiguousBest:
	default:
		return fmt.Errorf("config: menu.ambiguous_policy must be %q or %q, got %q",
			dialog.AmbiguousClarify, dialog.AmbiguousBest, s.Menu.AmbiguousPolicy)
	}

	if s.Orders.Dir == "" {
		return fmt.Errorf("config: orders.dir is required")
	}
	if s.Orders.Archive != "" {
		if _, _, err := ParseArchiveURL(s.Orders.Archive); err != nil {
			return err
		}
	}

	if s.Session.IdleTimeout < 0 {
		return fmt.Errorf("config: session.idle_timeout must not be negative, got %s", s.Session.IdleTimeout)
	}

	if s.Feed.Listen != "" {
		if _, _, err := net.SplitHostPort(s.Feed.Listen); err != nil {
			return fmt.Errorf("config: feed.listen: %w", err)
		}
	}

	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be debug, info, warn or error, got %q", s.Logging.Level)
	}
	return nil
}

func unitRange(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("config: %s must be in [0,1], got %v", name, v)
	}
	return nil
}

// ParseArchiveURL splits an "s3://bucket/prefix" archive location.
func ParseArchiveURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("config: archive location: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("config: archive location must be s3://bucket[/prefix], got %q", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// Schema returns the JSON schema of the settings file, derived from
// the Go types.
func Schema() (*jsonschema.Schema, error) {
	return jsonschema.For[Settings](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[jsontime.Duration](): {
				Type:        "string",
				Description: `Go duration string, e.g. "1.5s"`,
			},
		},
	})
}

// MenuSchema returns the JSON schema of the menu file.
func MenuSchema() (*jsonschema.Schema, error) {
	type menuFile struct {
		Categories []menu.Category `json:"categories"`
	}
	return jsonschema.For[menuFile](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[menu.Cents](): {
				Type:        "number",
				Description: "price in dollars, at most two decimals",
			},
		},
	})
}
