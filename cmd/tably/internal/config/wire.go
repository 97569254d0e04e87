package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/haivivi/tably/go/pkg/audio/pcm"
	"github.com/haivivi/tably/go/pkg/audio/resampler"
	"github.com/haivivi/tably/go/pkg/capture"
	"github.com/haivivi/tably/go/pkg/feed"
	"github.com/haivivi/tably/go/pkg/kv"
	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
	"github.com/haivivi/tably/go/pkg/speech"
	"github.com/haivivi/tably/go/pkg/storage"
	"github.com/haivivi/tably/go/pkg/wake"
)

// Format returns the pipeline PCM format.
func (s *Settings) Format() (pcm.Format, error) {
	return pcm.FormatForRate(s.Audio.SampleRate)
}

// NewLogger builds the process logger at the configured level, writing
// to w.
func (s *Settings) NewLogger(w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch s.Logging.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewSource turns a raw PCM stream into a frame source, resampling
// when the source rate differs from the pipeline rate.
func (s *Settings) NewSource(r io.Reader) (capture.Source, error) {
	if s.Audio.SourceRate != 0 && s.Audio.SourceRate != s.Audio.SampleRate {
		rs, err := resampler.New(r, resampler.Format{SampleRate: s.Audio.SourceRate}, s.Audio.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("config: audio.source_rate: %w", err)
		}
		r = rs
	}
	return capture.NewReaderSource(r, s.Audio.ChunkSize), nil
}

// NewQueue returns the bounded frame queue that decouples the source
// from the pipeline.
func (s *Settings) NewQueue() *capture.QueueSource {
	return capture.NewQueueSource(s.Audio.QueueFrames)
}

// NewRecorder builds the endpointing recorder.
func (s *Settings) NewRecorder() (*capture.Recorder, error) {
	format, err := s.Format()
	if err != nil {
		return nil, fmt.Errorf("config: audio.sample_rate: %w", err)
	}
	return capture.NewRecorder(format, &capture.RecorderOptions{
		SilenceThreshold: s.Recorder.SilenceThreshold,
		SilenceDuration:  time.Duration(s.Recorder.SilenceDuration),
		MaxUtterance:     time.Duration(s.Recorder.MaxUtterance),
		PreSpeechTimeout: time.Duration(s.Recorder.PreSpeechTimeout),
		MinSpeech:        time.Duration(s.Recorder.MinSpeech),
	}), nil
}

// NewGate builds the wake gate from the configured detector model.
func (s *Settings) NewGate() (*wake.Gate, error) {
	det, err := wake.New(s.WakeWord.Model)
	if err != nil {
		return nil, fmt.Errorf("config: wake_word.model: %w", err)
	}
	return wake.NewGate(det, &wake.GateOptions{
		Threshold: s.WakeWord.Threshold,
		Cooldown:  time.Duration(s.WakeWord.Cooldown),
	}), nil
}

// LoadCatalog reads the menu file with the configured matcher knobs.
func (s *Settings) LoadCatalog() (*menu.Catalog, error) {
	return menu.Load(s.Menu.Path, &menu.Config{
		MatchThreshold:  s.Menu.MatchThreshold,
		AmbiguityMargin: s.Menu.AmbiguityMargin,
	})
}

// NewTranscriber builds the ASR stack for the configured engine. Cloud
// engines read their API key from the asr.api_key_env variable; a
// missing key is an error rather than a silent fallback.
func (s *Settings) NewTranscriber(ctx context.Context) (speech.Transcriber, error) {
	mux := speech.NewASRMux()
	if err := mux.Handle("local/+", speech.Null{}); err != nil {
		return nil, fmt.Errorf("config: asr: %w", err)
	}

	family, _, _ := strings.Cut(s.ASR.Engine, "/")
	var oa *openai.Client
	switch family {
	case "local":
	case "openai":
		key, err := s.apiKey()
		if err != nil {
			return nil, err
		}
		client := openai.NewClient(option.WithAPIKey(key))
		oa = &client
		if err := mux.Handle("openai/+", &speech.OpenAI{Client: oa, Language: s.ASR.Language}); err != nil {
			return nil, fmt.Errorf("config: asr: %w", err)
		}
	case "genai":
		key, err := s.apiKey()
		if err != nil {
			return nil, err
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
		if err != nil {
			return nil, fmt.Errorf("config: asr: genai client: %w", err)
		}
		if err := mux.Handle("genai/+", &speech.Genai{Client: client}); err != nil {
			return nil, fmt.Errorf("config: asr: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: asr.engine %q: unknown family", s.ASR.Engine)
	}

	if s.ASR.NormalizeModel != "" {
		if oa == nil {
			return nil, fmt.Errorf("config: asr.normalize_model requires an openai engine, got %q", s.ASR.Engine)
		}
		return &speech.Normalizer{ASR: mux, Client: oa, Model: s.ASR.NormalizeModel}, nil
	}
	return mux, nil
}

func (s *Settings) apiKey() (string, error) {
	key := os.Getenv(s.ASR.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("config: asr.api_key_env: %s is not set", s.ASR.APIKeyEnv)
	}
	return key, nil
}

// NewRenderer builds the response renderer: an exec command when
// tts.command is set, the console writer otherwise.
func (s *Settings) NewRenderer() speech.Renderer {
	if s.TTS.Command == "" {
		return &speech.Console{Prefix: "tably> "}
	}
	fields := strings.Fields(s.TTS.Command)
	return &speech.Exec{Command: fields[0], Args: fields[1:]}
}

// NewLedger builds the order ledger over local persistence plus the
// configured archive and stats sinks. The returned closer releases the
// stats store and must be called on shutdown.
func (s *Settings) NewLedger(log *slog.Logger) (*order.Ledger, func() error, error) {
	files, err := storage.NewLocal(s.Orders.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("config: orders.dir: %w", err)
	}
	opts := &order.StoreOptions{Logger: log}
	closer := func() error { return nil }
	if s.Orders.Archive != "" {
		bucket, prefix, err := ParseArchiveURL(s.Orders.Archive)
		if err != nil {
			return nil, nil, err
		}
		client, err := NewS3Client()
		if err != nil {
			return nil, nil, err
		}
		opts.Archive = storage.NewS3(client, bucket, prefix)
	}
	if s.Orders.StatsDir != "" {
		db, err := kv.NewBadger(kv.BadgerOptions{Dir: s.Orders.StatsDir})
		if err != nil {
			return nil, nil, fmt.Errorf("config: orders.stats_dir: %w", err)
		}
		stats := order.NewStats(db)
		opts.Stats = stats
		closer = stats.Close
	}
	return order.NewLedger(order.NewStore(files, opts)), closer, nil
}

// NewStats opens the stats store alone, for read-side commands. The
// caller must Close it.
func (s *Settings) NewStats() (*order.Stats, error) {
	if s.Orders.StatsDir == "" {
		return nil, fmt.Errorf("config: orders.stats_dir is not set")
	}
	db, err := kv.NewBadger(kv.BadgerOptions{Dir: s.Orders.StatsDir})
	if err != nil {
		return nil, fmt.Errorf("config: orders.stats_dir: %w", err)
	}
	return order.NewStats(db), nil
}

// NewOrderFiles opens the local order file store alone, for read-side
// commands.
func (s *Settings) NewOrderFiles() (storage.FileStore, error) {
	files, err := storage.NewLocal(s.Orders.Dir)
	if err != nil {
		return nil, fmt.Errorf("config: orders.dir: %w", err)
	}
	return files, nil
}

// NewFeed returns the kitchen feed server, or nil when feed.listen is
// empty.
func (s *Settings) NewFeed(log *slog.Logger) *feed.Server {
	if s.Feed.Listen == "" {
		return nil
	}
	return feed.NewServer(&feed.Options{Logger: log})
}

// NewS3Client builds an S3 client from the conventional AWS_*
// environment variables. AWS_ENDPOINT_URL points it at an S3-compatible
// store such as MinIO.
func NewS3Client() (*s3.Client, error) {
	key := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key == "" || secret == "" {
		return nil, fmt.Errorf("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	session := os.Getenv("AWS_SESSION_TOKEN")
	opts := s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     key,
				SecretAccessKey: secret,
				SessionToken:    session,
			}, nil
		}),
	}
	if ep := os.Getenv("AWS_ENDPOINT_URL"); ep != "" {
		opts.BaseEndpoint = aws.String(ep)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}
