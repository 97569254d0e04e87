package speech

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/openai/openai-go"

	"github.com/haivivi/tably/go/pkg/capture"
)

// OpenAI transcribes utterances through the OpenAI audio API. The
// engine path picks the model: "openai/whisper-1" → whisper-1.
type OpenAI struct {
	Client *openai.Client

	// Language is an optional ISO-639-1 hint, e.g. "en".
	Language string
}

var _ Transcriber = (*OpenAI)(nil)

// Transcribe uploads the utterance as WAV and returns the model's text.
// whisper-1 reports no per-utterance confidence, so non-empty text maps
// to confidence 1; the gpt-4o transcribe family reports token logprobs,
// which average into the confidence.
func (t *OpenAI) Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	_, model, _ := strings.Cut(name, "/")
	if model == "" {
		model = openai.AudioModelWhisper1
	}

	wav := EncodeWAV(utt.Format, utt.Samples)
	params := openai.AudioTranscriptionNewParams{
		Model: model,
		File:  openai.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
	}
	if t.Language != "" {
		params.Language = openai.String(t.Language)
	}
	if model != openai.AudioModelWhisper1 {
		params.Include = []openai.TranscriptionInclude{openai.TranscriptionIncludeLogprobs}
	}

	resp, err := t.Client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("speech: transcribe %s: %w", name, err)
	}

	out := &Transcript{Text: strings.TrimSpace(resp.Text)}
	if out.Text == "" {
		return out, nil
	}
	out.Confidence = 1
	if n := len(resp.Logprobs); n > 0 {
		var sum float64
		for _, lp := range resp.Logprobs {
			sum += math.Exp(lp.Logprob)
		}
		out.Confidence = sum / float64(n)
	}
	return out, nil
}
