package speech

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go"

	"github.com/haivivi/tably/go/pkg/capture"
)

const normalizePrompt = `You correct speech-to-text output from a restaurant ordering assistant. Fix obvious mis-hearings of food words, quantities, and numbers ("too spring roles" -> "two spring rolls") without inventing content. Reply with only JSON: {"text": "<corrected transcript>", "confidence": <0..1 estimate that the corrected text matches what was said>}.`

// Normalizer wraps a Transcriber and passes its raw text through a chat
// model that cleans up ordering-domain wording and judges confidence.
// Chat failures fall back to the raw transcript, logged, never fatal.
type Normalizer struct {
	ASR    Transcriber
	Client *openai.Client

	// Model is the chat model; empty means gpt-4o-mini.
	Model string
}

var _ Transcriber = (*Normalizer)(nil)

func (n *Normalizer) Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	raw, err := n.ASR.Transcribe(ctx, name, utt)
	if err != nil || raw.Text == "" {
		return raw, err
	}

	model := n.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	resp, err := n.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(normalizePrompt),
			openai.UserMessage(raw.Text),
		},
	})
	if err != nil {
		slog.Warn("speech: transcript normalizer failed", "model", model, "err", err)
		return raw, nil
	}
	if len(resp.Choices) == 0 {
		return raw, nil
	}

	fixed, err := unmarshalTranscript([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		slog.Warn("speech: transcript normalizer returned malformed JSON", "model", model, "err", err)
		return raw, nil
	}
	return fixed, nil
}

// unmarshalTranscript parses model-produced JSON into a Transcript,
// repairing malformed JSON before giving up. Confidence is clamped to
// [0, 1].
func unmarshalTranscript(data []byte) (*Transcript, error) {
	var t Transcript
	err := json.Unmarshal(data, &t)
	if err != nil {
		if _, ok := err.(*json.SyntaxError); !ok {
			return nil, err
		}
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fixed), &t); err != nil {
			return nil, err
		}
	}
	switch {
	case t.Confidence < 0:
		t.Confidence = 0
	case t.Confidence > 1:
		t.Confidence = 1
	}
	return &t, nil
}
