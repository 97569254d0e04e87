package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/haivivi/tably/go/pkg/capture"
)

const genaiPrompt = `Transcribe the attached audio of a customer speaking to a restaurant ordering assistant. Respond with only JSON: {"text": "<verbatim transcript>", "confidence": <0..1>}. Use an empty text if there is no intelligible speech.`

// Genai transcribes utterances through the Gemini API: the audio goes
// inline as a WAV blob with a transcription prompt, and the model is
// asked for JSON {text, confidence}. The engine path picks the model:
// "genai/gemini-2.0-flash" → gemini-2.0-flash.
type Genai struct {
	Client *genai.Client
}

var _ Transcriber = (*Genai)(nil)

func (t *Genai) Transcribe(ctx context.Context, name string, utt *capture.Utterance) (*Transcript, error) {
	_, model, _ := strings.Cut(name, "/")
	if model == "" {
		return nil, fmt.Errorf("speech: transcribe %s: no model in engine path", name)
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: genaiPrompt},
			{InlineData: &genai.Blob{
				MIMEType: "audio/wav",
				Data:     EncodeWAV(utt.Format, utt.Samples),
			}},
		},
	}}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := t.Client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return nil, fmt.Errorf("speech: transcribe %s: %w", name, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("speech: transcribe %s: no candidates", name)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	out, err := unmarshalTranscript([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("speech: transcribe %s: %w", name, err)
	}
	return out, nil
}
