package gemini

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/microvision-ai/microvision-core/core/audio"
)

const speechVoice = "Kore"

// Synthesize voices text and returns it as a playback-ready PCM buffer.
func (c *Client) Synthesize(ctx context.Context, text string) (*audio.Buffer, error) {
	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.speechModel))

	contents := []*genai.Content{{
		Parts: []*genai.Part{genai.NewPartFromText(text)},
	}}

	response, err := c.genai.Models.GenerateContent(ctx, c.speechModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: speechVoice},
			},
		},
	})
	if err != nil {
		err = fmt.Errorf("speech synthesis request failed: %w", err)
		span.RecordError(err)
		return nil, err
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			buffer, err := audio.DecodePCM16Bytes(part.InlineData.Data, audio.PlaybackSampleRate, audio.DefaultChannels)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
			}
			return buffer, nil
		}
	}

	err = fmt.Errorf("speech synthesis returned no audio")
	span.RecordError(err)
	return nil, err
}
