package gemini

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// defaultAnalysisPrompt asks for a detailed reading of the sample and the
// medical possibilities it suggests.
const defaultAnalysisPrompt = "قم بتحليل هذه العينة المختبرية بالتفصيل واذكر الاحتمالات الطبية."

// AnalyzeMedia submits one image or short clip for interpretation. An empty
// prompt falls back to the default sample analysis instruction.
func (c *Client) AnalyzeMedia(ctx context.Context, data []byte, mimeType string, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "analyze media sample")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", c.chatModel),
		attribute.String("request.mime_type", mimeType),
		attribute.Int("request.payload_bytes", len(data)),
	)

	if len(data) == 0 {
		return "", fmt.Errorf("no media payload to analyze")
	}
	if prompt == "" {
		prompt = defaultAnalysisPrompt
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(prompt),
		},
	}}

	response, err := c.genai.Models.GenerateContent(ctx, c.chatModel, contents, nil)
	if err != nil {
		err = fmt.Errorf("media analysis request failed: %w", err)
		span.RecordError(err)
		return "", err
	}

	text := response.Text()
	if text == "" {
		return "", fmt.Errorf("media analysis returned no text")
	}
	return text, nil
}
