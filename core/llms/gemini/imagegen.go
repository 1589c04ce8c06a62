package gemini

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// ImageSize selects the rendered resolution tier.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// GenerateLabImage renders a square illustration for the given prompt and
// returns the raw image bytes.
func (c *Client) GenerateLabImage(ctx context.Context, prompt string, size ImageSize) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "generate lab image")
	defer span.End()

	if size == "" {
		size = ImageSize1K
	}
	span.SetAttributes(
		attribute.String("request.model", c.imageModel),
		attribute.String("request.image_size", string(size)),
	)

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}

	response, err := c.genai.Models.GenerateContent(ctx, c.imageModel, contents, &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: "1:1",
			ImageSize:   string(size),
		},
	})
	if err != nil {
		err = fmt.Errorf("image generation request failed: %w", err)
		span.RecordError(err)
		return nil, err
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	err = fmt.Errorf("image generation returned no image")
	span.RecordError(err)
	return nil, err
}
