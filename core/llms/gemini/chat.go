package gemini

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/microvision-ai/microvision-core/core/conversations"
)

const (
	// assistantPersona primes every chat exchange with the lab assistant
	// identity and pins responses to Arabic.
	assistantPersona = "أنت نظام MicroVision AI المساعد المختبري الذكي. أجب بدقة علمية وباللغة العربية."

	chatFallbackReply = "عذراً، لم أتمكن من معالجة طلبك."

	chatTemperature float32 = 0.7
)

// Chat sends one user prompt with the prior history and returns the finalised
// assistant message, including any web citations the response was grounded
// on.
func (c *Client) Chat(ctx context.Context, prompt string, history []conversations.MessageV0) (conversations.MessageV0, error) {
	ctx, span := tracer.Start(ctx, "prompt grounded chat")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.chatModel))

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(assistantPersona)},
	}}
	contents = append(contents, toContents(history)...)
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	})

	response, err := c.genai.Models.GenerateContent(ctx, c.chatModel, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(chatTemperature),
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		err = fmt.Errorf("chat request failed: %w", err)
		span.RecordError(err)
		return conversations.MessageV0{}, err
	}

	text := response.Text()
	if text == "" {
		text = chatFallbackReply
	}

	msg := conversations.NewMessage(conversations.RoleAssistant, conversations.KindChat, text)
	msg.Grounding = groundingSources(response)
	span.SetAttributes(attribute.Int("response.grounding_sources", len(msg.Grounding)))
	return msg, nil
}

func toContents(history []conversations.MessageV0) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := genai.RoleUser
		if msg.Role == conversations.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Text)},
		})
	}
	return contents
}

func groundingSources(response *genai.GenerateContentResponse) []conversations.GroundingSource {
	if len(response.Candidates) == 0 || response.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []conversations.GroundingSource
	for _, chunk := range response.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		sources = append(sources, conversations.GroundingSource{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}
