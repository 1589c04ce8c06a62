// Package gemini wraps the request/response Gemini API surface used outside
// the live session: grounded chat, sample analysis, lab image generation, and
// speech synthesis.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

const (
	// DefaultChatModel handles grounded chat and media analysis.
	DefaultChatModel = "gemini-3-pro-preview"
	// DefaultImageModel renders lab illustration requests.
	DefaultImageModel = "gemini-3-pro-image-preview"
	// DefaultSpeechModel voices plain text responses.
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"

	apiKeyEnv = "GEMINI_API_KEY"
)

type Client struct {
	genai *genai.Client

	chatModel   string
	imageModel  string
	speechModel string
}

type Option func(*clientOptions)

type clientOptions struct {
	apiKey     string
	chatModel  string
	httpClient *http.Client
}

func WithAPIKey(apiKey string) Option {
	return func(o *clientOptions) { o.apiKey = apiKey }
}

func WithChatModel(model string) Option {
	return func(o *clientOptions) { o.chatModel = model }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	options := clientOptions{chatModel: DefaultChatModel}
	for _, opt := range opts {
		opt(&options)
	}

	apiKey := options.apiKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv(apiKeyEnv); !ok {
			return nil, fmt.Errorf("gemini api key not found")
		}
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		genai:       client,
		chatModel:   options.chatModel,
		imageModel:  DefaultImageModel,
		speechModel: DefaultSpeechModel,
	}, nil
}
