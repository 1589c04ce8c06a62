// Package gemini adapts the Gemini Live websocket endpoint
// (BidiGenerateContent) to the internal realtime event model.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"

	"github.com/microvision-ai/microvision-core/core/audio"
	"github.com/microvision-ai/microvision-core/core/realtime"
)

const (
	liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultLiveModel is the native-audio live model the client speaks to
	// unless overridden per connect.
	DefaultLiveModel = "models/gemini-2.5-flash-native-audio-preview-12-2025"

	apiKeyEnv        = "GEMINI_API_KEY"
	handshakeTimeout = 15 * time.Second
)

// LiveClient owns at most one live connection at a time. A client may be
// reconnected after Close, but a closed connection is never reused and
// dispatches no further events.
type LiveClient struct {
	conn    *websocket.Conn
	onEvent func(realtime.Event)

	connMu sync.Mutex
	closed atomic.Bool
}

func NewLiveClient() *LiveClient {
	client := &LiveClient{}
	client.closed.Store(true)
	return client
}

// Connect dials the live endpoint, performs the setup handshake, and resolves
// once the connection is usable. The Opened event is dispatched to onEvent
// before Connect returns; inbound events follow on a background read loop in
// the order the server emits them.
func (c *LiveClient) Connect(ctx context.Context, onEvent func(realtime.Event), opts ...realtime.ConnectOption) error {
	ctx, span := tracer.Start(ctx, "connect live session")
	defer span.End()

	options := realtime.ConnectOptions{Model: DefaultLiveModel}
	for _, opt := range opts {
		opt(&options)
	}

	apiKey := options.APIKey
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv(apiKeyEnv); !ok {
			err := fmt.Errorf("gemini api key not found")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	endpoint, _ := url.Parse(liveEndpoint)
	queryParams := endpoint.Query()
	queryParams.Set("key", apiKey)
	endpoint.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		err = fmt.Errorf("failed to open socket connection to gemini: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	setup := clientMessage{Setup: &setupPayload{
		Model:                    options.Model,
		GenerationConfig:         &generationConfig{ResponseModalities: []string{"AUDIO"}},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}}
	if options.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &content{Parts: []contentPart{{Text: options.SystemInstruction}}}
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to send live setup: %w", err)
	}

	// The first server frame must acknowledge the setup before any media
	// flows either way.
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to read live setup acknowledgement: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	var ack serverMessage
	if err := json.Unmarshal(payload, &ack); err != nil || ack.SetupComplete == nil {
		_ = conn.Close()
		return fmt.Errorf("unexpected first live frame: %s", payload)
	}

	c.connMu.Lock()
	c.conn = conn
	c.onEvent = onEvent
	c.closed.Store(false)
	c.connMu.Unlock()

	c.dispatch(realtime.NewOpened())
	go c.readAndProcessMessages(conn)

	return nil
}

// Send submits one media payload. Fire-and-forget: submission order is
// preserved per kind but delivery order across kinds is not guaranteed by the
// endpoint.
func (c *LiveClient) Send(input realtime.Input) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil || c.closed.Load() {
		return fmt.Errorf("live connection is not open")
	}

	msg := clientMessage{RealtimeInput: &realtimeInputPayload{
		MediaChunks: []mediaChunk{{MIMEType: input.MIMEType, Data: input.Data}},
	}}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to live connection: %w", err)
	}
	return nil
}

// Close tears the connection down. Idempotent; after Close returns no further
// events are dispatched, even ones already in flight on the read loop.
func (c *LiveClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second),
	)
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *LiveClient) readAndProcessMessages(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.dispatch(realtime.NewClosed(err.Error()))
			} else {
				c.dispatch(realtime.NewError(fmt.Errorf("live connection failed: %w", err)))
			}

			c.closed.Store(true)
			_ = conn.Close()
			return
		}

		for _, event := range classifyServerMessage(msg) {
			c.dispatch(event)
		}
	}
}

func (c *LiveClient) dispatch(event realtime.Event) {
	if c.closed.Load() {
		return
	}
	if c.onEvent != nil {
		c.onEvent(event)
	}
}

// classifyServerMessage turns one server frame into zero or more events, in
// the order the frame carries them: audio first, then the output and input
// transcript fragments. Frames this client does not understand produce no
// events.
func classifyServerMessage(msg []byte) []realtime.Event {
	var parsed serverMessage
	if err := json.Unmarshal(msg, &parsed); err != nil {
		log.Printf("Failed to unmarshal live server message: %v", err)
		return nil
	}

	serverContent := parsed.ServerContent
	if serverContent == nil {
		return nil
	}

	events := []realtime.Event{}
	if serverContent.ModelTurn != nil {
		for _, part := range serverContent.ModelTurn.Parts {
			if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MIMEType, "audio/pcm") {
				continue
			}

			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				events = append(events, realtime.NewError(&audio.CodecError{Reason: "invalid base64 audio payload", Err: err}))
				continue
			}
			events = append(events, realtime.NewAudioChunk(data, parseSampleRate(part.InlineData.MIMEType), audio.DefaultChannels))
		}
	}
	if serverContent.OutputTranscription != nil && serverContent.OutputTranscription.Text != "" {
		events = append(events, realtime.NewOutputTranscriptDelta(serverContent.OutputTranscription.Text))
	}
	if serverContent.InputTranscription != nil && serverContent.InputTranscription.Text != "" {
		events = append(events, realtime.NewInputTranscriptDelta(serverContent.InputTranscription.Text))
	}

	return events
}

func parseSampleRate(mimeType string) int {
	for field := range strings.SplitSeq(mimeType, ";") {
		if rate, ok := strings.CutPrefix(strings.TrimSpace(field), "rate="); ok {
			if parsed, err := strconv.Atoi(rate); err == nil && parsed > 0 {
				return parsed
			}
		}
	}
	return audio.PlaybackSampleRate
}
