// Package realtime defines the event model shared between the live transport
// and the session controller: a typed union of inbound server events and a
// typed union of outbound media inputs.
package realtime

import "time"

type Kind string

const (
	KindOpened           Kind = "opened"
	KindClosed           Kind = "closed"
	KindError            Kind = "error"
	KindAudioChunk       Kind = "audio-chunk"
	KindInputTranscript  Kind = "input-transcript-delta"
	KindOutputTranscript Kind = "output-transcript-delta"
)

// Event is one inbound occurrence on the live connection. Events are consumed
// by the session's dispatcher and discarded, never retained.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.timestamp }

// Opened is dispatched once, after the connection handshake completes.
type Opened struct {
	Base
}

func NewOpened() Opened {
	return Opened{Base: NewBase(KindOpened)}
}

// Closed is dispatched when the remote end closes the connection. A close
// initiated locally does not produce one.
type Closed struct {
	Base
	Reason string
}

func NewClosed(reason string) Closed {
	return Closed{Base: NewBase(KindClosed), Reason: reason}
}

// Error is dispatched on a mid-stream transport failure. It is terminal.
type Error struct {
	Base
	Err error
}

func NewError(err error) Error {
	return Error{Base: NewBase(KindError), Err: err}
}

// AudioChunk carries raw 16-bit little-endian PCM produced by the model.
type AudioChunk struct {
	Base
	Data       []byte
	SampleRate int
	Channels   int
}

func NewAudioChunk(data []byte, sampleRate, channels int) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Data: data, SampleRate: sampleRate, Channels: channels}
}

// InputTranscriptDelta is a fragment of the user's speech transcribed by the
// endpoint.
type InputTranscriptDelta struct {
	Base
	Text string
}

func NewInputTranscriptDelta(text string) InputTranscriptDelta {
	return InputTranscriptDelta{Base: NewBase(KindInputTranscript), Text: text}
}

// OutputTranscriptDelta is a fragment of the model's spoken response.
type OutputTranscriptDelta struct {
	Base
	Text string
}

func NewOutputTranscriptDelta(text string) OutputTranscriptDelta {
	return OutputTranscriptDelta{Base: NewBase(KindOutputTranscript), Text: text}
}
