package realtime

import "time"

const (
	// AudioMIMEType labels microphone PCM the way the live endpoint expects it.
	AudioMIMEType = "audio/pcm;rate=16000"
	// FrameMIMEType labels camera frames.
	FrameMIMEType = "image/jpeg"
)

type InputKind string

const (
	InputKindAudio InputKind = "audio"
	InputKindFrame InputKind = "frame"
)

// Input is one outbound media payload. No ordering is guaranteed between the
// two kinds once submitted; each is timestamped on construction, which is the
// moment it reaches the transport.
type Input struct {
	kind      InputKind
	timestamp time.Time

	// MIMEType and Data (base64) travel to the endpoint verbatim.
	MIMEType string
	Data     string
}

func NewAudioInput(data string) Input {
	return Input{kind: InputKindAudio, timestamp: time.Now(), MIMEType: AudioMIMEType, Data: data}
}

func NewFrameInput(data string) Input {
	return Input{kind: InputKindFrame, timestamp: time.Now(), MIMEType: FrameMIMEType, Data: data}
}

func (i Input) Kind() InputKind      { return i.kind }
func (i Input) Timestamp() time.Time { return i.timestamp }
