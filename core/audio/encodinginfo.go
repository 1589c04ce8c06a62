package audio

import "strconv"

const (
	// CaptureSampleRate is the microphone rate sent to the live endpoint.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the rate the live endpoint produces audio at.
	PlaybackSampleRate = 24000

	DefaultChannels = 1
)

func GetCaptureEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: CaptureSampleRate, Channels: DefaultChannels, Format: EncodingLinear16}
}

func GetPlaybackEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: PlaybackSampleRate, Channels: DefaultChannels, Format: EncodingLinear16}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Channels == 0 || e.Format.Name() == ""
}

// MIMEType renders the encoding the way the live endpoint labels PCM media.
func (e EncodingInfo) MIMEType() string {
	return "audio/pcm;rate=" + strconv.Itoa(e.SampleRate)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingLinear16 encodingFormat = "linear16"
)
