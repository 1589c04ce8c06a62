package audio

import (
	"encoding/base64"
	"fmt"
	"time"
)

// CodecError reports a malformed PCM payload. It is terminal for the session
// that received it.
type CodecError struct {
	Reason string
	Err    error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pcm codec: %s: %v", e.Reason, e.Err)
	}
	return "pcm codec: " + e.Reason
}

func (e *CodecError) Unwrap() error { return e.Err }

// Buffer holds decoded planar float samples in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// FrameCount returns the number of samples per channel.
func (b *Buffer) FrameCount() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration derives playback time from the frame count and sample rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.FrameCount()) * time.Second / time.Duration(b.SampleRate)
}

// Interleave converts the buffer back to interleaved 16-bit little-endian PCM,
// the format the playback devices consume.
func (b *Buffer) Interleave() []byte {
	frames := b.FrameCount()
	channels := len(b.Channels)
	out := make([]byte, frames*channels*2)
	for frame := range frames {
		for channel := range channels {
			sample := quantize(b.Channels[channel][frame])
			offset := (frame*channels + channel) * 2
			out[offset] = byte(sample)
			out[offset+1] = byte(sample >> 8)
		}
	}
	return out
}

// EncodePCM16 converts float samples in [-1, 1] to base64-encoded 16-bit
// little-endian PCM. Values outside the range are clamped.
func EncodePCM16(samples []float32) string {
	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		quantized := quantize(sample)
		raw[i*2] = byte(quantized)
		raw[i*2+1] = byte(quantized >> 8)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodePCM16 is the inverse of EncodePCM16 for an arbitrary rate and channel
// count.
func DecodePCM16(encoded string, sampleRate, channels int) (*Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &CodecError{Reason: "invalid base64 payload", Err: err}
	}
	return DecodePCM16Bytes(raw, sampleRate, channels)
}

// DecodePCM16Bytes converts raw 16-bit little-endian PCM into a planar float
// buffer, dividing each sample by 32768.
func DecodePCM16Bytes(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, &CodecError{Reason: fmt.Sprintf("invalid channel count %d", channels)}
	}
	if len(raw)%(2*channels) != 0 {
		return nil, &CodecError{Reason: fmt.Sprintf("payload length %d is not a multiple of %d", len(raw), 2*channels)}
	}

	frames := len(raw) / (2 * channels)
	buffer := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for channel := range channels {
		buffer.Channels[channel] = make([]float32, frames)
	}
	for frame := range frames {
		for channel := range channels {
			offset := (frame*channels + channel) * 2
			sample := int16(uint16(raw[offset]) | uint16(raw[offset+1])<<8)
			buffer.Channels[channel][frame] = float32(sample) / 32768.0
		}
	}
	return buffer, nil
}

// SamplesFromBytes converts interleaved mono 16-bit little-endian device bytes
// into float samples. Capture adapters use this to feed the codec.
func SamplesFromBytes(raw []byte) ([]float32, error) {
	if len(raw)%2 != 0 {
		return nil, &CodecError{Reason: fmt.Sprintf("payload length %d is odd", len(raw))}
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		sample := int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
		samples[i] = float32(sample) / 32768.0
	}
	return samples, nil
}

func quantize(sample float32) int16 {
	scaled := int32(sample * 32768)
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
