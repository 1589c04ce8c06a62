package audio

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTripStaysWithinQuantizationError(t *testing.T) {
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 17.0))
	}

	buffer, err := DecodePCM16(EncodePCM16(samples), CaptureSampleRate, 1)
	if err != nil {
		t.Fatalf("expected round trip to decode, got %v", err)
	}

	if got := len(buffer.Channels); got != 1 {
		t.Fatalf("expected 1 channel, got %d", got)
	}
	if got := buffer.FrameCount(); got != len(samples) {
		t.Fatalf("expected %d frames, got %d", len(samples), got)
	}
	for i, sample := range samples {
		if diff := math.Abs(float64(buffer.Channels[0][i] - sample)); diff > 1.0/32768.0 {
			t.Fatalf("sample %d drifted by %f, more than one quantization step", i, diff)
		}
	}
}

func TestEncodeClampsOutOfRangeSamples(t *testing.T) {
	buffer, err := DecodePCM16(EncodePCM16([]float32{1.5, -1.5, 1.0}), CaptureSampleRate, 1)
	if err != nil {
		t.Fatalf("expected clamped samples to decode, got %v", err)
	}

	if got := buffer.Channels[0][0]; got != 32767.0/32768.0 {
		t.Fatalf("expected positive overflow clamped to full scale, got %f", got)
	}
	if got := buffer.Channels[0][1]; got != -1.0 {
		t.Fatalf("expected negative overflow clamped to -1, got %f", got)
	}
	if got := buffer.Channels[0][2]; got != 32767.0/32768.0 {
		t.Fatalf("expected +1 to saturate at full scale, got %f", got)
	}
}

func TestDecodeRejectsTruncatedPayloadWithCodecError(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03})

	_, err := DecodePCM16(payload, PlaybackSampleRate, 1)
	if err == nil {
		t.Fatalf("expected odd-length payload to be rejected")
	}
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected CodecError, got %T", err)
	}
}

func TestDecodeRejectsPayloadNotAlignedToChannelCount(t *testing.T) {
	_, err := DecodePCM16Bytes([]byte{0x01, 0x02}, PlaybackSampleRate, 2)
	if err == nil {
		t.Fatalf("expected two-channel decode of a single frame half to fail")
	}
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected CodecError, got %T", err)
	}
}

func TestDecodeRejectsInvalidBase64(t *testing.T) {
	_, err := DecodePCM16("not!!base64", PlaybackSampleRate, 1)
	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected CodecError for invalid base64, got %v", err)
	}
}

func TestBufferDurationFollowsSampleRate(t *testing.T) {
	buffer := &Buffer{SampleRate: PlaybackSampleRate, Channels: [][]float32{make([]float32, PlaybackSampleRate / 2)}}

	if got := buffer.Duration(); got != 500*time.Millisecond {
		t.Fatalf("expected half a second of audio, got %v", got)
	}
}

func TestInterleaveRoundTripsDeviceBytes(t *testing.T) {
	raw := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0x01, 0x00}

	buffer, err := DecodePCM16Bytes(raw, PlaybackSampleRate, 1)
	if err != nil {
		t.Fatalf("expected device bytes to decode, got %v", err)
	}

	got := buffer.Interleave()
	if len(got) != len(raw) {
		t.Fatalf("expected %d interleaved bytes, got %d", len(raw), len(got))
	}
	for i := range raw {
		if got[i] != raw[i] {
			t.Fatalf("byte %d changed from %#x to %#x", i, raw[i], got[i])
		}
	}
}

func TestSamplesFromBytesMatchesDecode(t *testing.T) {
	raw := []byte{0x00, 0x40, 0x00, 0xC0}

	samples, err := SamplesFromBytes(raw)
	if err != nil {
		t.Fatalf("expected conversion to succeed, got %v", err)
	}
	if samples[0] != 0.5 || samples[1] != -0.5 {
		t.Fatalf("expected [0.5 -0.5], got %v", samples)
	}

	if _, err := SamplesFromBytes([]byte{0x01}); err == nil {
		t.Fatalf("expected odd byte count to be rejected")
	}
}
