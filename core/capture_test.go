package livesession

import (
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/microvision-ai/microvision-core/core/realtime"
)

type inputRecorder struct {
	mu     sync.Mutex
	inputs []realtime.Input
}

func (r *inputRecorder) send(input realtime.Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inputs = append(r.inputs, input)
	return nil
}

func (r *inputRecorder) byKind(kind realtime.InputKind) []realtime.Input {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []realtime.Input
	for _, input := range r.inputs {
		if input.Kind() == kind {
			matched = append(matched, input)
		}
	}
	return matched
}

func TestCaptureEmitsFixedSizeBlocks(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := &inputRecorder{}
	muted := &atomic.Bool{}
	pipeline := newCapturePipeline(input, nil, recorder.send, muted, DefaultBlockSize, time.Hour)
	if err := pipeline.start(); err != nil {
		t.Fatalf("failed to start pipeline: %v", err)
	}
	defer pipeline.stop()

	// Three half blocks make one full block with a half left pending.
	half := make([]float32, DefaultBlockSize/2)
	input.feed(half)
	input.feed(half)
	input.feed(half)

	audioInputs := recorder.byKind(realtime.InputKindAudio)
	if len(audioInputs) != 1 {
		t.Fatalf("expected exactly 1 audio input, got %d", len(audioInputs))
	}
	if audioInputs[0].MIMEType != realtime.AudioMIMEType {
		t.Fatalf("unexpected mime type %q", audioInputs[0].MIMEType)
	}
}

func TestCaptureMuteGating(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := &inputRecorder{}
	muted := &atomic.Bool{}
	muted.Store(true)
	pipeline := newCapturePipeline(input, nil, recorder.send, muted, DefaultBlockSize, time.Hour)
	if err := pipeline.start(); err != nil {
		t.Fatalf("failed to start pipeline: %v", err)
	}
	defer pipeline.stop()

	block := make([]float32, DefaultBlockSize)
	input.feed(block)
	input.feed(block)
	if sent := recorder.byKind(realtime.InputKindAudio); len(sent) != 0 {
		t.Fatalf("expected no audio while muted, got %d inputs", len(sent))
	}

	// Unmuting resumes on the very next block without reacquiring the device.
	opensBefore := input.opens.Load()
	muted.Store(false)
	input.feed(block)
	if sent := recorder.byKind(realtime.InputKindAudio); len(sent) != 1 {
		t.Fatalf("expected 1 audio input after unmute, got %d", len(sent))
	}
	if input.opens.Load() != opensBefore {
		t.Fatalf("expected no device reacquisition on unmute")
	}
}

func TestCaptureFrameSampling(t *testing.T) {
	input := &fakeAudioInput{}
	source := &fakeFrameSource{}
	recorder := &inputRecorder{}
	pipeline := newCapturePipeline(input, source, recorder.send, &atomic.Bool{}, DefaultBlockSize, 10*time.Millisecond)
	if err := pipeline.start(); err != nil {
		t.Fatalf("failed to start pipeline: %v", err)
	}
	defer pipeline.stop()

	// No frame ready yet, ticks are skipped.
	time.Sleep(35 * time.Millisecond)
	if frames := recorder.byKind(realtime.InputKindFrame); len(frames) != 0 {
		t.Fatalf("expected no frames before the camera produced one, got %d", len(frames))
	}

	source.setFrame(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if !eventually(time.Second, func() bool {
		return len(recorder.byKind(realtime.InputKindFrame)) > 0
	}) {
		t.Fatalf("expected frames once the camera produced one")
	}
	if frames := recorder.byKind(realtime.InputKindFrame); frames[0].MIMEType != realtime.FrameMIMEType {
		t.Fatalf("unexpected frame mime type %q", frames[0].MIMEType)
	}
}

func TestCaptureStopIsIdempotent(t *testing.T) {
	input := &fakeAudioInput{}
	pipeline := newCapturePipeline(input, nil, (&inputRecorder{}).send, &atomic.Bool{}, DefaultBlockSize, time.Hour)

	if err := pipeline.start(); err != nil {
		t.Fatalf("failed to start pipeline: %v", err)
	}
	pipeline.stop()
	pipeline.stop()

	if input.capturing.Load() {
		t.Fatalf("expected capture to be stopped")
	}
}

func TestCaptureStopIsTerminal(t *testing.T) {
	input := &fakeAudioInput{}
	pipeline := newCapturePipeline(input, nil, (&inputRecorder{}).send, &atomic.Bool{}, DefaultBlockSize, time.Hour)

	// A stop that lands before start wins; the later start must not touch
	// the device.
	pipeline.stop()
	if err := pipeline.start(); err != nil {
		t.Fatalf("expected a stopped pipeline to refuse quietly, got %v", err)
	}

	if input.capturing.Load() {
		t.Fatalf("expected no capture after a preceding stop")
	}
}
