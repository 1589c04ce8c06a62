package livesession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/microvision-ai/microvision-core/core/realtime"
	"github.com/microvision-ai/microvision-core/core/vision"
)

func newTestSession(t *testing.T, transport *fakeTransport, input *fakeAudioInput, opts ...SessionOption) *Session {
	t.Helper()

	opts = append([]SessionOption{
		WithTransport(transport),
		WithAudioInput(input),
		WithPlaybackSink(&fakeSink{}),
		WithClock(newFakeClock()),
	}, opts...)

	session, err := NewSession(opts...)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func TestStartTransitionsToActive(t *testing.T) {
	var mu sync.Mutex
	var states []Lifecycle

	transport := &fakeTransport{}
	input := &fakeAudioInput{}
	session := newTestSession(t, transport, input, OnLifecycleChange(func(l Lifecycle) {
		mu.Lock()
		states = append(states, l)
		mu.Unlock()
	}))

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if session.Lifecycle() != LifecycleActive {
		t.Fatalf("expected active lifecycle, got %q", session.Lifecycle())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != LifecycleConnecting || states[1] != LifecycleActive {
		t.Fatalf("unexpected lifecycle sequence: %v", states)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	session := newTestSession(t, &fakeTransport{}, &fakeAudioInput{})

	// Stopping a session that never started is not an error.
	session.Stop()
	session.Stop()
	if session.Lifecycle() != LifecycleStopped {
		t.Fatalf("expected stopped lifecycle, got %q", session.Lifecycle())
	}
}

func TestStopAfterStartReleasesEverything(t *testing.T) {
	transport := &fakeTransport{}
	input := &fakeAudioInput{}
	session := newTestSession(t, transport, input)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	session.Stop()
	session.Stop()

	if session.Lifecycle() != LifecycleStopped {
		t.Fatalf("expected stopped lifecycle, got %q", session.Lifecycle())
	}
	if transport.closes.Load() == 0 {
		t.Fatalf("expected the connection to be closed")
	}
	if input.closes.Load() == 0 {
		t.Fatalf("expected the microphone to be released")
	}
	if input.capturing.Load() {
		t.Fatalf("expected capture to be stopped")
	}
}

func TestStopDuringConnectWins(t *testing.T) {
	transport := &fakeTransport{}
	input := &fakeAudioInput{}
	session := newTestSession(t, transport, input)

	// The stop arrives while the dial is still in flight; the connection
	// then "succeeds" anyway.
	transport.connectHook = func() { session.Stop() }

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("expected a stopped start to succeed quietly, got %v", err)
	}

	if session.Lifecycle() != LifecycleStopped {
		t.Fatalf("expected stopped lifecycle, got %q", session.Lifecycle())
	}
	if input.closes.Load() == 0 {
		t.Fatalf("expected the microphone to be released")
	}
	if transport.closes.Load() == 0 {
		t.Fatalf("expected the freshly opened connection to be closed")
	}
}

func TestStopFromActiveCallbackReleasesEverything(t *testing.T) {
	transport := &fakeTransport{}
	input := &fakeAudioInput{}

	// The stop arrives from inside the active notification, before the
	// capture stream has started; nothing may be left running after it.
	var session *Session
	session = newTestSession(t, transport, input, OnLifecycleChange(func(l Lifecycle) {
		if l == LifecycleActive {
			session.Stop()
		}
	}))

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("expected the start to yield to the stop, got %v", err)
	}

	if session.Lifecycle() != LifecycleStopped {
		t.Fatalf("expected stopped lifecycle, got %q", session.Lifecycle())
	}
	if input.capturing.Load() {
		t.Fatalf("expected no capture to survive the stop")
	}
	if input.closes.Load() == 0 {
		t.Fatalf("expected the microphone to be released")
	}
	if transport.closes.Load() == 0 {
		t.Fatalf("expected the connection to be closed")
	}
}

func TestDeviceFailureFailsTheStart(t *testing.T) {
	input := &fakeAudioInput{openErr: fmt.Errorf("permission denied")}
	session := newTestSession(t, &fakeTransport{}, input)

	err := session.Start(context.Background())
	var deviceErr *DeviceError
	if !errors.As(err, &deviceErr) {
		t.Fatalf("expected a device error, got %v", err)
	}
	if session.Lifecycle() != LifecycleFailed {
		t.Fatalf("expected failed lifecycle, got %q", session.Lifecycle())
	}
}

func TestConnectFailureFailsTheStart(t *testing.T) {
	transport := &fakeTransport{connectErr: fmt.Errorf("handshake rejected")}
	input := &fakeAudioInput{}
	var reported error
	session := newTestSession(t, transport, input, OnError(func(err error) { reported = err }))

	err := session.Start(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a transport error, got %v", err)
	}
	if session.Lifecycle() != LifecycleFailed {
		t.Fatalf("expected failed lifecycle, got %q", session.Lifecycle())
	}
	if input.closes.Load() == 0 {
		t.Fatalf("expected the microphone to be released after the failure")
	}
	if reported == nil {
		t.Fatalf("expected the error callback to fire")
	}
}

func TestRemoteCloseFailsButPreservesTranscript(t *testing.T) {
	transport := &fakeTransport{}
	session := newTestSession(t, transport, &fakeAudioInput{})

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	transport.emit(realtime.NewInputTranscriptDelta("how does"))
	transport.emit(realtime.NewInputTranscriptDelta(" this look?"))
	transport.emit(realtime.NewClosed("going away"))

	if session.Lifecycle() != LifecycleFailed {
		t.Fatalf("expected failed lifecycle after a remote close, got %q", session.Lifecycle())
	}

	saved := session.SaveTranscript()
	if len(saved) != 1 || saved[0].Text != "how does this look?" {
		t.Fatalf("expected the partial transcript to stay saveable, got %#v", saved)
	}
}

func TestEndToEndVoiceScenario(t *testing.T) {
	transport := &fakeTransport{}
	var savedByCallback []TranscriptEntry
	session := newTestSession(t, transport, &fakeAudioInput{},
		OnTranscriptSaved(func(entries []TranscriptEntry) { savedByCallback = entries }),
	)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	transport.emit(realtime.NewOutputTranscriptDelta("Result: "))
	transport.emit(realtime.NewOutputTranscriptDelta("normal."))

	saved := session.SaveTranscript()
	if len(saved) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(saved))
	}
	if saved[0].Role != RoleAssistant || saved[0].Text != "Result: normal." {
		t.Fatalf("unexpected entry: %#v", saved[0])
	}
	if len(savedByCallback) != 1 {
		t.Fatalf("expected the saved callback to receive the entries")
	}

	// Saving neither clears the transcript nor touches the lifecycle.
	if session.Lifecycle() != LifecycleActive {
		t.Fatalf("expected the session to stay active, got %q", session.Lifecycle())
	}
	if len(session.Transcript()) != 1 {
		t.Fatalf("expected the live transcript to survive the save")
	}
}

func TestSaveTranscriptEmptyIsNoop(t *testing.T) {
	fired := false
	session := newTestSession(t, &fakeTransport{}, &fakeAudioInput{},
		OnTranscriptSaved(func([]TranscriptEntry) { fired = true }),
	)

	if saved := session.SaveTranscript(); saved != nil {
		t.Fatalf("expected nil for an empty transcript, got %#v", saved)
	}
	if fired {
		t.Fatalf("expected no callback for an empty transcript")
	}
}

func TestToggleMuteOnlyWhileRunning(t *testing.T) {
	session := newTestSession(t, &fakeTransport{}, &fakeAudioInput{})

	if muted := session.ToggleMute(); muted {
		t.Fatalf("expected mute to be refused before start")
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if muted := session.ToggleMute(); !muted {
		t.Fatalf("expected mute to flip on")
	}
	if muted := session.ToggleMute(); muted {
		t.Fatalf("expected mute to flip back off")
	}
}

func TestToggleCameraRestartsWithFlippedFacing(t *testing.T) {
	transport := &fakeTransport{}
	input := &fakeAudioInput{}
	source := &fakeFrameSource{}
	session := newTestSession(t, transport, input,
		WithFrameSource(source),
		WithRestartDelay(10*time.Millisecond),
	)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	session.ToggleCamera(context.Background())

	if !eventually(2*time.Second, func() bool {
		return session.Lifecycle() == LifecycleActive && transport.connects.Load() == 2
	}) {
		t.Fatalf("expected the session to restart, lifecycle %q after %d connects",
			session.Lifecycle(), transport.connects.Load())
	}
	if session.Facing() != vision.FacingEnvironment {
		t.Fatalf("expected the facing to flip, got %q", session.Facing())
	}
	if source.opens.Load() != 2 {
		t.Fatalf("expected the camera to be reacquired, got %d opens", source.opens.Load())
	}
}

func TestToggleCameraWhileStoppedOnlyFlipsPreference(t *testing.T) {
	transport := &fakeTransport{}
	session := newTestSession(t, transport, &fakeAudioInput{},
		WithFrameSource(&fakeFrameSource{}),
		WithRestartDelay(time.Millisecond),
	)

	session.ToggleCamera(context.Background())

	if session.Facing() != vision.FacingEnvironment {
		t.Fatalf("expected the facing preference to flip, got %q", session.Facing())
	}
	time.Sleep(20 * time.Millisecond)
	if transport.connects.Load() != 0 {
		t.Fatalf("expected no restart while not active")
	}
}
