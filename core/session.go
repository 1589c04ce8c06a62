// Package livesession orchestrates one real-time conversation with the live
// endpoint: it owns the lifecycle state machine and wires the capture
// pipeline, transport, playback scheduler, and transcript assembler together,
// guaranteeing resource release on every exit path.
package livesession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/microvision-ai/microvision-core/core/audio"
	"github.com/microvision-ai/microvision-core/core/realtime"
	"github.com/microvision-ai/microvision-core/core/vision"
)

const (
	// DefaultRestartDelay is the pause between the stop and restart of a
	// camera facing switch, long enough to avoid device-busy races.
	DefaultRestartDelay = 500 * time.Millisecond
	// DefaultFrameInterval is the camera sampling cadence in video mode.
	DefaultFrameInterval = time.Second
)

// Transport is one bidirectional live connection. Connect resolves once the
// handshake completes and the opened event has been dispatched; Close is
// idempotent and silences all further events.
type Transport interface {
	Connect(ctx context.Context, onEvent func(realtime.Event), opts ...realtime.ConnectOption) error
	Send(input realtime.Input) error
	Close() error
}

// Profile identifies who the assistant is talking to; it is baked into the
// session's system instruction.
type Profile struct {
	University string
	Institute  string
	Department string
	Student    string
	Professor  string
}

// Session is the live session controller. One Session drives one microphone
// and camera pair and at most one open connection at a time; Start may be
// called again after the session ends.
type Session struct {
	transport   Transport
	audioInput  AudioInput
	sink        PlaybackSink
	frameSource vision.FrameSource
	clock       Clock
	profile     Profile

	restartDelay  time.Duration
	frameInterval time.Duration
	blockSize     int

	onLifecycleChange   func(Lifecycle)
	onTranscriptUpdated func([]TranscriptEntry)
	onTranscriptSaved   func([]TranscriptEntry)
	onError             func(error)

	mu          sync.Mutex
	lifecycle   Lifecycle
	facing      vision.Facing
	scheduler   *playbackScheduler
	pipeline    *capturePipeline
	baseContext context.Context

	muted         atomic.Bool
	stopRequested atomic.Bool

	transcript *transcript
}

func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{
		clock:         systemClock{},
		lifecycle:     LifecycleIdle,
		facing:        vision.FacingUser,
		restartDelay:  DefaultRestartDelay,
		frameInterval: DefaultFrameInterval,
		blockSize:     DefaultBlockSize,
		transcript:    &transcript{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.transport == nil {
		return nil, fmt.Errorf("a transport is required")
	}
	if s.audioInput == nil {
		return nil, fmt.Errorf("an audio input is required")
	}
	if s.sink == nil {
		return nil, fmt.Errorf("a playback sink is required")
	}
	return s, nil
}

// Start acquires devices, opens the connection, and begins capture. Valid
// from the idle, stopped, and failed states. On any device or connection
// failure the session ends in the failed state with every partially acquired
// resource released.
func (s *Session) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start live session")
	defer span.End()

	s.mu.Lock()
	switch s.lifecycle {
	case LifecycleIdle, LifecycleStopped, LifecycleFailed:
	default:
		lifecycle := s.lifecycle
		s.mu.Unlock()
		return fmt.Errorf("cannot start a session from the %q state", lifecycle)
	}
	s.stopRequested.Store(false)
	s.lifecycle = LifecycleConnecting
	s.baseContext = ctx
	facing := s.facing
	callback := s.onLifecycleChange
	s.mu.Unlock()
	if callback != nil {
		callback(LifecycleConnecting)
	}

	if err := s.audioInput.Open(); err != nil {
		return s.fail(&DeviceError{Reason: "failed to acquire microphone", Err: err})
	}
	if s.frameSource != nil {
		if err := s.frameSource.Open(ctx, facing); err != nil {
			return s.fail(&DeviceError{Reason: "failed to acquire camera", Err: err})
		}
	}

	// A stop requested while devices were being acquired wins.
	if s.stopRequested.Load() {
		s.teardown()
		s.transition(LifecycleStopped)
		return nil
	}

	err := s.transport.Connect(ctx, s.handleEvent,
		realtime.WithSystemInstruction(s.systemInstruction()),
	)
	if err != nil {
		return s.fail(&TransportError{Reason: "failed to open live connection", Err: err})
	}

	s.mu.Lock()
	// A stop requested while the dial was in flight also wins, even though
	// the connection came up.
	if s.stopRequested.Load() {
		s.mu.Unlock()
		s.teardown()
		s.transition(LifecycleStopped)
		return nil
	}
	s.scheduler = newPlaybackScheduler(s.clock, s.sink)
	s.pipeline = newCapturePipeline(
		s.audioInput, s.frameSource, s.transport.Send,
		&s.muted, s.blockSize, s.frameInterval,
	)
	pipeline := s.pipeline
	s.lifecycle = LifecycleActive
	callback = s.onLifecycleChange
	s.mu.Unlock()
	if callback != nil {
		callback(LifecycleActive)
	}

	if err := pipeline.start(); err != nil {
		return s.fail(&DeviceError{Reason: "failed to start capture", Err: err})
	}
	return nil
}

// Stop ends the session and releases everything it holds. Idempotent and
// safe from any state, including while a Start is still connecting; in that
// case the in-flight Start observes the request and finishes the stop
// itself. Audio already playing is not cut off.
func (s *Session) Stop() {
	s.stopRequested.Store(true)

	s.mu.Lock()
	switch s.lifecycle {
	case LifecycleStopping, LifecycleStopped, LifecycleConnecting, LifecycleFailed:
		s.mu.Unlock()
		return
	case LifecycleIdle:
		s.lifecycle = LifecycleStopped
		callback := s.onLifecycleChange
		s.mu.Unlock()
		if callback != nil {
			callback(LifecycleStopped)
		}
		return
	}
	s.lifecycle = LifecycleStopping
	callback := s.onLifecycleChange
	s.mu.Unlock()
	if callback != nil {
		callback(LifecycleStopping)
	}

	s.teardown()
	s.transition(LifecycleStopped)
}

// ToggleMute flips the outbound audio gate and returns the new value. It
// never touches the device or the connection; inbound playback is
// unaffected.
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	lifecycle := s.lifecycle
	s.mu.Unlock()
	if lifecycle != LifecycleActive && lifecycle != LifecycleConnecting {
		return s.muted.Load()
	}

	for {
		muted := s.muted.Load()
		if s.muted.CompareAndSwap(muted, !muted) {
			return !muted
		}
	}
}

// ToggleCamera flips the facing preference. While active this is a full
// stop-then-restart cycle after a short delay; live camera hot-swap is
// deliberately not attempted. Voice-only sessions ignore it.
func (s *Session) ToggleCamera(ctx context.Context) {
	if s.frameSource == nil {
		return
	}

	s.mu.Lock()
	s.facing = s.facing.Toggle()
	active := s.lifecycle == LifecycleActive
	delay := s.restartDelay
	s.mu.Unlock()

	if !active {
		return
	}

	s.Stop()
	restartCtx := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := s.Start(restartCtx); err != nil {
			log.Printf("Failed to restart session after camera switch: %v", err)
		}
	})
}

// SaveTranscript snapshots the transcript and hands it to the saved-callback
// for insertion into the host chat history. The live transcript is neither
// cleared nor frozen; a running session keeps appending. No-op when empty.
func (s *Session) SaveTranscript() []TranscriptEntry {
	entries := s.transcript.Entries()
	if len(entries) == 0 {
		return nil
	}
	if s.onTranscriptSaved != nil {
		s.onTranscriptSaved(entries)
	}
	return entries
}

func (s *Session) Lifecycle() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lifecycle
}

func (s *Session) Muted() bool { return s.muted.Load() }

func (s *Session) Facing() vision.Facing {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.facing
}

func (s *Session) Transcript() []TranscriptEntry {
	return s.transcript.Entries()
}

// handleEvent consumes inbound events in transport delivery order.
func (s *Session) handleEvent(event realtime.Event) {
	switch e := event.(type) {
	case realtime.Opened:
		// Connection is usable; Start drives the lifecycle transition.
	case realtime.AudioChunk:
		s.mu.Lock()
		scheduler := s.scheduler
		active := s.lifecycle == LifecycleActive
		s.mu.Unlock()
		if !active || scheduler == nil {
			return
		}

		if _, err := scheduler.schedule(e); err != nil {
			var codecErr *audio.CodecError
			if errors.As(err, &codecErr) {
				s.fail(codecErr)
				return
			}
			log.Printf("Failed to schedule audio chunk: %v", err)
		}
	case realtime.InputTranscriptDelta:
		s.appendTranscript(RoleUser, e.Text)
	case realtime.OutputTranscriptDelta:
		s.appendTranscript(RoleAssistant, e.Text)
	case realtime.Closed:
		s.fail(&TransportError{Reason: "connection closed by remote: " + e.Reason})
	case realtime.Error:
		var codecErr *audio.CodecError
		if errors.As(e.Err, &codecErr) {
			s.fail(codecErr)
			return
		}
		s.fail(&TransportError{Reason: "connection failed", Err: e.Err})
	}
}

func (s *Session) appendTranscript(role Role, text string) {
	s.transcript.appendDelta(role, text)
	if s.onTranscriptUpdated != nil {
		s.onTranscriptUpdated(s.transcript.Entries())
	}
}

// fail tears the session down and lands it in the failed state, so the host
// can tell a dead connection apart from a user-chosen stop. Only a
// connecting or active session can fail; anything later is already on its
// way down. Partial transcripts survive and stay saveable.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	if s.lifecycle != LifecycleConnecting && s.lifecycle != LifecycleActive {
		s.mu.Unlock()
		return err
	}
	s.lifecycle = LifecycleFailed
	callback := s.onLifecycleChange
	onError := s.onError
	baseContext := s.baseContext
	s.mu.Unlock()

	if baseContext != nil {
		span := trace.SpanFromContext(baseContext)
		span.RecordError(err)
		span.SetStatus(codes.Error, "live session failed")
	}

	s.teardown()
	if callback != nil {
		callback(LifecycleFailed)
	}
	if onError != nil {
		onError(err)
	}
	return err
}

// teardown releases everything in reverse acquisition order. Safe to call
// with any subset of resources acquired, and safe to call more than once.
func (s *Session) teardown() {
	s.mu.Lock()
	pipeline := s.pipeline
	scheduler := s.scheduler
	s.pipeline = nil
	s.scheduler = nil
	s.mu.Unlock()

	if pipeline != nil {
		pipeline.stop()
	}
	if scheduler != nil {
		scheduler.stop()
	}
	if err := s.transport.Close(); err != nil {
		log.Printf("Failed to close live connection: %v", err)
	}
	if err := s.audioInput.Close(); err != nil {
		log.Printf("Failed to release microphone: %v", err)
	}
	if s.frameSource != nil {
		if err := s.frameSource.Close(); err != nil {
			log.Printf("Failed to release camera: %v", err)
		}
	}
}

func (s *Session) transition(to Lifecycle) {
	s.mu.Lock()
	s.lifecycle = to
	callback := s.onLifecycleChange
	s.mu.Unlock()

	if callback != nil {
		callback(to)
	}
}

// systemInstruction is static context computed once per start, naming the
// assistant persona, the student and professor, and the active mode.
func (s *Session) systemInstruction() string {
	mode := "صوتياً"
	if s.frameSource != nil {
		mode = "فيديو"
	}
	return fmt.Sprintf(
		"أنت MicroVision AI. تجري حواراً %s مباشراً مع طالبة الطب المختبري %s تحت إشراف %s. استمع بعناية وأجب مباشرة بوضوح علمي وباللغة العربية. المعهد: %s.",
		mode, s.profile.Student, s.profile.Professor, s.profile.Institute,
	)
}
