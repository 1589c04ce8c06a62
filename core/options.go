package livesession

import (
	"time"

	"github.com/microvision-ai/microvision-core/core/vision"
)

type SessionOption func(*Session)

func WithTransport(transport Transport) SessionOption {
	return func(s *Session) {
		s.transport = transport
	}
}

func WithAudioInput(input AudioInput) SessionOption {
	return func(s *Session) {
		s.audioInput = input
	}
}

func WithPlaybackSink(sink PlaybackSink) SessionOption {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithFrameSource enables video mode; without one the session is voice only.
func WithFrameSource(source vision.FrameSource) SessionOption {
	return func(s *Session) {
		s.frameSource = source
	}
}

func WithClock(clock Clock) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

func WithProfile(profile Profile) SessionOption {
	return func(s *Session) {
		s.profile = profile
	}
}

func WithFacing(facing vision.Facing) SessionOption {
	return func(s *Session) {
		s.facing = facing
	}
}

// WithRestartDelay overrides the pause between stopping and restarting when
// the camera facing flips mid-session. The default keeps slower platforms
// from hitting device-busy races.
func WithRestartDelay(delay time.Duration) SessionOption {
	return func(s *Session) {
		s.restartDelay = delay
	}
}

// WithFrameInterval overrides the camera sampling cadence.
func WithFrameInterval(interval time.Duration) SessionOption {
	return func(s *Session) {
		s.frameInterval = interval
	}
}

func WithBlockSize(samples int) SessionOption {
	return func(s *Session) {
		s.blockSize = samples
	}
}

func OnLifecycleChange(callback func(Lifecycle)) SessionOption {
	return func(s *Session) {
		s.onLifecycleChange = callback
	}
}

func OnTranscriptUpdated(callback func([]TranscriptEntry)) SessionOption {
	return func(s *Session) {
		s.onTranscriptUpdated = callback
	}
}

// OnTranscriptSaved fires once per SaveTranscript call with the finished
// entries, for insertion into the host chat history.
func OnTranscriptSaved(callback func([]TranscriptEntry)) SessionOption {
	return func(s *Session) {
		s.onTranscriptSaved = callback
	}
}

func OnError(callback func(error)) SessionOption {
	return func(s *Session) {
		s.onError = callback
	}
}
