package livesession

import (
	"fmt"
	"sync"
	"time"

	"github.com/microvision-ai/microvision-core/core/audio"
	"github.com/microvision-ai/microvision-core/core/realtime"
)

// Clock abstracts the output clock the scheduler orders playback against.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// PlaybackSink consumes decoded audio sequentially. Buffers handed to it in
// order must come out of the speaker in order, back to back.
type PlaybackSink interface {
	Play(buffer *audio.Buffer) error
}

// playbackScheduler turns irregularly arriving audio chunks into gap-free
// sequential playback. It tracks where the playhead will be once everything
// already scheduled has drained, and clamps forward when the model falls
// behind real time.
type playbackScheduler struct {
	clock Clock
	sink  PlaybackSink

	mu      sync.Mutex
	next    time.Time
	stopped bool
}

func newPlaybackScheduler(clock Clock, sink PlaybackSink) *playbackScheduler {
	return &playbackScheduler{
		clock: clock,
		sink:  sink,
		next:  clock.Now(),
	}
}

// schedule decodes one inbound chunk, assigns it the earliest start that
// neither overlaps the previous chunk nor lies in the past, and hands it to
// the sink. Returns the assigned start time.
func (s *playbackScheduler) schedule(chunk realtime.AudioChunk) (time.Time, error) {
	buffer, err := audio.DecodePCM16Bytes(chunk.Data, chunk.SampleRate, chunk.Channels)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return time.Time{}, fmt.Errorf("playback scheduler is stopped")
	}

	start := s.next
	if now := s.clock.Now(); start.Before(now) {
		start = now
	}
	s.next = start.Add(buffer.Duration())
	s.mu.Unlock()

	if err := s.sink.Play(buffer); err != nil {
		return time.Time{}, fmt.Errorf("failed to play audio chunk: %w", err)
	}
	return start, nil
}

// stop prevents further scheduling. Audio already handed to the sink keeps
// playing; started playback is fire-and-forget.
func (s *playbackScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
}
