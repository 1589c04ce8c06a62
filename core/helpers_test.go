package livesession

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microvision-ai/microvision-core/core/audio"
	"github.com/microvision-ai/microvision-core/core/realtime"
	"github.com/microvision-ai/microvision-core/core/vision"
)

type fakeTransport struct {
	mu      sync.Mutex
	onEvent func(realtime.Event)
	sent    []realtime.Input

	connectErr  error
	connectHook func()

	connects atomic.Int32
	closes   atomic.Int32
}

func (t *fakeTransport) Connect(_ context.Context, onEvent func(realtime.Event), _ ...realtime.ConnectOption) error {
	if t.connectHook != nil {
		t.connectHook()
	}
	if t.connectErr != nil {
		return t.connectErr
	}

	t.mu.Lock()
	t.onEvent = onEvent
	t.mu.Unlock()
	t.connects.Add(1)

	onEvent(realtime.NewOpened())
	return nil
}

func (t *fakeTransport) Send(input realtime.Input) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, input)
	return nil
}

func (t *fakeTransport) Close() error {
	t.closes.Add(1)
	return nil
}

func (t *fakeTransport) emit(event realtime.Event) {
	t.mu.Lock()
	onEvent := t.onEvent
	t.mu.Unlock()

	if onEvent != nil {
		onEvent(event)
	}
}

func (t *fakeTransport) sentInputs() []realtime.Input {
	t.mu.Lock()
	defer t.mu.Unlock()

	sent := make([]realtime.Input, len(t.sent))
	copy(sent, t.sent)
	return sent
}

type fakeAudioInput struct {
	mu      sync.Mutex
	onAudio func([]byte)

	openErr error

	opens     atomic.Int32
	closes    atomic.Int32
	capturing atomic.Bool
}

func (f *fakeAudioInput) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opens.Add(1)
	return nil
}

func (f *fakeAudioInput) StartCapture(onAudio func([]byte)) error {
	f.mu.Lock()
	f.onAudio = onAudio
	f.mu.Unlock()
	f.capturing.Store(true)
	return nil
}

func (f *fakeAudioInput) StopCapture() error {
	f.capturing.Store(false)
	return nil
}

func (f *fakeAudioInput) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeAudioInput) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}

// feed pushes raw device bytes into the capture callback like the hardware
// would.
func (f *fakeAudioInput) feed(samples []float32) {
	f.mu.Lock()
	onAudio := f.onAudio
	f.mu.Unlock()

	if onAudio != nil {
		onAudio(pcmBytes(samples))
	}
}

func pcmBytes(samples []float32) []byte {
	buf := bytes.Buffer{}
	for _, sample := range samples {
		_ = binary.Write(&buf, binary.LittleEndian, int16(sample*32768))
	}
	return buf.Bytes()
}

type fakeSink struct {
	mu      sync.Mutex
	buffers []*audio.Buffer
}

func (s *fakeSink) Play(buffer *audio.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffers = append(s.buffers, buffer)
	return nil
}

func (s *fakeSink) played() []*audio.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffers := make([]*audio.Buffer, len(s.buffers))
	copy(buffers, s.buffers)
	return buffers
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fakeFrameSource struct {
	mu     sync.Mutex
	frame  image.Image
	facing vision.Facing

	opens  atomic.Int32
	closes atomic.Int32
}

func (f *fakeFrameSource) Open(_ context.Context, facing vision.Facing) error {
	f.mu.Lock()
	f.facing = facing
	f.mu.Unlock()
	f.opens.Add(1)
	return nil
}

func (f *fakeFrameSource) Frame() (image.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.frame == nil {
		return nil, false
	}
	return f.frame, true
}

func (f *fakeFrameSource) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeFrameSource) setFrame(frame image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frame = frame
}

// eventually polls until the condition holds or the deadline passes.
func eventually(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}
