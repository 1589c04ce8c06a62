package livesession

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microvision-ai/microvision-core/core/audio"
	"github.com/microvision-ai/microvision-core/core/realtime"
	"github.com/microvision-ai/microvision-core/core/vision"
)

// DefaultBlockSize is how many samples accumulate before one outbound audio
// payload is emitted.
const DefaultBlockSize = 4096

// AudioInput is a microphone device. Open acquires the hardware, capture
// start and stop toggle the stream without releasing it, Close releases
// everything.
type AudioInput interface {
	Open() error
	StartCapture(onAudio func(audio []byte)) error
	StopCapture() error
	Close() error
	EncodingInfo() audio.EncodingInfo
}

// capturePipeline accumulates raw device audio into fixed-size blocks and
// forwards them, along with periodic camera frames in video mode, to the
// transport. A set mute flag drops audio blocks without touching the device,
// so unmuting resumes on the next block with no renegotiation.
type capturePipeline struct {
	input  AudioInput
	source vision.FrameSource
	send   func(realtime.Input) error
	muted  *atomic.Bool

	blockSize     int
	frameInterval time.Duration

	mu        sync.Mutex
	pending   []float32
	frameDone chan struct{}
	started   bool
	stopped   bool
}

func newCapturePipeline(
	input AudioInput,
	source vision.FrameSource,
	send func(realtime.Input) error,
	muted *atomic.Bool,
	blockSize int,
	frameInterval time.Duration,
) *capturePipeline {
	return &capturePipeline{
		input:         input,
		source:        source,
		send:          send,
		muted:         muted,
		blockSize:     blockSize,
		frameInterval: frameInterval,
	}
}

func (p *capturePipeline) start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return nil
	}

	if err := p.input.StartCapture(p.handleDeviceAudio); err != nil {
		return err
	}

	if p.source != nil {
		p.frameDone = make(chan struct{})
		go p.frameLoop(p.frameDone)
	}

	p.started = true
	return nil
}

// stop cancels the frame timer and halts the capture stream. Idempotent and
// terminal: a stop that races ahead of start still wins, and the later start
// refuses to acquire anything.
func (p *capturePipeline) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if !p.started {
		return
	}

	if p.frameDone != nil {
		close(p.frameDone)
		p.frameDone = nil
	}
	if err := p.input.StopCapture(); err != nil {
		log.Printf("Failed to stop audio capture: %v", err)
	}

	p.pending = nil
	p.started = false
}

// handleDeviceAudio runs on the device callback. Blocks are consumed whether
// muted or not; only emission is gated.
func (p *capturePipeline) handleDeviceAudio(data []byte) {
	samples, err := audio.SamplesFromBytes(data)
	if err != nil {
		log.Printf("Dropping malformed capture buffer: %v", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.pending = append(p.pending, samples...)
	for len(p.pending) >= p.blockSize {
		block := p.pending[:p.blockSize]
		p.pending = p.pending[p.blockSize:]

		if p.muted.Load() {
			continue
		}
		if err := p.send(realtime.NewAudioInput(audio.EncodePCM16(block))); err != nil {
			log.Printf("Failed to send audio block: %v", err)
		}
	}
}

// frameLoop samples the camera on a fixed cadence. A tick with no frame
// ready is skipped, not retried.
func (p *capturePipeline) frameLoop(done chan struct{}) {
	ticker := time.NewTicker(p.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			frame, ok := p.source.Frame()
			if !ok {
				continue
			}

			encoded, err := vision.EncodeJPEG(frame, vision.DefaultJPEGQuality)
			if err != nil {
				log.Printf("Failed to encode camera frame: %v", err)
				continue
			}
			if err := p.send(realtime.NewFrameInput(encoded)); err != nil {
				log.Printf("Failed to send camera frame: %v", err)
			}
		}
	}
}
