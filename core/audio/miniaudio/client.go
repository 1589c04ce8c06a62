package miniaudio

import (
	"fmt"
	"log"

	"github.com/gen2brain/malgo"

	"github.com/microvision-ai/microvision-core/core/audio"
)

// Client bundles the microphone capture device (16 kHz mono, what the live
// endpoint expects) and the playback device (24 kHz mono, what it produces).
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &Client{audioContext: audioCtx}, nil
}

// Open acquires both devices. Called at session start so a missing or busy
// device surfaces as a start failure rather than a constructor failure.
func (c *Client) Open() error {
	if err := c.captureClient.Init(c.audioContext); err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := c.playbackClient.Init(c.audioContext); err != nil {
		_ = c.captureClient.Uninit()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := c.playbackClient.Start(); err != nil {
		_ = c.captureClient.Uninit()
		_ = c.playbackClient.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *Client) StartCapture(onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

// Close releases both devices but keeps the backend context, so a later Open
// can reacquire them. Stop-then-restart cycles (camera switches) depend on
// this.
func (c *Client) Close() error {
	if err := c.captureClient.Uninit(); err != nil {
		log.Printf("Failed to uninitialize capture device: %v", err)
	}
	if err := c.playbackClient.Uninit(); err != nil {
		log.Printf("Failed to uninitialize playback device: %v", err)
	}
	return nil
}

// Terminate tears down the backend context. The client is unusable
// afterwards.
func (c *Client) Terminate() error {
	if err := c.Close(); err != nil {
		return err
	}
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
	return nil
}

// Play appends decoded audio to the playback FIFO. The device drains the FIFO
// sequentially, so chunk order is preserved; the requested start offset is
// already accounted for by the caller's scheduling.
func (c *Client) Play(buffer *audio.Buffer) error {
	return c.playbackClient.SendAudio(buffer.Interleave())
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}
