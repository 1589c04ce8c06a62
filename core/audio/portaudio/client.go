//go:build cgo

// Package portaudio is an alternative capture backend for platforms where the
// miniaudio backend misbehaves. Playback still goes through miniaudio.
package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/microvision-ai/microvision-core/core/audio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in []int16

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

func NewClient(bufferSize int) *Client {
	return &Client{bufferSize: bufferSize}
}

// Open initializes PortAudio and acquires the default input device.
func (c *Client) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c.in = make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(audio.DefaultChannels, 0, audio.CaptureSampleRate, c.bufferSize, c.in)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	c.stream = stream
	return nil
}

func (c *Client) StartCapture(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return fmt.Errorf("device not initialized")
	}
	if c.running {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c.running = true
	c.done = make(chan struct{})
	go c.readLoop(c.done, onAudio)
	return nil
}

func (c *Client) readLoop(done chan struct{}, onAudio func(audio []byte)) {
	for {
		select {
		case <-done:
			return
		default:
			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from portaudio stream: %v", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	close(c.done)
	c.running = false
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.done)
		c.running = false
		_ = c.stream.Stop()
	}
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
		_ = portaudio.Terminate()
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}
