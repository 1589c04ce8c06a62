// Package vision provides the camera side of a live session: a frame source
// abstraction and the JPEG encoding applied to each sampled frame before it
// goes on the wire.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
)

// Facing selects which camera a frame source should open.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Toggle returns the other facing.
func (f Facing) Toggle() Facing {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// DefaultJPEGQuality mirrors the aggressive compression used for live frame
// sampling; frames are advisory context, not archival imagery.
const DefaultJPEGQuality = 50

// FrameSource produces camera frames at the device's native resolution.
// Implementations are opened once per session and closed when it ends.
type FrameSource interface {
	// Open acquires the camera for the given facing. A source that cannot
	// satisfy the facing may fall back to any available camera.
	Open(ctx context.Context, facing Facing) error
	// Frame returns the most recent frame, or false when none is available
	// yet. Sources never block here; a slow camera just skips a tick.
	Frame() (image.Image, bool)
	Close() error
}

// EncodeJPEG compresses a frame and returns it base64 encoded, ready to be
// attached to a realtime input. Quality is on the 1 to 100 jpeg scale.
func EncodeJPEG(img image.Image, quality int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("cannot encode a nil frame")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("failed to encode frame as jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
