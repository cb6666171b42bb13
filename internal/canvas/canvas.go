// Package canvas provides the paint targets a driver blits frames onto.
package canvas

import (
	"fmt"
	"image"

	"github.com/woxQAQ/bare-metal-canvas/pkg/protocol"
)

// Canvas receives one frame per tick.
//
// The surface passed to Paint aliases the module's linear memory and is only
// valid until Paint returns. Implementations that keep pixels must copy them.
type Canvas interface {
	// Size returns the canvas dimensions in pixels.
	Size() (width, height uint32)

	// Paint draws a frame.
	Paint(frame *image.RGBA) error
}

// SurfaceError occurs when a byte slice does not match the canvas dimensions
type SurfaceError struct {
	Width  uint32
	Height uint32
	Length int
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("surface %dx%d needs %d bytes, got %d",
		e.Width, e.Height, protocol.ExpectedLength(e.Width, e.Height), e.Length)
}

// NewSurface wraps raw RGBA bytes in an image without copying them.
func NewSurface(pix []byte, width, height uint32) (*image.RGBA, error) {
	if uint64(len(pix)) != protocol.ExpectedLength(width, height) {
		return nil, &SurfaceError{Width: width, Height: height, Length: len(pix)}
	}

	d := protocol.FrameDescriptor{Width: width, Height: height}
	return &image.RGBA{
		Pix:    pix,
		Stride: d.Stride(),
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}, nil
}
