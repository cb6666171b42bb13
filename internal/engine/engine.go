// Package engine implements the frame engine that runs inside the wasm
// module. It owns a fixed-capacity pixel buffer and a frame counter and
// regenerates the buffer in place on every AdvanceFrame.
//
// The engine has no timers and does no logging; scheduling belongs to the
// host. An Engine is an explicit instance handle, so any number of
// independent engines can live in one process.
package engine

import (
	"encoding/binary"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/pkg/protocol"
)

type status uint8

const (
	statusNew status = iota
	statusReady
	statusPoisoned
)

// Engine is one frame engine instance.
type Engine struct {
	// Fixed backing store. Its length is the memory budget.
	region []byte
	// Address of region[0] in the module's linear memory.
	base uint32

	// Current pixel buffer, always region[:width*height*4].
	buf    []byte
	width  uint32
	height uint32

	// Animation state. Wraps on overflow.
	frame uint32

	pattern Pattern
	cols    []float32
	rows    []float32

	status status
}

// New creates an engine backed by region. base is the address of region[0]
// as seen by the host and must be nonzero, since 0 is the invalid pointer.
func New(region []byte, base uint32) *Engine {
	return &Engine{
		region:  region,
		base:    base,
		pattern: PatternSine,
	}
}

// Budget returns the largest buffer, in bytes, Initialize accepts.
func (e *Engine) Budget() int {
	return len(e.region)
}

// Initialize sizes the pixel buffer for a width x height canvas, paints the
// initial frame and resets the frame counter.
//
// A failed Initialize is fatal: the engine keeps no partial state and every
// later call fails.
func (e *Engine) Initialize(width, height uint32) error {
	if e.status == statusPoisoned {
		return ErrPoisoned
	}

	need := protocol.ExpectedLength(width, height)
	if need > uint64(len(e.region)) {
		e.poison()
		return &InitializationError{
			Width:    width,
			Height:   height,
			Required: need,
			Budget:   len(e.region),
		}
	}

	e.width = width
	e.height = height
	e.buf = e.region[:need]
	e.cols = sineTable(width)
	e.rows = sineTable(height)
	e.frame = 0

	for i := 0; i < len(e.buf); i += frame.BytesPerPixel {
		binary.LittleEndian.PutUint32(e.buf[i:], initialColor)
	}

	e.status = statusReady
	return nil
}

func (e *Engine) poison() {
	e.status = statusPoisoned
	e.buf = nil
	e.cols = nil
	e.rows = nil
	e.width = 0
	e.height = 0
	e.frame = 0
}

// AdvanceFrame increments the frame counter and repaints every pixel.
// It does not allocate.
func (e *Engine) AdvanceFrame() error {
	if err := e.usable(); err != nil {
		return err
	}

	e.frame++
	f := e.frame

	i := 0
	for y := uint32(0); y < e.height; y++ {
		for x := uint32(0); x < e.width; x++ {
			var c uint32
			switch e.pattern {
			case PatternSine:
				c = (f + saturate(e.cols[x]+e.rows[y])) | opaque
			default:
				c = Pixel(e.pattern, x, y, f, e.width, e.height)
			}
			binary.LittleEndian.PutUint32(e.buf[i:], c)
			i += frame.BytesPerPixel
		}
	}
	return nil
}

// SelectPattern switches the generative function. It takes effect on the
// next AdvanceFrame.
func (e *Engine) SelectPattern(p Pattern) error {
	if e.status == statusPoisoned {
		return ErrPoisoned
	}
	if !p.Valid() {
		return ErrUnknownPattern
	}
	e.pattern = p
	return nil
}

func (e *Engine) usable() error {
	switch e.status {
	case statusReady:
		return nil
	case statusPoisoned:
		return ErrPoisoned
	default:
		return ErrNotInitialized
	}
}

// BufferPointer returns the buffer base address, or frame.InvalidPointer
// when there is no valid buffer.
func (e *Engine) BufferPointer() uint32 {
	if e.status != statusReady {
		return frame.InvalidPointer
	}
	return e.base
}

// BufferLength returns the buffer length in bytes, or 0 when there is no
// valid buffer.
func (e *Engine) BufferLength() uint32 {
	if e.status != statusReady {
		return 0
	}
	return uint32(len(e.buf))
}

// Frame returns the animation state.
func (e *Engine) Frame() uint32 { return e.frame }

// Width returns the canvas width.
func (e *Engine) Width() uint32 { return e.width }

// Height returns the canvas height.
func (e *Engine) Height() uint32 { return e.height }

// Pattern returns the active pattern.
func (e *Engine) Pattern() Pattern { return e.pattern }

// Pixels returns the current buffer. Callers must not modify or retain it.
func (e *Engine) Pixels() []byte { return e.buf }

// Descriptor returns the frame descriptor the host reads through.
func (e *Engine) Descriptor() protocol.FrameDescriptor {
	return protocol.FrameDescriptor{
		Width:   e.width,
		Height:  e.height,
		Pointer: e.BufferPointer(),
		Length:  e.BufferLength(),
	}
}
