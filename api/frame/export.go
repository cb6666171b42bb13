package frame

// This file defines the Wasm export interface of the frame engine module.
// The host calls these functions directly; there is no binding layer.
//
// NOTE: every parameter and result is a plain i32. Pointers are offsets into
// the module's 32-bit linear memory, so uint32 is used on both sides.

// Export names.
const (
	// ExportInitialize sizes the pixel buffer and paints the initial frame.
	// Signature: initialize(width: i32, height: i32) -> i32
	// Returns the buffer pointer, or InvalidPointer if width*height*4
	// exceeds MaxBufferBytes. A failed instance must not be used again.
	ExportInitialize = "initialize"

	// ExportAdvanceFrame advances the animation state by one and repaints
	// the whole buffer in place.
	// Signature: advance_frame() -> ()
	ExportAdvanceFrame = "advance_frame"

	// ExportBufferPointer returns the buffer base address.
	// Signature: buffer_pointer() -> i32 (InvalidPointer when not initialized)
	ExportBufferPointer = "buffer_pointer"

	// ExportBufferLength returns the buffer length in bytes.
	// Signature: buffer_length() -> i32 (0 when not initialized)
	ExportBufferLength = "buffer_length"

	// ExportFrameCount returns the current animation state.
	// Signature: frame_count() -> i32
	ExportFrameCount = "frame_count"

	// ExportSelectPattern chooses the generative function.
	// Signature: select_pattern(id: i32) -> i32 (1 accepted, 0 unknown id)
	ExportSelectPattern = "select_pattern"

	// ExportTheAnswer is a handshake probe.
	// Signature: the_answer() -> i32 (always TheAnswer)
	ExportTheAnswer = "the_answer"
)

// RequiredExports are the exports a host needs to drive the render loop.
var RequiredExports = []string{
	ExportInitialize,
	ExportAdvanceFrame,
	ExportBufferPointer,
	ExportBufferLength,
}

// OptionalExports are used when present.
var OptionalExports = []string{
	ExportFrameCount,
	ExportSelectPattern,
	ExportTheAnswer,
}

const (
	// Width and height of the demo canvas the memory budget is sized for.
	DefaultWidth  = 600
	DefaultHeight = 600

	// BytesPerPixel is fixed: one byte per channel, R, G, B, A.
	BytesPerPixel = 4

	// MaxBufferBytes is the fixed ceiling reserved for the pixel buffer.
	// Module memory is not elastic, so initialize rejects anything larger.
	MaxBufferBytes = DefaultWidth * DefaultHeight * BytesPerPixel

	// InvalidPointer is returned by initialize and buffer_pointer when there
	// is no valid buffer. Address 0 is never handed out for the buffer.
	InvalidPointer uint32 = 0

	// TheAnswer is the value returned by the_answer.
	TheAnswer uint32 = 42

	// ChannelOrder documents the byte order of a pixel in memory.
	ChannelOrder = "RGBA"

	// PageSize is the wasm linear memory page size.
	PageSize = 65536
)

// Pattern ids accepted by select_pattern.
const (
	PatternSine  uint32 = 0
	PatternXOR   uint32 = 1
	PatternSolid uint32 = 2
)

// Log levels understood by the host's log_message import.
const (
	LogDebug uint32 = iota
	LogInfo
	LogWarn
	LogError
)
