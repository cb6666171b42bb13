package protocol

// Shared types for the frame demo
// This package defines the frame contract used by both engine and host packages

// BytesPerPixel is the size of one RGBA pixel in the pixel buffer.
const BytesPerPixel = 4

// FrameDescriptor describes the pixel buffer a module exposes
type FrameDescriptor struct {
	Width   uint32 `json:"width"`
	Height  uint32 `json:"height"`
	Pointer uint32 `json:"pointer"`
	Length  uint32 `json:"length"`
}

// ExpectedLength returns width*height*BytesPerPixel without overflowing.
func ExpectedLength(width, height uint32) uint64 {
	return uint64(width) * uint64(height) * BytesPerPixel
}

// Stride returns the number of bytes in one row. Rows are not padded.
func (d FrameDescriptor) Stride() int {
	return int(d.Width) * BytesPerPixel
}

// Pixels returns width*height.
func (d FrameDescriptor) Pixels() uint64 {
	return uint64(d.Width) * uint64(d.Height)
}

// Consistent reports whether Length matches the dimensions.
func (d FrameDescriptor) Consistent() bool {
	return uint64(d.Length) == ExpectedLength(d.Width, d.Height)
}

// DriverState is the lifecycle state of a host driver
type DriverState int

const (
	StateUninitialized DriverState = iota
	StateRunning
	StateStopped
)

func (s DriverState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
