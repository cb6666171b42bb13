//go:build wasip1

// Command frameengine is the frame engine wasm module.
//
// Build as a reactor so the host can call exports after _initialize:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o frameengine.wasm ./cmd/frameengine
package main

import (
	"unsafe"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/engine"
)

// region is reserved once in the data segment. The engine never grows it.
var region [frame.MaxBufferBytes]byte

var eng = engine.New(region[:], uint32(uintptr(unsafe.Pointer(&region[0]))))

//go:wasmexport initialize
func initialize(width, height uint32) uint32 {
	if err := eng.Initialize(width, height); err != nil {
		frame.LogMessage(frame.LogError, err.Error())
		return frame.InvalidPointer
	}
	return eng.BufferPointer()
}

//go:wasmexport advance_frame
func advanceFrame() {
	if err := eng.AdvanceFrame(); err != nil {
		// Trap: the instance must not be used after a failed initialize.
		panic(err)
	}
}

//go:wasmexport buffer_pointer
func bufferPointer() uint32 {
	return eng.BufferPointer()
}

//go:wasmexport buffer_length
func bufferLength() uint32 {
	return eng.BufferLength()
}

//go:wasmexport frame_count
func frameCount() uint32 {
	return eng.Frame()
}

//go:wasmexport select_pattern
func selectPattern(id uint32) uint32 {
	if err := eng.SelectPattern(engine.Pattern(id)); err != nil {
		frame.LogMessage(frame.LogWarn, err.Error())
		return 0
	}
	return 1
}

//go:wasmexport the_answer
func theAnswer() uint32 {
	return frame.TheAnswer
}

func main() {}
