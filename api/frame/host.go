//go:build wasip1

package frame

import (
	"runtime"
	"unsafe"
)

// Host functions imported by the frame engine module.
// The host registers them under the module name "host".

//go:wasmimport host log_message
func logMessage(level, ptr, length uint32)

// LogMessage forwards a message to the host logger.
func LogMessage(level uint32, msg string) {
	if len(msg) == 0 {
		return
	}
	b := []byte(msg)
	logMessage(level, uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b)))
	runtime.KeepAlive(b)
}
