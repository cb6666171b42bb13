package wasm

import (
	"errors"

	"github.com/tetratelabs/wazero/api"
)

var errOutOfRange = errors.New("out of range of memory size")

// Memory provides safe memory operations for Wasm module interaction.
//
// The frame buffer lives in the guest's linear memory and is read in place.
// wazero hands out views backed by that memory, and a view is invalidated
// when the memory grows, so views must not be kept past the call that
// produced them. CopyBytes exists for callers that need to keep data.
type Memory struct {
	mem api.Memory
}

// NewMemory creates a memory helper.
func NewMemory(module api.Module) *Memory {
	return &Memory{mem: module.Memory()}
}

// Size returns the current size of linear memory in bytes.
func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// ReadBytes returns a view of length bytes at ptr without copying.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, bool) {
	if m.mem == nil {
		return nil, false
	}
	return m.mem.Read(ptr, length)
}

// CopyBytes copies length bytes at ptr out of linear memory.
func (m *Memory) CopyBytes(ptr uint32, length uint32) ([]byte, error) {
	buf, ok := m.ReadBytes(ptr, length)
	if !ok {
		return nil, &MemoryAccessError{
			Operation: "copy",
			Address:   ptr,
			Length:    length,
			Err:       errOutOfRange,
		}
	}
	out := make([]byte, length)
	copy(out, buf)
	return out, nil
}
