package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when the engine is used before Initialize.
	ErrNotInitialized = errors.New("frame engine not initialized")

	// ErrPoisoned is returned for every call after a failed Initialize.
	ErrPoisoned = errors.New("frame engine unusable after failed initialization")

	// ErrUnknownPattern is returned by SelectPattern for an unknown id.
	ErrUnknownPattern = errors.New("unknown pattern")
)

// InitializationError occurs when the requested canvas does not fit the
// memory budget reserved for the pixel buffer.
type InitializationError struct {
	Width    uint32
	Height   uint32
	Required uint64
	Budget   int
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("canvas %dx%d needs %d bytes, exceeds pixel budget of %d bytes",
		e.Width, e.Height, e.Required, e.Budget)
}
