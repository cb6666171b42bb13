package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start on a running driver.
	ErrAlreadyRunning = errors.New("driver already running")

	// ErrStopped is returned by Start on a stopped driver. Stopped is
	// terminal; create a new Driver for a new run.
	ErrStopped = errors.New("driver stopped")
)

// StaleMemoryError occurs when the frame buffer the module reports is no
// longer the one the driver validated, or cannot be read
type StaleMemoryError struct {
	Reason     string
	Pointer    uint32
	Length     uint32
	MemorySize uint32
}

func (e *StaleMemoryError) Error() string {
	return fmt.Sprintf("stale frame buffer: %s (ptr=%d, len=%d, memory=%d)",
		e.Reason, e.Pointer, e.Length, e.MemorySize)
}

// ScheduleError occurs when the tick schedule cannot be registered
type ScheduleError struct {
	Err error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("failed to schedule ticks: %v", e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}
