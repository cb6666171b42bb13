package driver

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/engine"
)

const (
	fakeBase   = 4096
	fakeBudget = 1024
)

// fakeModule runs a real engine over a simulated linear memory.
type fakeModule struct {
	mu     sync.Mutex
	memory []byte
	eng    *engine.Engine

	advanceErr error
	// Applied after the engine advances, to simulate a misbehaving module.
	afterAdvance func(m *fakeModule)
	ptrShift     uint32
	lengthDelta  int
	closed       int
}

func newFakeModule() *fakeModule {
	// Spare capacity lets grow keep the backing array, like a wasm memory
	// that grows in place.
	memory := make([]byte, frame.PageSize, 4*frame.PageSize)
	return &fakeModule{
		memory: memory,
		eng:    engine.New(memory[fakeBase:fakeBase+fakeBudget], fakeBase),
	}
}

func (m *fakeModule) Initialize(_ context.Context, width, height uint32) error {
	return m.eng.Initialize(width, height)
}

func (m *fakeModule) SelectPattern(_ context.Context, id uint32) error {
	return m.eng.SelectPattern(engine.Pattern(id))
}

func (m *fakeModule) AdvanceFrame(context.Context) error {
	if m.advanceErr != nil {
		return m.advanceErr
	}
	if err := m.eng.AdvanceFrame(); err != nil {
		return err
	}
	if m.afterAdvance != nil {
		m.afterAdvance(m)
	}
	return nil
}

func (m *fakeModule) BufferPointer(context.Context) (uint32, error) {
	ptr := m.eng.BufferPointer()
	if ptr == frame.InvalidPointer {
		return ptr, nil
	}
	return ptr + m.ptrShift, nil
}

func (m *fakeModule) BufferLength(context.Context) (uint32, error) {
	return uint32(int(m.eng.BufferLength()) + m.lengthDelta), nil
}

func (m *fakeModule) MemorySize() uint32 {
	return uint32(len(m.memory))
}

func (m *fakeModule) ReadMemory(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.memory)) {
		return nil, false
	}
	return m.memory[offset:end], true
}

func (m *fakeModule) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *fakeModule) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *fakeModule) grow() {
	m.memory = m.memory[:len(m.memory)+frame.PageSize]
}

// recordingCanvas keeps a copy of every painted frame.
type recordingCanvas struct {
	width, height uint32
	paintErr      error
	frames        [][]byte
}

func (c *recordingCanvas) Size() (uint32, uint32) {
	return c.width, c.height
}

func (c *recordingCanvas) Paint(img *image.RGBA) error {
	if c.paintErr != nil {
		return c.paintErr
	}
	c.frames = append(c.frames, append([]byte(nil), img.Pix...))
	return nil
}

// manualScheduler fires ticks on demand from the test goroutine.
type manualScheduler struct {
	err      error
	interval time.Duration
	tick     func(time.Time)
	done     chan struct{}
	once     sync.Once
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{interval: time.Hour}
}

func (s *manualScheduler) Schedule(_ context.Context, tick func(time.Time)) (func(), <-chan struct{}, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	s.tick = tick
	s.done = make(chan struct{})
	return func() { s.once.Do(func() { close(s.done) }) }, s.done, nil
}

func (s *manualScheduler) Interval() time.Duration {
	return s.interval
}

// fire delivers up to n ticks, fewer if the schedule was stopped.
func (s *manualScheduler) fire(n int) {
	s.fireAt(n, time.Now())
}

func (s *manualScheduler) fireAt(n int, now time.Time) {
	for i := 0; i < n; i++ {
		select {
		case <-s.done:
			return
		default:
		}
		s.tick(now)
	}
}

var errPaint = errors.New("canvas detached")
