// Package driver runs the host side of the render loop: it ticks a frame
// module, reads the pixel buffer straight out of its linear memory and
// paints it onto a canvas.
//
// Pointer and length are re-queried on every tick and checked against the
// values validated at start. A module whose memory grew is re-validated the
// same way; views into memory are never kept past the tick that read them.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/canvas"
	"github.com/woxQAQ/bare-metal-canvas/pkg/protocol"
)

// FrameModule is one instantiated frame engine.
type FrameModule interface {
	Initialize(ctx context.Context, width, height uint32) error
	SelectPattern(ctx context.Context, id uint32) error
	AdvanceFrame(ctx context.Context) error
	BufferPointer(ctx context.Context) (uint32, error)
	BufferLength(ctx context.Context) (uint32, error)

	// MemorySize is the current size of linear memory in bytes.
	MemorySize() uint32

	// ReadMemory returns a view valid until the next call into the module.
	ReadMemory(offset, length uint32) ([]byte, bool)

	Close(ctx context.Context) error
}

// ModuleFactory instantiates a fresh module for one run.
type ModuleFactory func(ctx context.Context) (FrameModule, error)

// Stats counts what happened during a run.
type Stats struct {
	Frames          uint64
	MissedDeadlines uint64
	MemoryGrowths   uint64
}

// Option configures a Driver.
type Option func(*Driver)

// WithMaxFrames stops the driver cleanly after n painted frames.
func WithMaxFrames(n uint64) Option {
	return func(d *Driver) {
		d.maxFrames = n
	}
}

// WithPattern selects a pattern before the first tick.
func WithPattern(id uint32) Option {
	return func(d *Driver) {
		d.pattern = &id
	}
}

// Driver owns the animation loop for one module instance.
type Driver struct {
	factory   ModuleFactory
	scheduler Scheduler
	logger    *zap.Logger

	maxFrames uint64
	pattern   *uint32

	mu     sync.Mutex
	state  protocol.DriverState
	err    error
	stats  Stats
	stop   func()
	done   chan struct{}

	// Owned by the tick goroutine once running.
	ctx     context.Context
	module  FrameModule
	target  canvas.Canvas
	desc    protocol.FrameDescriptor
	memSize uint32
}

// New creates a driver in the Uninitialized state.
func New(factory ModuleFactory, scheduler Scheduler, logger *zap.Logger, opts ...Option) *Driver {
	d := &Driver{
		factory:   factory,
		scheduler: scheduler,
		logger:    logger.With(zap.String("component", "driver")),
		state:     protocol.StateUninitialized,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start instantiates a module, initializes it with the canvas size and
// begins ticking. On failure the module is closed and the driver stays
// Uninitialized.
func (d *Driver) Start(ctx context.Context, target canvas.Canvas) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case protocol.StateRunning:
		return ErrAlreadyRunning
	case protocol.StateStopped:
		return ErrStopped
	}

	module, err := d.factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to instantiate frame module: %w", err)
	}

	desc, err := d.prepare(ctx, module, target)
	if err != nil {
		d.closeModule(module)
		return err
	}

	d.ctx = ctx
	d.module = module
	d.target = target
	d.desc = desc
	d.memSize = module.MemorySize()

	stop, done, err := d.scheduler.Schedule(ctx, d.tick)
	if err != nil {
		d.closeModule(module)
		d.module = nil
		return &ScheduleError{Err: err}
	}

	d.stop = stop
	d.state = protocol.StateRunning
	go d.wait(done)

	d.logger.Info("Driver started",
		zap.Uint32("width", desc.Width),
		zap.Uint32("height", desc.Height),
		zap.Uint32("pointer", desc.Pointer),
		zap.Uint32("length", desc.Length),
		zap.Duration("interval", d.scheduler.Interval()),
	)
	return nil
}

// prepare initializes the module and validates the buffer it reports.
func (d *Driver) prepare(ctx context.Context, module FrameModule, target canvas.Canvas) (protocol.FrameDescriptor, error) {
	width, height := target.Size()
	desc := protocol.FrameDescriptor{Width: width, Height: height}

	if err := module.Initialize(ctx, width, height); err != nil {
		return desc, err
	}

	if d.pattern != nil {
		if err := module.SelectPattern(ctx, *d.pattern); err != nil {
			return desc, err
		}
	}

	ptr, length, err := d.query(ctx, module)
	if err != nil {
		return desc, err
	}
	desc.Pointer = ptr
	desc.Length = length

	if ptr == frame.InvalidPointer {
		return desc, d.stale(module, "invalid pointer", ptr, length)
	}
	if !desc.Consistent() {
		return desc, d.stale(module, fmt.Sprintf("length does not match %dx%d", width, height), ptr, length)
	}
	if _, ok := module.ReadMemory(ptr, length); !ok {
		return desc, d.stale(module, "buffer outside linear memory", ptr, length)
	}
	return desc, nil
}

func (d *Driver) query(ctx context.Context, module FrameModule) (uint32, uint32, error) {
	ptr, err := module.BufferPointer(ctx)
	if err != nil {
		return 0, 0, err
	}
	length, err := module.BufferLength(ctx)
	if err != nil {
		return 0, 0, err
	}
	return ptr, length, nil
}

func (d *Driver) stale(module FrameModule, reason string, ptr, length uint32) error {
	return &StaleMemoryError{
		Reason:     reason,
		Pointer:    ptr,
		Length:     length,
		MemorySize: module.MemorySize(),
	}
}

// tick runs one frame: advance, re-validate, paint.
func (d *Driver) tick(now time.Time) {
	d.mu.Lock()
	running := d.state == protocol.StateRunning
	d.mu.Unlock()
	if !running {
		return
	}

	if err := d.module.AdvanceFrame(d.ctx); err != nil {
		d.fail(fmt.Errorf("advance frame: %w", err))
		return
	}

	pix, err := d.readFrame()
	if err != nil {
		d.fail(err)
		return
	}

	surface, err := canvas.NewSurface(pix, d.desc.Width, d.desc.Height)
	if err != nil {
		d.fail(err)
		return
	}
	if err := d.target.Paint(surface); err != nil {
		d.fail(fmt.Errorf("paint: %w", err))
		return
	}

	missed := time.Since(now) > d.scheduler.Interval()

	d.mu.Lock()
	d.stats.Frames++
	if missed {
		d.stats.MissedDeadlines++
	}
	limitReached := d.maxFrames > 0 && d.stats.Frames >= d.maxFrames
	d.mu.Unlock()

	if limitReached {
		d.logger.Info("Frame limit reached", zap.Uint64("frames", d.maxFrames))
		d.Stop()
	}
}

// readFrame re-queries the buffer and returns a view of it.
func (d *Driver) readFrame() ([]byte, error) {
	if size := d.module.MemorySize(); size != d.memSize {
		d.logger.Info("Module memory grew, revalidating frame buffer",
			zap.Uint32("old_size", d.memSize),
			zap.Uint32("new_size", size),
		)
		d.memSize = size
		d.mu.Lock()
		d.stats.MemoryGrowths++
		d.mu.Unlock()
	}

	ptr, length, err := d.query(d.ctx, d.module)
	if err != nil {
		return nil, err
	}

	switch {
	case ptr == frame.InvalidPointer:
		return nil, d.stale(d.module, "invalid pointer", ptr, length)
	case ptr != d.desc.Pointer:
		return nil, d.stale(d.module, fmt.Sprintf("pointer moved from %d", d.desc.Pointer), ptr, length)
	case length != d.desc.Length:
		return nil, d.stale(d.module, fmt.Sprintf("length changed from %d", d.desc.Length), ptr, length)
	}

	pix, ok := d.module.ReadMemory(ptr, length)
	if !ok {
		return nil, d.stale(d.module, "buffer outside linear memory", ptr, length)
	}
	return pix, nil
}

// fail stops the loop with err. Errors caused by the run context being
// cancelled are a clean stop.
func (d *Driver) fail(err error) {
	if d.ctx.Err() != nil {
		d.Stop()
		return
	}

	d.logger.Error("Render loop failed", zap.Error(err))

	d.mu.Lock()
	if d.err == nil {
		d.err = err
	}
	d.mu.Unlock()
	d.Stop()
}

// Stop cancels the tick schedule. The in-flight tick, if any, finishes.
// Stop is idempotent and does nothing before Start.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.state != protocol.StateRunning {
		d.mu.Unlock()
		return
	}
	d.state = protocol.StateStopped
	stop := d.stop
	d.mu.Unlock()

	stop()
}

// wait releases the module once the scheduler has delivered its last tick.
func (d *Driver) wait(done <-chan struct{}) {
	<-done

	d.closeModule(d.module)

	d.mu.Lock()
	d.state = protocol.StateStopped
	stats := d.stats
	err := d.err
	d.mu.Unlock()

	d.logger.Info("Driver stopped",
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("missed_deadlines", stats.MissedDeadlines),
		zap.Uint64("memory_growths", stats.MemoryGrowths),
		zap.Error(err),
	)
	close(d.done)
}

func (d *Driver) closeModule(module FrameModule) {
	// The run context may already be cancelled.
	if err := module.Close(context.Background()); err != nil {
		d.logger.Warn("Failed to close frame module", zap.Error(err))
	}
}

// Done is closed once a started driver has stopped and released its module.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Err returns the error that stopped the loop, or nil after a clean stop.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// State returns the lifecycle state.
func (d *Driver) State() protocol.DriverState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stats returns a snapshot of the run counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Descriptor returns the frame buffer validated at start.
func (d *Driver) Descriptor() protocol.FrameDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.desc
}
