package wasm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
)

// InstanceManager creates and manages module instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctionsImpl
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctionsImpl, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string
}

// Instance represents an instantiated frame engine module.
type Instance struct {
	// wazero module instance.
	module api.Module
	memory *Memory

	// Instance metadata.
	ID        string
	Name      string
	CreatedAt int64

	// Exported functions (cached for performance).
	exports map[string]api.Function

	runtime   *Runtime
	logger    *zap.Logger
	timeout   time.Duration
	debug     bool
	closeOnce sync.Once
	closeErr  error
}

// Instantiate creates a new instance from a compiled module.
// Host functions are exported to the Wasm module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	if m.runtime.IsClosed() {
		return nil, fmt.Errorf("instantiate %s: runtime closed", config.ModuleName)
	}

	if limit := m.runtime.config.MaxInstances; limit > 0 && m.runtime.InstanceCount() >= limit {
		return nil, &InstanceLimitError{Limit: limit}
	}

	// Get compiled module from cache.
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	// Generate instance ID if not provided.
	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateUUID()
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	if err := m.ensureHostModule(ctx); err != nil {
		return nil, err
	}

	// Reactor modules (Go -buildmode=c-shared) export _initialize, which
	// must run before any other export. Modules without it skip this step.
	guestLog := m.logger.With(zap.String("instance_id", instanceID))
	stderrLog, err := zap.NewStdLogAt(guestLog, zap.WarnLevel)
	if err != nil {
		return nil, err
	}
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions("_initialize").
		WithStdout(zap.NewStdLog(guestLog).Writer()).
		WithStderr(stderrLog.Writer())

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	// Cache exported functions.
	exports := m.cacheExportedFunctions(module)

	instance := &Instance{
		module:    module,
		memory:    NewMemory(module),
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		exports:   exports,
		runtime:   m.runtime,
		logger:    guestLog,
		timeout:   m.runtime.config.ExecutionTimeout,
		debug:     m.runtime.config.DebugEnabled,
	}

	if err := instance.handshake(ctx); err != nil {
		_ = module.Close(ctx)
		return nil, err
	}

	// Track active instance.
	m.runtime.StoreInstance(instanceID, instance)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(exports)),
		zap.Uint32("memory_bytes", instance.MemorySize()),
	)

	return instance, nil
}

// ensureHostModule registers the "host" import module on first use.
func (m *InstanceManager) ensureHostModule(ctx context.Context) error {
	r := m.runtime
	r.hostOnce.Do(func() {
		builder := r.runtime.NewHostModuleBuilder(HostModuleName)
		m.exportHostFunctions(builder)
		if _, err := builder.Instantiate(ctx); err != nil {
			r.hostErr = &HostFunctionError{FunctionName: "log_message", Err: err}
		}
	})
	return r.hostErr
}

// cacheExportedFunctions caches references to exported functions.
func (m *InstanceManager) cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)

	for _, names := range [][]string{frame.RequiredExports, frame.OptionalExports} {
		for _, name := range names {
			if fn := module.ExportedFunction(name); fn != nil {
				exports[name] = fn
			}
		}
	}

	return exports
}

// exportHostFunctions registers Go functions for import by Wasm modules.
func (m *InstanceManager) exportHostFunctions(builder wazero.HostModuleBuilder) {
	impl := m.hostFuncs

	// Guests report initialization failures through log_message.
	builder.NewFunctionBuilder().
		WithFunc(impl.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export("log_message")
}

// handshake calls the_answer when the module exports it.
func (i *Instance) handshake(ctx context.Context) error {
	if _, ok := i.exports[frame.ExportTheAnswer]; !ok {
		return nil
	}
	got, err := i.callUint32(ctx, frame.ExportTheAnswer)
	if err != nil {
		return err
	}
	if got != frame.TheAnswer {
		return &ContractError{
			ModuleName: i.Name,
			Violations: []string{fmt.Sprintf("the_answer returned %d, want %d", got, frame.TheAnswer)},
		}
	}
	return nil
}

// call invokes an exported function under the configured timeout.
func (i *Instance) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := i.exports[name]
	if !ok {
		return nil, &FunctionNotFoundError{ModuleName: i.Name, FunctionName: name}
	}

	callCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	results, err := fn.Call(callCtx, params...)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{FunctionName: name, Duration: i.timeout}
		}
		return nil, fmt.Errorf("call %s on %s: %w", name, i.ID, err)
	}

	if i.debug {
		i.logger.Debug("Export called",
			zap.String("function", name),
			zap.Uint64s("params", params),
			zap.Uint64s("results", results),
		)
	}

	return results, nil
}

func (i *Instance) callUint32(ctx context.Context, name string, params ...uint64) (uint32, error) {
	results, err := i.call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("call %s on %s: no result", name, i.ID)
	}
	return api.DecodeU32(results[0]), nil
}

// Initialize calls initialize(width, height).
func (i *Instance) Initialize(ctx context.Context, width, height uint32) error {
	ptr, err := i.callUint32(ctx, frame.ExportInitialize, api.EncodeU32(width), api.EncodeU32(height))
	if err != nil {
		return err
	}
	if ptr == frame.InvalidPointer {
		return &InitializationError{
			InstanceID: i.ID,
			Width:      width,
			Height:     height,
			Budget:     frame.MaxBufferBytes,
		}
	}
	return nil
}

// AdvanceFrame calls advance_frame.
func (i *Instance) AdvanceFrame(ctx context.Context) error {
	_, err := i.call(ctx, frame.ExportAdvanceFrame)
	return err
}

// BufferPointer calls buffer_pointer.
func (i *Instance) BufferPointer(ctx context.Context) (uint32, error) {
	return i.callUint32(ctx, frame.ExportBufferPointer)
}

// BufferLength calls buffer_length.
func (i *Instance) BufferLength(ctx context.Context) (uint32, error) {
	return i.callUint32(ctx, frame.ExportBufferLength)
}

// FrameCount calls frame_count.
func (i *Instance) FrameCount(ctx context.Context) (uint32, error) {
	return i.callUint32(ctx, frame.ExportFrameCount)
}

// SelectPattern calls select_pattern(id).
func (i *Instance) SelectPattern(ctx context.Context, id uint32) error {
	ok, err := i.callUint32(ctx, frame.ExportSelectPattern, api.EncodeU32(id))
	if err != nil {
		return err
	}
	if ok == 0 {
		return fmt.Errorf("module %s rejected pattern %d", i.Name, id)
	}
	return nil
}

// MemorySize returns the current size of the instance's linear memory.
func (i *Instance) MemorySize() uint32 {
	return i.memory.Size()
}

// ReadMemory returns a view of linear memory. The view is only valid until
// the next call into the module.
func (i *Instance) ReadMemory(offset, length uint32) ([]byte, bool) {
	return i.memory.ReadBytes(offset, length)
}

// Memory returns the memory helper for this instance.
func (i *Instance) Memory() *Memory {
	return i.memory
}

// Close closes the instance and releases resources.
func (i *Instance) Close(ctx context.Context) error {
	i.closeOnce.Do(func() {
		i.closeErr = i.module.Close(ctx)
		i.runtime.DeleteInstance(i.ID)
	})
	return i.closeErr
}

var instanceSeq atomic.Uint64

// generateUUID generates a unique instance ID.
func generateUUID() string {
	return fmt.Sprintf("inst-%d-%d", time.Now().UnixNano(), instanceSeq.Add(1))
}
