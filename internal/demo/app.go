// Package demo wires configuration, the Wasm runtime, a canvas and the
// driver into the runnable frame demo.
package demo

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/bundle"
	"github.com/woxQAQ/bare-metal-canvas/internal/canvas"
	"github.com/woxQAQ/bare-metal-canvas/internal/config"
	"github.com/woxQAQ/bare-metal-canvas/internal/driver"
	"github.com/woxQAQ/bare-metal-canvas/internal/engine"
	"github.com/woxQAQ/bare-metal-canvas/internal/wasm"
)

// Terminal size used when stdout is not a terminal.
const (
	fallbackCols = 80
	fallbackRows = 26
)

type App struct {
	cfg         *config.DemoConfig
	logger      *zap.Logger
	wasmRuntime *wasm.Runtime
	instances   *wasm.InstanceManager

	title      string
	moduleName string
	pattern    *uint32
	width      uint32
	height     uint32
}

func NewApp(ctx context.Context, cfg *config.DemoConfig, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize Wasm runtime.
	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:      cfg.Wasm.MemoryPages,
		DebugEnabled:     cfg.Wasm.Debug,
		CacheDir:         cfg.Wasm.CacheDir,
		MaxInstances:     cfg.Wasm.MaxInstances,
		ExecutionTimeout: cfg.Wasm.ExecutionTimeout,
	}

	wasmRuntime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	a := &App{
		cfg:         cfg,
		logger:      logger.With(zap.String("component", "demo")),
		wasmRuntime: wasmRuntime,
		instances:   wasm.NewInstanceManager(wasmRuntime, wasm.NewHostFunctions(logger), logger),
		width:       cfg.Canvas.Width,
		height:      cfg.Canvas.Height,
	}

	if err := a.loadModule(ctx); err != nil {
		wasmRuntime.Close(ctx)
		return nil, err
	}

	a.logger.Info("Demo initialized",
		zap.String("module", a.moduleName),
		zap.String("canvas", cfg.Canvas.Kind),
		zap.Int("fps", cfg.Loop.FPS),
		zap.Uint32("wasm_memory_pages", cfg.Wasm.MemoryPages),
	)

	return a, nil
}

// loadModule compiles the configured bundle or module and settles the
// pattern and canvas size. Explicit configuration wins over the bundle.
func (a *App) loadModule(ctx context.Context) error {
	patternName := a.cfg.Loop.Pattern

	if a.cfg.BundleDir != "" {
		b, err := bundle.NewLoader(a.wasmRuntime, a.logger).LoadBundle(ctx, a.cfg.BundleDir)
		if err != nil {
			return err
		}
		a.title = b.Name()
		a.moduleName = b.ModuleName()
		if patternName == "" {
			patternName = b.Manifest.Pattern
		}
		if a.width == 0 {
			a.width, a.height = b.Manifest.Canvas.Width, b.Manifest.Canvas.Height
		}
	} else {
		compiled, err := wasm.NewModuleLoader(a.wasmRuntime, a.logger).LoadModuleFromFile(ctx, a.cfg.ModulePath)
		if err != nil {
			return err
		}
		a.title = a.cfg.ModulePath
		a.moduleName = compiled.Name
	}

	// Modules without select_pattern still run when no pattern is asked for.
	if patternName != "" {
		p, err := engine.ParsePattern(patternName)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", patternName, err)
		}
		id := uint32(p)
		a.pattern = &id
	}
	return nil
}

// Factory instantiates a fresh module per driver run.
func (a *App) Factory() driver.ModuleFactory {
	return func(ctx context.Context) (driver.FrameModule, error) {
		inst, err := a.instances.Instantiate(ctx, &wasm.InstanceConfig{ModuleName: a.moduleName})
		if err != nil {
			return nil, err
		}
		return inst, nil
	}
}

// NewDriver creates a driver for one run.
func (a *App) NewDriver() *driver.Driver {
	var opts []driver.Option
	if a.cfg.Loop.MaxFrames > 0 {
		opts = append(opts, driver.WithMaxFrames(a.cfg.Loop.MaxFrames))
	}
	if a.pattern != nil {
		opts = append(opts, driver.WithPattern(*a.pattern))
	}
	return driver.New(a.Factory(), driver.NewIntervalScheduler(a.cfg.Loop.FPS), a.logger, opts...)
}

// Run paints onto the configured canvas until the loop stops or ctx is done.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Canvas.Kind {
	case config.CanvasPNG:
		w, h := a.width, a.height
		if w == 0 {
			w, h = frame.DefaultWidth, frame.DefaultHeight
		}
		sink, err := canvas.NewPNGSink(a.cfg.Canvas.OutputDir, w, h, a.cfg.Canvas.Every, a.logger)
		if err != nil {
			return err
		}
		return a.RunHeadless(ctx, sink)
	default:
		return a.RunTerminal(ctx)
	}
}

// RunHeadless drives target and blocks until the driver stops.
func (a *App) RunHeadless(ctx context.Context, target canvas.Canvas) error {
	d := a.NewDriver()
	if err := d.Start(ctx, target); err != nil {
		return err
	}
	<-d.Done()

	stats := d.Stats()
	a.logger.Info("Run finished",
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("missed_deadlines", stats.MissedDeadlines),
	)
	return d.Err()
}

// RunTerminal shows the animation in a bubbletea viewer until the user
// quits, the loop stops or ctx is done.
func (a *App) RunTerminal(ctx context.Context) error {
	w, h := a.width, a.height
	if w == 0 {
		var err error
		w, h, err = canvas.TerminalSize(int(os.Stdout.Fd()))
		if err != nil {
			a.logger.Warn("Falling back to default terminal size", zap.Error(err))
			w, h = canvas.FitTerminal(fallbackCols, fallbackRows)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	viewer := canvas.NewViewer(a.title, cancel)
	program := tea.NewProgram(viewer, tea.WithAltScreen())

	d := a.NewDriver()
	if err := d.Start(runCtx, canvas.NewTerminal(w, h, program)); err != nil {
		return err
	}

	go func() {
		select {
		case <-d.Done():
		case <-runCtx.Done():
		}
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		a.logger.Error("Viewer failed", zap.Error(err))
	}
	cancel()
	<-d.Done()

	return d.Err()
}

// Close gracefully shuts down the demo.
func (a *App) Close(ctx context.Context) error {
	a.logger.Info("Shutting down demo")

	// Shutdown Wasm runtime.
	if err := a.wasmRuntime.Close(ctx); err != nil {
		a.logger.Error("Failed to shutdown Wasm runtime", zap.Error(err))
		return err
	}

	a.logger.Info("Demo shutdown complete")
	return nil
}
