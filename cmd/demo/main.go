package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/woxQAQ/bare-metal-canvas/internal/config"
	"github.com/woxQAQ/bare-metal-canvas/internal/demo"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultTerminalLog keeps log lines off the screen the viewer draws on.
const defaultTerminalLog = "framedemo.log"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	modulePath := flag.String("module", "", "Path to a frame engine .wasm module")
	bundleDir := flag.String("bundle", "", "Path to a bundle directory with manifest.yaml")
	canvasKind := flag.String("canvas", "", "Canvas kind (terminal, png)")
	outputDir := flag.String("out", "", "Output directory for the png canvas")
	fps := flag.Int("fps", 0, "Frames per second")
	maxFrames := flag.Uint64("frames", 0, "Stop after this many frames (0 runs until interrupted)")
	pattern := flag.String("pattern", "", "Pattern (sine, xor, solid)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadDemoConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "module":
			cfg.ModulePath = *modulePath
		case "bundle":
			cfg.BundleDir = *bundleDir
		case "canvas":
			cfg.Canvas.Kind = *canvasKind
		case "out":
			cfg.Canvas.OutputDir = *outputDir
		case "fps":
			cfg.Loop.FPS = *fps
		case "frames":
			cfg.Loop.MaxFrames = *maxFrames
		case "pattern":
			cfg.Loop.Pattern = *pattern
		}
	})

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	defer logger.Sync()

	logger.Info("Starting framedemo",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := demo.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create demo", zap.Error(err))
	}
	defer app.Close(context.Background())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("Render loop stopped with error", zap.Error(err))
		app.Close(context.Background())
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("Demo shutdown complete")
}

func newLogger(cfg *config.DemoConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogLevel == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}

	logFile := cfg.LogFile
	if logFile == "" && cfg.Canvas.Kind == config.CanvasTerminal {
		logFile = defaultTerminalLog
	}
	if logFile != "" {
		zcfg.OutputPaths = []string{logFile}
		zcfg.ErrorOutputPaths = []string{logFile}
	}

	return zcfg.Build()
}
