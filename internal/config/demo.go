package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FRAMEDEMO_LOOP_FPS.
const EnvPrefix = "FRAMEDEMO"

// Canvas kinds.
const (
	CanvasTerminal = "terminal"
	CanvasPNG      = "png"
)

type DemoConfig struct {
	// Path to a frame engine module. Ignored when BundleDir is set.
	ModulePath string `mapstructure:"module_path"`
	// Bundle directory holding manifest.yaml and the module.
	BundleDir string       `mapstructure:"bundle_dir"`
	LogLevel  string       `mapstructure:"log_level"`
	LogFile   string       `mapstructure:"log_file"`
	Canvas    CanvasConfig `mapstructure:"canvas"`
	Loop      LoopConfig   `mapstructure:"loop"`
	Wasm      WasmConfig   `mapstructure:"wasm"`
}

// CanvasConfig selects where frames are painted.
type CanvasConfig struct {
	// "terminal" or "png".
	Kind string `mapstructure:"kind"`
	// Size in pixels. Zero lets the canvas decide.
	Width  uint32 `mapstructure:"width"`
	Height uint32 `mapstructure:"height"`
	// PNG output directory and frame interval.
	OutputDir string `mapstructure:"output_dir"`
	Every     int    `mapstructure:"every"`
}

// LoopConfig holds render loop settings.
type LoopConfig struct {
	FPS int `mapstructure:"fps"`
	// Stop after this many frames. Zero runs until stopped.
	MaxFrames uint64 `mapstructure:"max_frames"`
	// Pattern name; empty uses the bundle's pattern or sine.
	Pattern string `mapstructure:"pattern"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Memory limit per module (in pages, 64KB each).
	MemoryPages uint32 `mapstructure:"memory_pages"`
	// Enable debug logging.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory.
	CacheDir string `mapstructure:"cache_dir"`
	// Maximum concurrent instances.
	MaxInstances int `mapstructure:"max_instances"`
	// Upper bound for a single call into the module.
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`
}

func LoadDemoConfig(configPath string) (*DemoConfig, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("module_path", "")
	v.SetDefault("bundle_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetDefault("canvas.kind", CanvasTerminal)
	v.SetDefault("canvas.width", 0)
	v.SetDefault("canvas.height", 0)
	v.SetDefault("canvas.output_dir", "./frames")
	v.SetDefault("canvas.every", 1)

	v.SetDefault("loop.fps", 30)
	v.SetDefault("loop.max_frames", 0)
	v.SetDefault("loop.pattern", "")

	// Wasm defaults
	v.SetDefault("wasm.memory_pages", 1024) // 64MB
	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "")
	v.SetDefault("wasm.max_instances", 4)
	v.SetDefault("wasm.execution_timeout", "1s")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg DemoConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that defaults cannot fix.
func (c *DemoConfig) Validate() error {
	if c.ModulePath == "" && c.BundleDir == "" {
		return fmt.Errorf("one of module_path or bundle_dir is required")
	}

	switch c.Canvas.Kind {
	case CanvasTerminal, CanvasPNG:
	default:
		return fmt.Errorf("unknown canvas kind %q (must be one of: terminal, png)", c.Canvas.Kind)
	}

	if (c.Canvas.Width == 0) != (c.Canvas.Height == 0) {
		return fmt.Errorf("canvas.width and canvas.height must be set together")
	}

	if c.Loop.FPS <= 0 {
		return fmt.Errorf("loop.fps must be positive, got %d", c.Loop.FPS)
	}

	return nil
}
