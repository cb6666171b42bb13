package demo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/bundle"
	"github.com/woxQAQ/bare-metal-canvas/internal/canvas"
	"github.com/woxQAQ/bare-metal-canvas/internal/config"
	"github.com/woxQAQ/bare-metal-canvas/internal/wasm/wasmtest"
)

func testConfig(t *testing.T) *config.DemoConfig {
	t.Helper()
	cfg, err := config.LoadDemoConfig("")
	require.NoError(t, err)

	cfg.Canvas.Kind = config.CanvasPNG
	cfg.Canvas.OutputDir = filepath.Join(t.TempDir(), "frames")
	cfg.Loop.FPS = 200
	cfg.Loop.MaxFrames = 3
	return cfg
}

func writeModule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.wasm")
	require.NoError(t, os.WriteFile(path, wasmtest.FrameFixture(), 0644))
	return path
}

func TestAppRunPNGFromModulePath(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.ModulePath = writeModule(t)
	cfg.Canvas.Width, cfg.Canvas.Height = 8, 8

	app, err := NewApp(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close(ctx)

	require.NoError(t, app.Run(ctx))

	for n := uint64(1); n <= 3; n++ {
		assert.FileExists(t, canvas.FramePath(cfg.Canvas.OutputDir, n))
	}
	assert.NoFileExists(t, canvas.FramePath(cfg.Canvas.OutputDir, 4))
}

func TestAppRunFromBundle(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	manifest := "name: fixture\nversion: 1.0.0\nwasm:\n  file: engine.wasm\ncanvas:\n  width: 16\n  height: 16\npattern: solid\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, bundle.ManifestFile), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine.wasm"), wasmtest.FrameFixture(), 0644))

	cfg := testConfig(t)
	cfg.BundleDir = dir

	app, err := NewApp(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close(ctx)

	assert.Equal(t, "fixture", app.title)
	assert.Equal(t, uint32(16), app.width)
	assert.Equal(t, uint32(16), app.height)
	require.NotNil(t, app.pattern)
	assert.Equal(t, frame.PatternSolid, *app.pattern)

	require.NoError(t, app.Run(ctx))
	assert.FileExists(t, canvas.FramePath(cfg.Canvas.OutputDir, 3))
}

func TestAppConfigOverridesBundle(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	manifest := "name: fixture\nversion: 1.0.0\nwasm:\n  file: engine.wasm\ncanvas:\n  width: 16\n  height: 16\npattern: solid\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, bundle.ManifestFile), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine.wasm"), wasmtest.FrameFixture(), 0644))

	cfg := testConfig(t)
	cfg.BundleDir = dir
	cfg.Canvas.Width, cfg.Canvas.Height = 4, 4
	cfg.Loop.Pattern = "xor"

	app, err := NewApp(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close(ctx)

	assert.Equal(t, uint32(4), app.width)
	assert.Equal(t, frame.PatternXOR, *app.pattern)
}

func TestAppRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)

	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "module_path or bundle_dir")
}

func TestAppRejectsUnknownPattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModulePath = writeModule(t)
	cfg.Loop.Pattern = "plasma"

	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "plasma")
}

func TestAppMissingModule(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModulePath = filepath.Join(t.TempDir(), "missing.wasm")

	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestAppRunOverBudgetCanvas(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.ModulePath = writeModule(t)
	cfg.Canvas.Width, cfg.Canvas.Height = 64, 64

	app, err := NewApp(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer app.Close(ctx)

	// The fixture's budget is far below 64x64.
	assert.Error(t, app.Run(ctx))
}
