package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/wasm/wasmtest"
)

const validManifest = `name: sine-demo
version: 1.0.0
description: scrolling sine interference
wasm:
  file: engine.wasm
  size: 64
canvas:
  width: 320
  height: 240
pattern: xor
`

// writeBundle creates a bundle directory with the given manifest and,
// when wasmBytes is not nil, engine.wasm.
func writeBundle(t *testing.T, manifest string, wasmBytes []byte) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	if wasmBytes != nil {
		if err := os.WriteFile(filepath.Join(dir, "engine.wasm"), wasmBytes, 0644); err != nil {
			t.Fatalf("Failed to write wasm: %v", err)
		}
	}
	return dir
}

func TestParseManifest_Valid(t *testing.T) {
	dir := writeBundle(t, validManifest, wasmtest.FrameFixture())

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	if manifest.Name != "sine-demo" {
		t.Errorf("expected Name 'sine-demo', got '%s'", manifest.Name)
	}

	if manifest.Version != "1.0.0" {
		t.Errorf("expected Version '1.0.0', got '%s'", manifest.Version)
	}

	if manifest.Wasm.File != "engine.wasm" || manifest.Wasm.Size != 64 {
		t.Errorf("unexpected wasm config: %+v", manifest.Wasm)
	}

	if manifest.Canvas.Width != 320 || manifest.Canvas.Height != 240 {
		t.Errorf("expected canvas 320x240, got %dx%d", manifest.Canvas.Width, manifest.Canvas.Height)
	}

	if manifest.PatternID() != frame.PatternXOR {
		t.Errorf("expected pattern id %d, got %d", frame.PatternXOR, manifest.PatternID())
	}
}

func TestParseManifest_DefaultPattern(t *testing.T) {
	dir := writeBundle(t, "name: a\nversion: 0.1.0\nwasm:\n  file: engine.wasm\n", wasmtest.FrameFixture())

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	if manifest.PatternID() != frame.PatternSine {
		t.Errorf("expected sine pattern, got %d", manifest.PatternID())
	}
	if manifest.Canvas.Width != 0 || manifest.Canvas.Height != 0 {
		t.Errorf("expected no canvas size, got %dx%d", manifest.Canvas.Width, manifest.Canvas.Height)
	}
}

func TestParseManifest_NotFound(t *testing.T) {
	_, err := ParseManifest(filepath.Join(t.TempDir(), "nonexistent"))
	if err == nil {
		t.Fatal("ParseManifest() should fail for nonexistent directory")
	}

	var notFound *ManifestNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected ManifestNotFoundError, got %T", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("ManifestNotFoundError should unwrap to os.ErrNotExist")
	}
}

func TestParseManifest_InvalidYAML(t *testing.T) {
	dir := writeBundle(t, "name: [unterminated\n", nil)

	_, err := ParseManifest(dir)

	var parseErr *ManifestParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected ManifestParseError, got %T", err)
	}
}

func TestParseManifest_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		field    string
	}{
		{
			name:     "missing name",
			manifest: "version: 1.0.0\nwasm:\n  file: engine.wasm\n",
			field:    "name",
		},
		{
			name:     "missing version",
			manifest: "name: a\nwasm:\n  file: engine.wasm\n",
			field:    "version",
		},
		{
			name:     "missing wasm file",
			manifest: "name: a\nversion: 1.0.0\n",
			field:    "wasm.file",
		},
		{
			name:     "half a canvas",
			manifest: "name: a\nversion: 1.0.0\nwasm:\n  file: engine.wasm\ncanvas:\n  width: 10\n",
			field:    "canvas",
		},
		{
			name:     "canvas over budget",
			manifest: "name: a\nversion: 1.0.0\nwasm:\n  file: engine.wasm\ncanvas:\n  width: 601\n  height: 600\n",
			field:    "canvas",
		},
		{
			name:     "unknown pattern",
			manifest: "name: a\nversion: 1.0.0\nwasm:\n  file: engine.wasm\npattern: plasma\n",
			field:    "pattern",
		},
		{
			name:     "module larger than declared",
			manifest: "name: a\nversion: 1.0.0\nwasm:\n  file: engine.wasm\n  size: 1\n",
			field:    "wasm.size",
		},
	}

	// Larger than 1 KB, so the size check can trip.
	wasmBytes := append(wasmtest.FrameFixture(), make([]byte, 2048)...)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeBundle(t, tt.manifest, wasmBytes)

			_, err := ParseManifest(dir)

			var validationErr *ManifestValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ManifestValidationError, got %T (%v)", err, err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected Field '%s', got '%s'", tt.field, validationErr.Field)
			}
		})
	}
}

func TestParseManifest_WasmNotFound(t *testing.T) {
	dir := writeBundle(t, validManifest, nil)

	_, err := ParseManifest(dir)

	var notFound *WasmNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected WasmNotFoundError, got %T", err)
	}
	if notFound.WasmFile != "engine.wasm" {
		t.Errorf("expected WasmFile 'engine.wasm', got '%s'", notFound.WasmFile)
	}
}

func TestManifest_Paths(t *testing.T) {
	dir := writeBundle(t, validManifest, wasmtest.FrameFixture())

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	if manifest.Path() != filepath.Join(dir, "manifest.yaml") {
		t.Errorf("unexpected Path '%s'", manifest.Path())
	}
	if manifest.WasmPath() != filepath.Join(dir, "engine.wasm") {
		t.Errorf("unexpected WasmPath '%s'", manifest.WasmPath())
	}
	if manifest.Dir() != dir {
		t.Errorf("expected Dir '%s', got '%s'", dir, manifest.Dir())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&ManifestValidationError{Path: "b/manifest.yaml", Field: "name", Message: "name is required"},
			"manifest validation failed at 'b/manifest.yaml': name is required (field: name)",
		},
		{
			&ManifestValidationError{Path: "b/manifest.yaml", Message: "bad"},
			"manifest validation failed at 'b/manifest.yaml': bad",
		},
		{
			&WasmNotFoundError{ManifestPath: "b/manifest.yaml", WasmFile: "engine.wasm"},
			"Wasm file 'engine.wasm' not found (referenced in manifest 'b/manifest.yaml')",
		},
		{
			&BundleLoadError{BundleName: "demo", Err: errors.New("boom")},
			"failed to load bundle 'demo': boom",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
