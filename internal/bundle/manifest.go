package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
	"github.com/woxQAQ/bare-metal-canvas/internal/engine"
	"github.com/woxQAQ/bare-metal-canvas/pkg/protocol"
)

// ManifestFile is the manifest file name inside a bundle directory.
const ManifestFile = "manifest.yaml"

// Manifest represents the bundle manifest.yaml structure.
type Manifest struct {
	Name        string       `yaml:"name"`
	Version     string       `yaml:"version"`
	Description string       `yaml:"description"`
	Wasm        WasmConfig   `yaml:"wasm"`
	Canvas      CanvasConfig `yaml:"canvas"`
	Pattern     string       `yaml:"pattern"`

	// Internal fields
	dir string // Directory containing manifest
}

// WasmConfig holds Wasm module configuration.
type WasmConfig struct {
	File string `yaml:"file"`
	Size int    `yaml:"size"` // KB, upper bound on the module file when set
}

// CanvasConfig is the canvas size a bundle was made for. Zero means the
// host decides.
type CanvasConfig struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return m.invalid("name", "name is required")
	}

	if m.Version == "" {
		return m.invalid("version", "version is required")
	}

	if m.Wasm.File == "" {
		return m.invalid("wasm.file", "wasm.file is required")
	}

	if (m.Canvas.Width == 0) != (m.Canvas.Height == 0) {
		return m.invalid("canvas", "canvas.width and canvas.height must be set together")
	}
	if need := protocol.ExpectedLength(m.Canvas.Width, m.Canvas.Height); need > frame.MaxBufferBytes {
		return m.invalid("canvas", fmt.Sprintf("canvas %dx%d needs %d bytes, exceeds pixel budget of %d bytes",
			m.Canvas.Width, m.Canvas.Height, need, frame.MaxBufferBytes))
	}

	if _, err := engine.ParsePattern(m.Pattern); err != nil {
		return m.invalid("pattern", fmt.Sprintf("unknown pattern: %s (must be one of: sine, xor, solid)", m.Pattern))
	}

	info, err := os.Stat(m.WasmPath())
	if errors.Is(err, os.ErrNotExist) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", m.WasmPath(), err)
	}

	if m.Wasm.Size > 0 && info.Size() > int64(m.Wasm.Size)*1024 {
		return m.invalid("wasm.size", fmt.Sprintf("%s is %d bytes, larger than the declared %d KB",
			m.Wasm.File, info.Size(), m.Wasm.Size))
	}

	return nil
}

func (m *Manifest) invalid(field, message string) error {
	return &ManifestValidationError{
		Path:    m.Path(),
		Field:   field,
		Message: message,
	}
}

// PatternID returns the pattern id to select, defaulting to sine.
func (m *Manifest) PatternID() uint32 {
	p, _ := engine.ParsePattern(m.Pattern)
	return uint32(p)
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFile)
}

// WasmPath returns the path to the Wasm file.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
