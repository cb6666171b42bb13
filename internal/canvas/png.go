package canvas

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// PNGSink is a headless canvas writing every Nth frame to a PNG file.
type PNGSink struct {
	dir     string
	width   uint32
	height  uint32
	every   uint64
	count   uint64
	written int
	logger  *zap.Logger
}

// NewPNGSink creates dir if needed. every <= 0 writes every frame.
func NewPNGSink(dir string, width, height uint32, every int, logger *zap.Logger) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	if every <= 0 {
		every = 1
	}
	return &PNGSink{
		dir:    dir,
		width:  width,
		height: height,
		every:  uint64(every),
		logger: logger.With(zap.String("component", "png-sink")),
	}, nil
}

// Size returns the canvas dimensions in pixels.
func (s *PNGSink) Size() (uint32, uint32) {
	return s.width, s.height
}

// Paint encodes the frame when it falls on the configured interval.
func (s *PNGSink) Paint(img *image.RGBA) error {
	s.count++
	if (s.count-1)%s.every != 0 {
		return nil
	}

	path := FramePath(s.dir, s.count)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.written++
	s.logger.Debug("Frame written", zap.String("path", path), zap.Uint64("frame", s.count))
	return nil
}

// Written returns the number of files written so far.
func (s *PNGSink) Written() int {
	return s.written
}

// FramePath returns the file a frame number is written to.
func FramePath(dir string, frameNo uint64) string {
	return filepath.Join(dir, fmt.Sprintf("frame-%06d.png", frameNo))
}
