package engine

import (
	"math"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
)

// Pattern selects the generative function used to paint a frame.
type Pattern uint32

const (
	// PatternSine adds the frame counter to sin(x)*255 + sin(y)*255.
	PatternSine = Pattern(frame.PatternSine)
	// PatternXOR shifts the x^y texture by the frame counter.
	PatternXOR = Pattern(frame.PatternXOR)
	// PatternSolid paints every pixel magenta and ignores time.
	PatternSolid = Pattern(frame.PatternSolid)
)

const (
	opaque  uint32 = 0xFF_00_00_00
	magenta uint32 = 0xFF_FF_00_FF

	// initialColor is opaque black.
	initialColor = opaque
)

// Valid reports whether p names a known pattern.
func (p Pattern) Valid() bool {
	return p <= PatternSolid
}

func (p Pattern) String() string {
	switch p {
	case PatternSine:
		return "sine"
	case PatternXOR:
		return "xor"
	case PatternSolid:
		return "solid"
	default:
		return "unknown"
	}
}

// ParsePattern maps a pattern name to its id.
func ParsePattern(name string) (Pattern, error) {
	switch name {
	case "", "sine":
		return PatternSine, nil
	case "xor":
		return PatternXOR, nil
	case "solid":
		return PatternSolid, nil
	default:
		return 0, ErrUnknownPattern
	}
}

// sineTable returns sin(i)*255 for i in [0, n). Wasm has no sin
// instruction, so the values are computed once per Initialize.
func sineTable(n uint32) []float32 {
	t := make([]float32, n)
	for i := range t {
		t[i] = float32(math.Sin(float64(i))) * 255
	}
	return t
}

// saturate converts like a saturating float->int cast: negative and NaN
// become 0.
func saturate(v float32) uint32 {
	if !(v > 0) {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// Pixel computes the packed color of one pixel. The packed value is stored
// little-endian, so the low byte is red and the high byte is alpha.
// width and height are part of the signature so every pattern is a pure
// function of the same inputs.
func Pixel(p Pattern, x, y, frameNo, width, height uint32) uint32 {
	switch p {
	case PatternXOR:
		return ((x ^ y) + frameNo) | opaque
	case PatternSolid:
		return magenta
	default:
		// Explicit conversions keep each product rounded to float32, the
		// same values sineTable stores.
		v := float32(float32(math.Sin(float64(x)))*255) + float32(float32(math.Sin(float64(y)))*255)
		return (frameNo + saturate(v)) | opaque
	}
}
