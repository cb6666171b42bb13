package engine

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
)

const testBase = 0x10000

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(make([]byte, frame.MaxBufferBytes), testBase)
}

func advance(t *testing.T, e *Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.AdvanceFrame())
	}
}

func TestInitialize_BufferLength(t *testing.T) {
	sizes := []struct{ w, h uint32 }{
		{1, 1}, {4, 4}, {16, 9}, {600, 600}, {1, 360000}, {360000, 1},
	}

	for _, s := range sizes {
		e := newTestEngine(t)
		require.NoError(t, e.Initialize(s.w, s.h), "%dx%d", s.w, s.h)
		assert.Equal(t, s.w*s.h*4, e.BufferLength())
		assert.Equal(t, uint32(testBase), e.BufferPointer())
		assert.Equal(t, uint32(0), e.Frame())
	}
}

func TestInitialize_InitialFrame(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(4, 4))

	pix := e.Pixels()
	require.Len(t, pix, 64)
	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xFF}, pix[i:i+4], "pixel %d", i/4)
	}
}

func TestInitialize_ExceedsBudget(t *testing.T) {
	cases := []struct{ w, h uint32 }{
		{601, 600},
		{600, 601},
		{math.MaxUint32, math.MaxUint32},
		// 2^16 * 2^16 * 4 wraps to 0 in 32 bits.
		{1 << 16, 1 << 16},
	}

	for _, c := range cases {
		e := newTestEngine(t)
		err := e.Initialize(c.w, c.h)
		require.Error(t, err)

		var initErr *InitializationError
		require.ErrorAs(t, err, &initErr)
		assert.Equal(t, frame.MaxBufferBytes, initErr.Budget)

		assert.Equal(t, frame.InvalidPointer, e.BufferPointer())
		assert.Equal(t, uint32(0), e.BufferLength())
		assert.ErrorIs(t, e.AdvanceFrame(), ErrPoisoned)
		assert.ErrorIs(t, e.Initialize(1, 1), ErrPoisoned)
		assert.ErrorIs(t, e.SelectPattern(PatternXOR), ErrPoisoned)

		// Accessors stay consistent on repeated calls.
		assert.Equal(t, frame.InvalidPointer, e.BufferPointer())
		assert.Equal(t, uint32(0), e.BufferLength())
	}
}

func TestInitialize_ZeroSize(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(0, 0))
	assert.Equal(t, uint32(0), e.BufferLength())
	assert.Equal(t, uint32(testBase), e.BufferPointer())

	for i := 0; i < 5; i++ {
		require.NoError(t, e.AdvanceFrame())
	}
	assert.Empty(t, e.Pixels())
	assert.Equal(t, uint32(5), e.Frame())
}

func TestAdvanceFrame_NotInitialized(t *testing.T) {
	e := newTestEngine(t)
	assert.ErrorIs(t, e.AdvanceFrame(), ErrNotInitialized)
	assert.Equal(t, frame.InvalidPointer, e.BufferPointer())
	assert.Equal(t, uint32(0), e.BufferLength())
}

func TestAdvanceFrame_ChangesEveryPixel(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(4, 4))
	initial := bytes.Clone(e.Pixels())

	require.NoError(t, e.AdvanceFrame())
	pix := e.Pixels()

	for i := 0; i < len(pix); i += 4 {
		assert.NotEqual(t, initial[i:i+4], pix[i:i+4], "pixel %d unchanged", i/4)
		assert.Equal(t, byte(0xFF), pix[i+3], "pixel %d not opaque", i/4)
	}
}

func TestAdvanceFrame_Deterministic(t *testing.T) {
	run := func(n int) []byte {
		e := newTestEngine(t)
		require.NoError(t, e.Initialize(32, 17))
		advance(t, e, n)
		return bytes.Clone(e.Pixels())
	}

	for _, n := range []int{1, 2, 7, 60} {
		assert.Equal(t, run(n), run(n), "N=%d", n)
	}
}

func TestAdvanceFrame_MatchesPixelFunction(t *testing.T) {
	for _, p := range []Pattern{PatternSine, PatternXOR, PatternSolid} {
		e := newTestEngine(t)
		require.NoError(t, e.Initialize(23, 11))
		require.NoError(t, e.SelectPattern(p))
		advance(t, e, 3)

		pix := e.Pixels()
		for y := uint32(0); y < 11; y++ {
			for x := uint32(0); x < 23; x++ {
				off := (y*23 + x) * 4
				got := binary.LittleEndian.Uint32(pix[off:])
				want := Pixel(p, x, y, 3, 23, 11)
				require.Equal(t, want, got, "pattern %s at (%d,%d)", p, x, y)
			}
		}
	}
}

func TestAdvanceFrame_SineOrigin(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(2, 2))
	advance(t, e, 1)

	// sin(0) = 0, so the origin holds just the frame counter.
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0xFF}, e.Pixels()[0:4])
}

func TestAdvanceFrame_SplitTicking(t *testing.T) {
	const n = 25
	for m := 0; m <= n; m += 5 {
		whole := newTestEngine(t)
		require.NoError(t, whole.Initialize(8, 8))
		advance(t, whole, n)

		split := newTestEngine(t)
		require.NoError(t, split.Initialize(8, 8))
		advance(t, split, m)
		advance(t, split, n-m)

		assert.Equal(t, whole.Frame(), split.Frame(), "M=%d", m)
		assert.Equal(t, whole.Pixels(), split.Pixels(), "M=%d", m)
	}
}

func TestAdvanceFrame_CounterWraps(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(1, 1))
	e.frame = math.MaxUint32

	require.NoError(t, e.AdvanceFrame())
	assert.Equal(t, uint32(0), e.Frame())
}

func TestAdvanceFrame_StableBuffer(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(64, 48))

	ptr, length := e.BufferPointer(), e.BufferLength()
	data := &e.Pixels()[0]

	advance(t, e, 10)

	assert.Equal(t, ptr, e.BufferPointer())
	assert.Equal(t, length, e.BufferLength())
	assert.Same(t, data, &e.Pixels()[0])
}

func TestAdvanceFrame_NoAllocations(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(32, 32))

	allocs := testing.AllocsPerRun(20, func() {
		_ = e.AdvanceFrame()
	})
	assert.Zero(t, allocs)
}

func TestInitialize_Reinitialize(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(10, 10))
	advance(t, e, 4)

	require.NoError(t, e.Initialize(20, 5))
	assert.Equal(t, uint32(0), e.Frame())
	assert.Equal(t, uint32(20*5*4), e.BufferLength())
	assert.Equal(t, uint32(testBase), e.BufferPointer())
}

func TestIndependentInstances(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)
	require.NoError(t, a.Initialize(4, 4))
	require.NoError(t, b.Initialize(4, 4))

	advance(t, a, 3)
	assert.Equal(t, uint32(3), a.Frame())
	assert.Equal(t, uint32(0), b.Frame())
	assert.NotEqual(t, a.Pixels(), b.Pixels())
}

func TestSelectPattern(t *testing.T) {
	e := newTestEngine(t)
	assert.ErrorIs(t, e.SelectPattern(Pattern(7)), ErrUnknownPattern)
	assert.Equal(t, PatternSine, e.Pattern())

	require.NoError(t, e.SelectPattern(PatternSolid))
	require.NoError(t, e.Initialize(2, 1))
	advance(t, e, 1)
	assert.Equal(t, []byte{0xFF, 0x00, 0xFF, 0xFF, 0xFF, 0x00, 0xFF, 0xFF}, e.Pixels())
}

func TestParsePattern(t *testing.T) {
	for name, want := range map[string]Pattern{"": PatternSine, "sine": PatternSine, "xor": PatternXOR, "solid": PatternSolid} {
		got, err := ParsePattern(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParsePattern("plasma")
	assert.ErrorIs(t, err, ErrUnknownPattern)
}

func TestDescriptor(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Initialize(3, 2))

	d := e.Descriptor()
	assert.Equal(t, uint32(3), d.Width)
	assert.Equal(t, uint32(2), d.Height)
	assert.Equal(t, uint32(testBase), d.Pointer)
	assert.True(t, d.Consistent())
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, uint32(0), saturate(-3.5))
	assert.Equal(t, uint32(0), saturate(float32(math.NaN())))
	assert.Equal(t, uint32(509), saturate(509.9))
}
