package canvas

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/woxQAQ/bare-metal-canvas/api/frame"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in
// the background, so one cell shows two pixel rows.
const upperHalf = "▀"

// statusRows is the number of text rows the viewer reserves below the frame.
const statusRows = 2

// Sender delivers messages to a running bubbletea program.
type Sender interface {
	Send(msg tea.Msg)
}

// Terminal paints frames as colored half-block cells.
type Terminal struct {
	width  uint32
	height uint32
	out    Sender
	frames uint64
}

// NewTerminal creates a terminal canvas that forwards rendered frames to out.
func NewTerminal(width, height uint32, out Sender) *Terminal {
	return &Terminal{width: width, height: height, out: out}
}

// Size returns the canvas dimensions in pixels.
func (t *Terminal) Size() (uint32, uint32) {
	return t.width, t.height
}

// Paint renders the frame and sends it to the viewer.
func (t *Terminal) Paint(img *image.RGBA) error {
	t.frames++
	t.out.Send(FrameMsg{View: Render(img), Frame: t.frames})
	return nil
}

// Render converts an image to half-block text. The result does not alias img.
func Render(img *image.RGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(img.RGBAAt(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(img.RGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// TerminalSize returns a canvas size filling the terminal attached to fd.
func TerminalSize(fd int) (uint32, uint32, error) {
	if !term.IsTerminal(fd) {
		return 0, 0, fmt.Errorf("fd %d is not a terminal", fd)
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get terminal size: %w", err)
	}
	w, h := FitTerminal(cols, rows)
	return w, h, nil
}

// FitTerminal converts a terminal size in cells to a canvas size in pixels,
// leaving room for the status line and staying within the buffer budget.
func FitTerminal(cols, rows int) (uint32, uint32) {
	rows -= statusRows
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}

	width := uint32(cols)
	height := uint32(rows) * 2
	if width > frame.MaxBufferBytes/frame.BytesPerPixel {
		width = frame.MaxBufferBytes / frame.BytesPerPixel
	}
	if limit := uint32(frame.MaxBufferBytes / frame.BytesPerPixel / width); height > limit {
		height = limit
	}
	return width, height
}
