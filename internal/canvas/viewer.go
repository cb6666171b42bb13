package canvas

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// FrameMsg carries one rendered frame to the viewer.
type FrameMsg struct {
	View  string
	Frame uint64
}

type keyMap struct {
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Viewer is the bubbletea model showing the latest frame. It takes no
// animation input; the only key it handles is quit.
type Viewer struct {
	title    string
	keys     keyMap
	view     string
	frames   uint64
	quitting bool
	onQuit   func()
}

// NewViewer creates a viewer. onQuit runs once when the user quits.
func NewViewer(title string, onQuit func()) *Viewer {
	return &Viewer{
		title:  title,
		keys:   defaultKeyMap(),
		onQuit: onQuit,
	}
}

// Init implements tea.Model.
func (v *Viewer) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Quit) && !v.quitting {
			v.quitting = true
			if v.onQuit != nil {
				v.onQuit()
			}
			return v, tea.Quit
		}
	case FrameMsg:
		v.view = msg.View
		v.frames = msg.Frame
	}
	return v, nil
}

// View implements tea.Model.
func (v *Viewer) View() string {
	if v.quitting {
		return ""
	}
	help := v.keys.Quit.Help()
	status := statusStyle.Render(fmt.Sprintf("frame %d  %s %s", v.frames, help.Key, help.Desc))
	return v.view + "\n" + titleStyle.Render(v.title) + " " + status
}

// Frames returns the number of the last frame received.
func (v *Viewer) Frames() uint64 {
	return v.frames
}
