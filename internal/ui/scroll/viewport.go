// Package scroll clips arbitrarily sized terminal content to a fixed window
// and keeps the scroll position inside the content.
package scroll

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// Offset is the top-left cell of the visible window within the content.
type Offset struct{ X, Y int }

// Size is a width/height pair in terminal cells.
type Size struct{ Width, Height int }

// Frame is exactly Size.Height lines of exactly Size.Width cells each.
type Frame struct {
	Size
	Lines []string
}

func (f Frame) String() string { return strings.Join(f.Lines, "\n") }

// KeyMap extends the bubbles viewport bindings with jumps to either end.
type KeyMap struct {
	viewport.KeyMap
	Top, Bottom key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyMap: viewport.DefaultKeyMap(),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	}
}

// Viewport owns a two-axis scroll offset over content it does not know the
// shape of. The offset on each axis always stays within
// [0, max(0, content-visible)]; requests outside that range are clamped.
type Viewport struct {
	KeyMap          KeyMap
	MouseWheelDelta int
	HorizontalStep  int

	visible Size
	content Size
	offset  Offset
}

func New(width, height int) *Viewport {
	v := &Viewport{
		KeyMap:          DefaultKeyMap(),
		MouseWheelDelta: 3,
		HorizontalStep:  4,
	}
	v.SetSize(width, height)
	return v
}

// SetSize sets the visible window, normally from the parent layout.
func (v *Viewport) SetSize(width, height int) {
	v.visible = Size{Width: max(0, width), Height: max(0, height)}
	v.clamp()
}

func (v *Viewport) Size() Size        { return v.visible }
func (v *Viewport) ContentSize() Size { return v.content }
func (v *Viewport) Offset() Offset    { return v.offset }

// Scroll moves the window by dx columns and dy lines.
func (v *Viewport) Scroll(dx, dy int) {
	hi := v.maxOffset()
	v.offset.X = step(v.offset.X, dx, hi.X)
	v.offset.Y = step(v.offset.Y, dy, hi.Y)
}

func (v *Viewport) GotoTop()    { v.offset.Y = 0 }
func (v *Viewport) GotoBottom() { v.offset.Y = v.maxOffset().Y }

func (v *Viewport) AtTop() bool    { return v.offset.Y == 0 }
func (v *Viewport) AtBottom() bool { return v.offset.Y >= v.maxOffset().Y }

// ScrollPercent reports how far down the content the window is, in [0, 1].
func (v *Viewport) ScrollPercent() float64 {
	hi := v.maxOffset().Y
	if hi == 0 {
		return 1
	}
	return float64(v.offset.Y) / float64(hi)
}

// Measure records the size of content and re-clamps the offset.
func (v *Viewport) Measure(lines []string) Size {
	width := 0
	for _, l := range lines {
		width = max(width, ansi.StringWidth(l))
	}
	v.content = Size{Width: width, Height: len(lines)}
	v.clamp()
	return v.content
}

// Render measures lines and returns the part of them under the window,
// padded with blanks to the full visible size.
func (v *Viewport) Render(lines []string) Frame {
	v.Measure(lines)
	out := make([]string, v.visible.Height)
	for i := range out {
		var line string
		if row := v.offset.Y + i; row < len(lines) {
			line = lines[row]
		}
		out[i] = fit(line, v.offset.X, v.visible.Width)
	}
	return Frame{Size: v.visible, Lines: out}
}

// Update translates key and mouse-wheel input into scrolling.
func (v *Viewport) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		half := max(1, v.visible.Height/2)
		switch {
		case key.Matches(msg, v.KeyMap.PageDown):
			v.Scroll(0, max(1, v.visible.Height))
		case key.Matches(msg, v.KeyMap.PageUp):
			v.Scroll(0, -max(1, v.visible.Height))
		case key.Matches(msg, v.KeyMap.HalfPageDown):
			v.Scroll(0, half)
		case key.Matches(msg, v.KeyMap.HalfPageUp):
			v.Scroll(0, -half)
		case key.Matches(msg, v.KeyMap.Down):
			v.Scroll(0, 1)
		case key.Matches(msg, v.KeyMap.Up):
			v.Scroll(0, -1)
		case key.Matches(msg, v.KeyMap.Right):
			v.Scroll(v.HorizontalStep, 0)
		case key.Matches(msg, v.KeyMap.Left):
			v.Scroll(-v.HorizontalStep, 0)
		case key.Matches(msg, v.KeyMap.Top):
			v.GotoTop()
		case key.Matches(msg, v.KeyMap.Bottom):
			v.GotoBottom()
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			v.Scroll(0, v.MouseWheelDelta)
		case tea.MouseButtonWheelUp:
			v.Scroll(0, -v.MouseWheelDelta)
		case tea.MouseButtonWheelRight:
			v.Scroll(v.HorizontalStep, 0)
		case tea.MouseButtonWheelLeft:
			v.Scroll(-v.HorizontalStep, 0)
		}
	}
	return nil
}

func (v *Viewport) maxOffset() Offset {
	return Offset{
		X: max(0, v.content.Width-v.visible.Width),
		Y: max(0, v.content.Height-v.visible.Height),
	}
}

func (v *Viewport) clamp() {
	hi := v.maxOffset()
	v.offset.X = min(max(0, v.offset.X), hi.X)
	v.offset.Y = min(max(0, v.offset.Y), hi.Y)
}

// step adds d to a in [0, hi] without overflowing on huge deltas.
func step(a, d, hi int) int {
	if d >= 0 {
		if d > hi-a {
			return hi
		}
		return a + d
	}
	if d < -a {
		return 0
	}
	return a + d
}

func fit(line string, x, width int) string {
	if width == 0 {
		return ""
	}
	// A wide rune straddling the left edge is replaced by blanks; one
	// straddling the right edge is dropped by the final truncate.
	lead := 0
	if x > 0 && ansi.StringWidth(line) > x {
		lead = x - ansi.StringWidth(ansi.Truncate(line, x, ""))
	}
	cut := ansi.Truncate(ansi.Cut(line, x+lead, x+width), max(0, width-lead), "")
	cut = strings.Repeat(" ", lead) + cut
	if pad := width - ansi.StringWidth(cut); pad > 0 {
		cut += strings.Repeat(" ", pad)
	}
	return cut
}
