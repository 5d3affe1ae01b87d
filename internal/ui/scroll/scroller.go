package scroll

import tea "github.com/charmbracelet/bubbletea"

// Content produces the lines to scroll over, laid out for a given width.
// Lines must not contain newlines.
type Content interface {
	Lines(width int) []string
}

// Scroller is a Viewport bound to the content it clips. It is the component
// a parent layout composes: size it, route input to it, render it.
type Scroller struct {
	vp      *Viewport
	content Content
}

func NewScroller(content Content, width, height int) *Scroller {
	return &Scroller{vp: New(width, height), content: content}
}

func (s *Scroller) Viewport() *Viewport { return s.vp }

func (s *Scroller) SetSize(width, height int) { s.vp.SetSize(width, height) }

// Update measures the content before applying msg, so input that arrives
// ahead of the first frame is still bounded by it.
func (s *Scroller) Update(msg tea.Msg) tea.Cmd {
	s.vp.Measure(s.content.Lines(s.vp.Size().Width))
	return s.vp.Update(msg)
}

// Frame lays the content out at the visible width and clips it.
func (s *Scroller) Frame() Frame {
	return s.vp.Render(s.content.Lines(s.vp.Size().Width))
}

func (s *Scroller) View() string { return s.Frame().String() }
