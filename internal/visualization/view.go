// Package visualization turns message payloads into scrollable terminal views.
//
// Each payload kind contributes a ViewModel, which projects the current
// message snapshot into a presentation value, and a RenderFunc, which lays
// that value out as lines. NewView binds the pair to a scroll.Scroller, so
// every kind shares the same scrolling and layout behaviour. A Registry maps
// declared type tags to the constructor for the right pair.
package visualization

import (
	"fmt"

	"github.com/jwafle/pubtail/internal/telemetry"
	"github.com/jwafle/pubtail/internal/ui/scroll"
)

// Width and height a View assumes until the layout sizes it.
const (
	defaultWidth  = 50
	defaultHeight = 10
)

// ViewModel projects the message it wraps into a presentation value. Calls
// must be free of side effects and must reflect the current snapshot.
type ViewModel[T any] interface {
	Presentation() T
}

// RenderFunc lays a presentation out as lines for the given width.
type RenderFunc[T any] func(p T, width int) []string

// View is what every visualizer looks like to the application shell.
type View interface {
	// Kind names the visualizer, e.g. "json".
	Kind() string
	// DataView is the rendered content wrapped in its scroller.
	DataView() *scroll.Scroller
	// Render lays the content out without clipping it.
	Render(width int) []string
}

// binding pairs a view model with the render function for its presentation.
type binding[T any] struct {
	vm     ViewModel[T]
	render RenderFunc[T]
}

// Lines implements scroll.Content. A panic anywhere in the projection or
// layout is turned into a placeholder so one bad payload cannot take the
// frame down.
func (b binding[T]) Lines(width int) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			lines = []string{Placeholder(fmt.Sprintf("render failed: %v", r))}
		}
	}()
	return b.render(b.vm.Presentation(), width)
}

type view[T any] struct {
	kind     string
	binding  binding[T]
	scroller *scroll.Scroller
}

// NewView binds vm to render. The binding is fixed for the life of the view.
func NewView[T any](kind string, vm ViewModel[T], render RenderFunc[T]) View {
	b := binding[T]{vm: vm, render: render}
	return &view[T]{
		kind:     kind,
		binding:  b,
		scroller: scroll.NewScroller(b, defaultWidth, defaultHeight),
	}
}

func (v *view[T]) Kind() string               { return v.kind }
func (v *view[T]) DataView() *scroll.Scroller { return v.scroller }
func (v *view[T]) Render(width int) []string  { return v.binding.Lines(width) }

// Placeholder formats a stand-in for content that could not be shown.
func Placeholder(reason string) string {
	return "<" + reason + ">"
}

// current returns the source's snapshot, tolerating a nil source.
func current(src telemetry.Source) *telemetry.Message {
	if src == nil {
		return nil
	}
	return src.Snapshot()
}
