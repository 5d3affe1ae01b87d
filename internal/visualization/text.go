package visualization

import "github.com/jwafle/pubtail/internal/telemetry"

// TextViewModel presents a payload as printable text.
type TextViewModel struct {
	src telemetry.Source
}

func NewTextViewModel(src telemetry.Source) *TextViewModel {
	return &TextViewModel{src: src}
}

// Presentation decodes the payload as UTF-8. Invalid sequences and control
// characters are replaced rather than rejected.
func (vm *TextViewModel) Presentation() string {
	msg := current(vm.src)
	if msg == nil {
		return Placeholder("no message")
	}
	return sanitize(string(msg.Bytes))
}

func renderText(text string, width int) []string {
	return paragraph(text, width)
}

// NewTextView shows the payload as a wrapped paragraph.
func NewTextView(src telemetry.Source) View {
	return NewView(telemetry.TagText, NewTextViewModel(src), renderText)
}
