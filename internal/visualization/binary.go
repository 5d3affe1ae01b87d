package visualization

import (
	"encoding/hex"
	"strings"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// offsetWidth is the width of the offset column in hex.Dump output.
const offsetWidth = 8

// BinaryViewModel presents any payload as a canonical hex dump. It is the
// fallback for tags without a dedicated visualizer.
type BinaryViewModel struct {
	src telemetry.Source
}

func NewBinaryViewModel(src telemetry.Source) *BinaryViewModel {
	return &BinaryViewModel{src: src}
}

func (vm *BinaryViewModel) Presentation() []string {
	msg := current(vm.src)
	switch {
	case msg == nil:
		return []string{Placeholder("no message")}
	case len(msg.Bytes) == 0:
		return []string{Placeholder("empty payload")}
	}
	return strings.Split(strings.TrimRight(hex.Dump(msg.Bytes), "\n"), "\n")
}

// renderHexDump dims the offset column. Dumps are fixed width, so they are
// scrolled horizontally rather than wrapped.
func renderHexDump(lines []string, _ int) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) > offsetWidth && !strings.HasPrefix(l, "<") {
			out[i] = gutterStyle.Render(l[:offsetWidth]) + l[offsetWidth:]
			continue
		}
		out[i] = l
	}
	return out
}

func NewBinaryView(src telemetry.Source) View {
	return NewView(telemetry.TagBinary, NewBinaryViewModel(src), renderHexDump)
}
