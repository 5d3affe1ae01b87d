package visualization

import (
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const tabWidth = 4

var (
	faultStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"})
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})

	highlighter = formatters.Get("terminal256")
	theme       = styles.Get("monokai")
)

// sanitize makes untrusted payload text safe to print: escape sequences are
// dropped, tabs expanded and other control characters replaced.
func sanitize(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	col := 0
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
			col = 0
		case r == '\t':
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case unicode.IsControl(r):
			b.WriteRune('�')
			col++
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// paragraph wraps text to width, breaking on word boundaries where possible
// and inside words where not. A non-positive width disables wrapping.
func paragraph(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	lines := strings.Split(ansi.Wrap(text, width, ""), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// highlight colours source with the named chroma lexer. It returns one entry
// per source line and falls back to the plain lines if highlighting fails.
func highlight(source, lexer string) []string {
	plain := strings.Split(source, "\n")

	l := lexers.Get(lexer)
	if l == nil || highlighter == nil {
		return plain
	}
	it, err := chroma.Coalesce(l).Tokenise(nil, source)
	if err != nil {
		return plain
	}
	var b strings.Builder
	if err := highlighter.Format(&b, theme, it); err != nil {
		return plain
	}
	lines := strings.Split(b.String(), "\n")
	if len(lines) > len(plain) {
		lines = lines[:len(plain)]
	}
	return lines
}

// Document is formatted source text. Fault is set when the payload could not
// be formatted; Text then holds the best-effort raw rendering.
type Document struct {
	Lexer string
	Text  string
	Fault string
}

func renderDocument(doc Document, width int) []string {
	if doc.Fault != "" {
		lines := []string{faultStyle.Render(Placeholder(doc.Fault))}
		if doc.Text == "" {
			return lines
		}
		return append(lines, paragraph(doc.Text, width)...)
	}
	if doc.Lexer == "" {
		return paragraph(doc.Text, width)
	}
	return highlight(doc.Text, doc.Lexer)
}
