package web

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// message renders one topic's current view as a <pre> fragment.
func message(topic, kind string, lines []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<pre class="message" data-topic="%s" data-kind="%s">%s</pre>`,
			templ.EscapeString(topic),
			templ.EscapeString(kind),
			templ.EscapeString(strings.Join(lines, "\n")),
		)
		return err
	})
}

// index lists every topic with a link to its live stream.
func index(topics []topicInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>pubtail</title></head><body>\n")
		b.WriteString("<h1>pubtail</h1>\n")
		if len(topics) == 0 {
			b.WriteString("<p>waiting for messages…</p>\n")
		}
		b.WriteString("<ul>\n")
		for _, t := range topics {
			fmt.Fprintf(&b, "<li><a href=\"/topics/%s\">%s</a> <code>%s</code> %d msgs, %s, %s</li>\n",
				url.PathEscape(t.Name),
				templ.EscapeString(t.Name),
				templ.EscapeString(t.Tag),
				t.Count,
				humanize.IBytes(uint64(t.Size)),
				humanize.Time(t.Updated),
			)
		}
		b.WriteString("</ul>\n</body></html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
