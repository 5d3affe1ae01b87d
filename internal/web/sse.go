package web

import (
	"bytes"
	"fmt"
	"io"
)

// Event is one server-sent event frame.
type Event struct {
	ID      uint64
	Data    []byte
	Event   []byte
	Retry   []byte
	Comment []byte
}

// MarshalTo writes e in text/event-stream framing. An event with neither data
// nor a comment writes nothing.
func (e *Event) MarshalTo(w io.Writer) error {
	if len(e.Data) == 0 && len(e.Comment) == 0 {
		return nil
	}

	if len(e.Data) > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", e.ID); err != nil {
			return err
		}
		if len(e.Event) > 0 {
			if _, err := fmt.Fprintf(w, "event: %s\n", e.Event); err != nil {
				return err
			}
		}
		sd := bytes.Split(e.Data, []byte("\n"))
		for i := range sd {
			if _, err := fmt.Fprintf(w, "data: %s\n", sd[i]); err != nil {
				return err
			}
		}
		if len(e.Retry) > 0 {
			if _, err := fmt.Fprintf(w, "retry: %s\n", e.Retry); err != nil {
				return err
			}
		}
	}

	if len(e.Comment) > 0 {
		if _, err := fmt.Fprintf(w, ": %s\n", e.Comment); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return err
	}

	return nil
}
