package ui

import "github.com/jwafle/pubtail/internal/telemetry"

// cursor tracks the selected topic by name so the selection survives topics
// being added or evicted around it.
type cursor struct {
	index int
	topic string
}

func (c *cursor) reset() {
	c.index = 0
	c.topic = ""
}

// move shifts the selection by delta rows, stopping at either end.
func (c *cursor) move(delta int, topics []telemetry.Topic) {
	if len(topics) == 0 {
		c.reset()
		return
	}
	c.index = min(max(c.index+delta, 0), len(topics)-1)
	c.topic = topics[c.index].Name
}

// sync re-finds the selected topic after the list changed. When the topic is
// gone the selection stays on the same row.
func (c *cursor) sync(topics []telemetry.Topic) {
	if len(topics) == 0 {
		c.reset()
		return
	}
	for i, t := range topics {
		if t.Name == c.topic {
			c.index = i
			return
		}
	}
	c.move(0, topics)
}
