package telemetry

import (
	"bytes"
	"sync/atomic"
	"time"
)

// Message is an immutable snapshot of one published payload. Once a Message
// has been handed to a Source it must not be modified.
type Message struct {
	Topic     string
	Tag       string // declared payload kind, e.g. "text", "json", "otlp.logs"
	Bytes     []byte
	Timestamp time.Time
}

// Size returns the payload length in bytes.
func (m *Message) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Bytes)
}

// Source hands out the current snapshot of a message. Readers call Snapshot on
// every redraw; a nil result means no message has arrived yet.
type Source interface {
	Snapshot() *Message
}

// Slot holds the latest snapshot for a topic. Writers replace the whole
// snapshot, so readers observe either the old or the new message, never a mix.
type Slot struct {
	p   atomic.Pointer[Message]
	seq atomic.Uint64
}

// NewSlot returns a slot primed with m.
func NewSlot(m Message) *Slot {
	s := &Slot{}
	s.Store(m)
	return s
}

// Store publishes a copy of m as the slot's current snapshot.
func (s *Slot) Store(m Message) {
	m.Bytes = bytes.Clone(m.Bytes)
	s.p.Store(&m)
	s.seq.Add(1)
}

func (s *Slot) Snapshot() *Message { return s.p.Load() }

// Seq counts the snapshots published so far.
func (s *Slot) Seq() uint64 { return s.seq.Load() }

type pinned struct{ m *Message }

func (p pinned) Snapshot() *Message { return p.m }

// Pin returns a Source that always yields m.
func Pin(m *Message) Source { return pinned{m: m} }
