package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(topic, body string, at time.Time) Message {
	return Message{Topic: topic, Tag: TagText, Bytes: []byte(body), Timestamp: at}
}

func TestStoreKeepsLatestPerTopic(t *testing.T) {
	s := NewStore(0)
	t0 := time.Unix(100, 0)

	s.Add(msgAt("a", "one", t0))
	s.Add(msgAt("b", "two", t0.Add(time.Second)))
	s.Add(msgAt("a", "three", t0.Add(2*time.Second)))

	topics := s.Topics()
	require.Len(t, topics, 2)
	assert.Equal(t, "a", topics[0].Name)
	assert.Equal(t, "b", topics[1].Name)
	assert.Equal(t, 2, topics[0].Count)
	assert.Equal(t, "three", string(topics[0].Slot.Snapshot().Bytes))
	assert.Equal(t, t0.Add(2*time.Second), topics[0].Updated)
}

func TestStoreEvictsLeastRecentlyUpdated(t *testing.T) {
	s := NewStore(2)
	t0 := time.Unix(100, 0)

	assert.Empty(t, s.Add(msgAt("a", "1", t0)))
	assert.Empty(t, s.Add(msgAt("b", "1", t0.Add(time.Second))))
	assert.Empty(t, s.Add(msgAt("a", "2", t0.Add(2*time.Second))))

	evicted := s.Add(msgAt("c", "1", t0.Add(3*time.Second)))
	assert.Equal(t, "b", evicted)
	assert.Equal(t, 2, s.Len())

	_, ok := s.Get("b")
	assert.False(t, ok)
	c, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, 1, c.Count)
}

func TestSlotSnapshotsAreImmutable(t *testing.T) {
	body := []byte("original")
	slot := NewSlot(Message{Topic: "t", Bytes: body})
	before := slot.Snapshot()

	body[0] = 'X'
	slot.Store(Message{Topic: "t", Bytes: []byte("replaced")})

	assert.Equal(t, "original", string(before.Bytes))
	assert.Equal(t, "replaced", string(slot.Snapshot().Bytes))
	assert.Equal(t, uint64(2), slot.Seq())
}

func TestSlotConcurrentReaders(t *testing.T) {
	slot := NewSlot(Message{Bytes: []byte("aaaa")})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				slot.Store(Message{Bytes: []byte("bbbb")})
			} else {
				slot.Store(Message{Bytes: []byte("aaaa")})
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		got := string(slot.Snapshot().Bytes)
		assert.Contains(t, []string{"aaaa", "bbbb"}, got)
	}
	wg.Wait()
}

func TestPin(t *testing.T) {
	m := &Message{Topic: "x"}
	assert.Same(t, m, Pin(m).Snapshot())
	assert.Nil(t, Pin(nil).Snapshot())
	assert.Equal(t, 0, Pin(nil).Snapshot().Size())
}
