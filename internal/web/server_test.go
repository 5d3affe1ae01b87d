package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwafle/pubtail/internal/telemetry"
)

func newTestServer(max int) (*Server, *telemetry.Store) {
	store := telemetry.NewStore(max)
	return New(Options{Store: store, Poll: 10 * time.Millisecond}), store
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func add(store *telemetry.Store, topic, tag, payload string) {
	store.Add(telemetry.Message{Topic: topic, Tag: tag, Bytes: []byte(payload), Timestamp: time.Now()})
}

func TestTopicsJSON(t *testing.T) {
	s, store := newTestServer(0)
	add(store, "chat", telemetry.TagText, "hello")
	add(store, "cfg", telemetry.TagJSON, `{"a":1}`)

	rec := get(t, s, "/topics")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []topicInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "chat", got[0].Name)
	assert.Equal(t, telemetry.TagText, got[0].Tag)
	assert.Equal(t, 5, got[0].Size)
	assert.Equal(t, "cfg", got[1].Name)
}

func TestHomeListsTopics(t *testing.T) {
	s, store := newTestServer(0)
	rec := get(t, s, "/")
	assert.Contains(t, rec.Body.String(), "waiting for messages")

	add(store, "a<b", telemetry.TagText, "x")
	rec = get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a&lt;b")
	assert.NotContains(t, rec.Body.String(), "a<b")
}

func TestTopicFragment(t *testing.T) {
	s, store := newTestServer(0)
	add(store, "cfg", telemetry.TagJSON, `{"a":1}`)

	rec := get(t, s, "/topics/cfg")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-kind="json"`)
	assert.Contains(t, body, "&#34;a&#34;: 1")
	assert.NotContains(t, body, "\x1b[")
}

func TestTopicPlainText(t *testing.T) {
	s, store := newTestServer(0)
	add(store, "chat", telemetry.TagText, "hello world")

	rec := get(t, s, "/topics/chat?format=text&width=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello\nworld\n", rec.Body.String())
}

func TestTopicErrors(t *testing.T) {
	s, store := newTestServer(0)
	add(store, "chat", telemetry.TagText, "hello")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/topics/missing").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/topics/chat?width=wide").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/topics/chat?width=0").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/topics/missing/stream").Code)
}

// readEvent collects lines up to the blank line ending one event.
func readEvent(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	ev := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return ev
		}
		k, v, _ := strings.Cut(line, ": ")
		ev[k] += v
	}
}

func TestStreamPushesUpdates(t *testing.T) {
	s, store := newTestServer(1)
	add(store, "chat", telemetry.TagText, "first")

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/topics/chat/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	ev := readEvent(t, r)
	assert.Equal(t, "1", ev["id"])
	assert.Equal(t, telemetry.TagText, ev["event"])
	assert.Contains(t, ev["data"], "first")

	add(store, "chat", telemetry.TagText, "second")
	ev = readEvent(t, r)
	assert.Equal(t, "2", ev["id"])
	assert.Contains(t, ev["data"], "second")

	add(store, "other", telemetry.TagText, "evicts chat")
	ev = readEvent(t, r)
	assert.Equal(t, "evicted", ev["event"])
	assert.Equal(t, "chat", ev["data"])
}

func TestStreamEndsWhenTopicIsReplaced(t *testing.T) {
	s, store := newTestServer(1)
	add(store, "a", telemetry.TagText, "first")

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/topics/a/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	ev := readEvent(t, r)
	assert.Contains(t, ev["data"], "first")

	add(store, "b", telemetry.TagText, "evicts a")
	add(store, "a", telemetry.TagText, "second")

	ev = readEvent(t, r)
	assert.Equal(t, "evicted", ev["event"])
	assert.Equal(t, "a", ev["data"])
}

func TestEventMarshal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Event{ID: 7, Data: []byte("a\nb"), Event: []byte("text")}).MarshalTo(&buf))
	assert.Equal(t, "id: 7\nevent: text\ndata: a\ndata: b\n\n", buf.String())

	buf.Reset()
	require.NoError(t, (&Event{Comment: []byte("keepalive")}).MarshalTo(&buf))
	assert.Equal(t, ": keepalive\n\n", buf.String())

	buf.Reset()
	require.NoError(t, (&Event{}).MarshalTo(&buf))
	assert.Empty(t, buf.String())
}
