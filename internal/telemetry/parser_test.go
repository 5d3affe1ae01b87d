package telemetry

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	otlpLogs    = `{"resourceLogs":[{"resource":{},"scopeLogs":[{"logRecords":[{"severityText":"INFO","body":{"stringValue":"hello"}}]}]}]}`
	otlpMetrics = `{"resourceMetrics":[{"resource":{},"scopeMetrics":[{"metrics":[{"name":"requests","sum":{"dataPoints":[{"asInt":"5"}]}}]}]}]}`
	otlpTraces  = `{"resourceSpans":[{"resource":{},"scopeSpans":[{"spans":[{"traceId":"5b8efff798038103d269b633813fc60c","spanId":"eee19b7ec3c1b174","name":"GET /"}]}]}]}`
)

func TestClassify(t *testing.T) {
	structured, err := cbor.Marshal(map[string]any{"a": 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: nil, want: TagText},
		{name: "plain text", data: []byte("hello world"), want: TagText},
		{name: "multi line text", data: []byte("a\tb\r\nc"), want: TagText},
		{name: "json object", data: []byte(`{"a":1}`), want: TagJSON},
		{name: "json number", data: []byte(`42`), want: TagJSON},
		{name: "otlp logs", data: []byte(otlpLogs), want: TagOTLPLogs},
		{name: "otlp metrics", data: []byte(otlpMetrics), want: TagOTLPMetrics},
		{name: "otlp traces", data: []byte(otlpTraces), want: TagOTLPTraces},
		{name: "cbor map", data: structured, want: TagCBOR},
		{name: "control bytes", data: []byte{0x00, 0x01, 0x02, 0xff}, want: TagBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.data))
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		frame     string
		wantTopic string
		wantTag   string
		wantBytes string
	}{
		{
			name:      "string payload with declared type",
			frame:     `{"topic":"chat","type":"TEXT","payload":"hi there"}`,
			wantTopic: "chat",
			wantTag:   "text",
			wantBytes: "hi there",
		},
		{
			name:      "object payload is classified",
			frame:     `{"topic":"cfg","payload":{"a":1}}`,
			wantTopic: "cfg",
			wantTag:   TagJSON,
			wantBytes: `{"a":1}`,
		},
		{
			name:      "base64 payload",
			frame:     `{"topic":"raw","type":"binary","encoding":"base64","payload":"AAEC"}`,
			wantTopic: "raw",
			wantTag:   TagBinary,
			wantBytes: "\x00\x01\x02",
		},
		{
			name:      "bad base64 keeps the string",
			frame:     `{"topic":"raw","encoding":"base64","payload":"@@"}`,
			wantTopic: "raw",
			wantTag:   TagText,
			wantBytes: "@@",
		},
		{
			name:      "object without topic is a bare frame",
			frame:     `{"payload":"x"}`,
			wantTopic: DefaultTopic,
			wantTag:   TagJSON,
			wantBytes: `{"payload":"x"}`,
		},
		{
			name:      "bare text frame",
			frame:     "just words",
			wantTopic: DefaultTopic,
			wantTag:   TagText,
			wantBytes: "just words",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseAt([]byte(tt.frame), now)
			assert.Equal(t, tt.wantTopic, m.Topic)
			assert.Equal(t, tt.wantTag, m.Tag)
			assert.Equal(t, tt.wantBytes, string(m.Bytes))
			assert.Equal(t, now, m.Timestamp)
		})
	}
}

func TestParseStampsArrival(t *testing.T) {
	before := time.Now()
	m := Parse([]byte("x"))
	assert.False(t, m.Timestamp.Before(before))
}
