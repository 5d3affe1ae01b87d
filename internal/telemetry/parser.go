// internal/telemetry/parser.go
package telemetry

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	plog "go.opentelemetry.io/collector/pdata/plog"
	pmetric "go.opentelemetry.io/collector/pdata/pmetric"
	ptrace "go.opentelemetry.io/collector/pdata/ptrace"
)

// Well-known payload tags. Any other tag is legal; the visualization layer
// falls back to a hex dump for tags it does not know.
const (
	TagText        = "text"
	TagJSON        = "json"
	TagYAML        = "yaml"
	TagCBOR        = "cbor"
	TagBinary      = "binary"
	TagOTLPLogs    = "otlp.logs"
	TagOTLPMetrics = "otlp.metrics"
	TagOTLPTraces  = "otlp.traces"
)

// DefaultTopic is assigned to frames that do not carry an envelope.
const DefaultTopic = "default"

// envelope is the optional JSON wrapper a publisher bridge may put around a
// payload to name its topic and type.
type envelope struct {
	Topic    string          `json:"topic"`
	Type     string          `json:"type"`
	Encoding string          `json:"encoding,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// Parse turns a raw websocket frame into a Message stamped with the current
// time. It never returns an error; frames it cannot make sense of become
// binary payloads on the default topic.
func Parse(data []byte) Message {
	return parseAt(data, time.Now())
}

func parseAt(data []byte, now time.Time) Message {
	if env, ok := unwrap(data); ok {
		payload := env.payload()
		tag := strings.ToLower(strings.TrimSpace(env.Type))
		if tag == "" {
			tag = Classify(payload)
		}
		return Message{Topic: env.Topic, Tag: tag, Bytes: payload, Timestamp: now}
	}
	return Message{Topic: DefaultTopic, Tag: Classify(data), Bytes: data, Timestamp: now}
}

func unwrap(data []byte) (envelope, bool) {
	var env envelope
	if json.Unmarshal(data, &env) != nil {
		return env, false
	}
	if env.Topic == "" || len(env.Payload) == 0 {
		return env, false
	}
	return env, true
}

// payload returns the envelope body as bytes. String payloads are unquoted
// and, with "encoding":"base64", decoded; anything else is kept as raw JSON.
func (e envelope) payload() []byte {
	var s string
	if json.Unmarshal(e.Payload, &s) != nil {
		return []byte(e.Payload)
	}
	if strings.EqualFold(e.Encoding, "base64") {
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			return b
		}
	}
	return []byte(s)
}

// Classify guesses a tag for an untagged payload.
func Classify(data []byte) string {
	if len(data) == 0 {
		return TagText
	}

	if json.Valid(data) {
		// OTLP ------------------------------------------------------------
		if logs, err := (&plog.JSONUnmarshaler{}).UnmarshalLogs(data); err == nil &&
			logs.ResourceLogs().Len() > 0 {
			return TagOTLPLogs
		}
		if metrics, err := (&pmetric.JSONUnmarshaler{}).UnmarshalMetrics(data); err == nil &&
			metrics.ResourceMetrics().Len() > 0 {
			return TagOTLPMetrics
		}
		if traces, err := (&ptrace.JSONUnmarshaler{}).UnmarshalTraces(data); err == nil &&
			traces.ResourceSpans().Len() > 0 {
			return TagOTLPTraces
		}
		return TagJSON
	}

	if isText(data) {
		return TagText
	}

	// Only structured CBOR counts; a lone byte is almost always valid CBOR.
	var v any
	if cbor.Unmarshal(data, &v) == nil {
		switch v.(type) {
		case map[any]any, map[string]any, []any:
			return TagCBOR
		}
	}

	return TagBinary
}

func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
