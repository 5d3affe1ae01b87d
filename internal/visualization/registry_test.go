package visualization

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwafle/pubtail/internal/telemetry"
)

func TestRegister(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register("Text", NewTextView))
	_, ok := r.Lookup("text")
	assert.True(t, ok)

	err := r.Register(" text ", NewTextView)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "already registered")

	err = r.Register("nil", nil)
	assert.ErrorIs(t, err, ErrNilFactory)

	err = r.Alias("words", "missing")
	assert.ErrorIs(t, err, ErrUnknownTag)

	require.NoError(t, r.Alias("words", "text"))
	assert.Equal(t, []string{"text", "words"}, r.Tags())
}

func TestResolveIsTotal(t *testing.T) {
	r := Default()
	for _, tag := range []string{"", "unknown", "image/png", "protobuf:pb.Foo", "+", "json+", "x+gzip"} {
		t.Run(tag, func(t *testing.T) {
			_, ok := r.Lookup(tag)
			assert.False(t, ok)

			f := r.Resolve(tag)
			require.NotNil(t, f)
			v := f(pin(tag, []byte{1, 2, 3}))
			require.NotNil(t, v)
			assert.Equal(t, telemetry.TagBinary, v.Kind())
		})
	}
}

func TestCustomFallback(t *testing.T) {
	r := NewRegistry(NewTextView)
	assert.Equal(t, telemetry.TagText, r.Open(pin("whatever", []byte("x"))).Kind())
	assert.Equal(t, telemetry.TagText, r.Open(nil).Kind())
}

func TestAliases(t *testing.T) {
	r := Default()
	tests := map[string]string{
		"string":           telemetry.TagText,
		"std::string":      telemetry.TagText,
		"APPLICATION/JSON": telemetry.TagJSON,
		"yml":              telemetry.TagYAML,
		"application/cbor": telemetry.TagCBOR,
	}
	for alias, want := range tests {
		assert.Equal(t, want, r.Open(pin(alias, nil)).Kind(), alias)
	}
}

func TestOpenBindsOnce(t *testing.T) {
	slot := telemetry.NewSlot(telemetry.Message{Tag: "json", Bytes: []byte(`{"a":1}`)})
	v := Default().Open(slot)
	require.Equal(t, telemetry.TagJSON, v.Kind())

	slot.Store(telemetry.Message{Tag: "text", Bytes: []byte("not json")})
	assert.Equal(t, telemetry.TagJSON, v.Kind())
	lines := stripped(v.Render(40))
	assert.Contains(t, lines[0], "invalid json")
}

func TestCompressedPayloads(t *testing.T) {
	body := []byte(`{"compressed":true}`)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstdBody := enc.EncodeAll(body, nil)
	require.NoError(t, enc.Close())

	var lz4Body bytes.Buffer
	w := lz4.NewWriter(&lz4Body)
	_, err = w.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	tests := []struct {
		tag     string
		payload []byte
	}{
		{tag: "json+zstd", payload: zstdBody},
		{tag: "JSON+LZ4", payload: lz4Body.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			v := Default().Open(pin(tt.tag, tt.payload))
			assert.Equal(t, telemetry.TagJSON, v.Kind())
			assert.Equal(t, []string{"{", `  "compressed": true`, "}"}, stripped(v.Render(40)))
		})
	}
}

func TestCompressedUnknownBaseFallsBack(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	payload := enc.EncodeAll([]byte("hi"), nil)
	require.NoError(t, enc.Close())

	v := Default().Open(pin("mystery+zstd", payload))
	assert.Equal(t, telemetry.TagBinary, v.Kind())
	assert.Contains(t, stripped(v.Render(80))[0], "|hi|")
}

func TestUndecodableCompressedPassesThrough(t *testing.T) {
	src := decodedSource{inner: pin("text+zstd", []byte("plain")), decode: unzstd}
	assert.Equal(t, "plain", string(src.Snapshot().Bytes))
	assert.Nil(t, decodedSource{inner: telemetry.Pin(nil), decode: unzstd}.Snapshot())
}
