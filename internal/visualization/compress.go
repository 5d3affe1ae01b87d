package visualization

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// maxDecoded caps the size of a decompressed payload.
const maxDecoded = 64 << 20

// codecs maps a tag suffix ("json+zstd") to its decoder.
var codecs = map[string]func([]byte) ([]byte, error){
	"zstd": unzstd,
	"lz4":  unlz4,
}

var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecoded), zstd.WithDecoderConcurrency(1))

func unzstd(b []byte) ([]byte, error) {
	if zstdDecoder == nil {
		return nil, fmt.Errorf("zstd decoder unavailable")
	}
	return zstdDecoder.DecodeAll(b, nil)
}

func unlz4(b []byte) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(lz4.NewReader(bytes.NewReader(b)), maxDecoded+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxDecoded {
		return nil, fmt.Errorf("lz4: payload exceeds %d bytes", maxDecoded)
	}
	return out, nil
}

// decodedSource decompresses each snapshot of its inner source. When a
// payload does not decode it is passed through untouched, and the inner view
// model's own fallback takes over.
type decodedSource struct {
	inner  telemetry.Source
	decode func([]byte) ([]byte, error)
}

func (s decodedSource) Snapshot() *telemetry.Message {
	msg := current(s.inner)
	if msg == nil {
		return nil
	}
	out, err := s.decode(msg.Bytes)
	if err != nil {
		return msg
	}
	decoded := *msg
	decoded.Bytes = out
	return &decoded
}
