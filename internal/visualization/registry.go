package visualization

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jwafle/pubtail/internal/telemetry"
)

var (
	ErrDuplicate  = errors.New("visualizer already registered")
	ErrNilFactory = errors.New("visualizer factory cannot be nil")
	ErrUnknownTag = errors.New("no visualizer registered for tag")
)

// Factory builds the view for one payload kind around a message source.
type Factory func(src telemetry.Source) View

// Registry maps declared type tags to visualizers. Resolution is total: tags
// without a registration resolve to the fallback.
type Registry struct {
	factories map[string]Factory
	fallback  Factory
}

// NewRegistry returns an empty registry. A nil fallback means hex dump.
func NewRegistry(fallback Factory) *Registry {
	if fallback == nil {
		fallback = NewBinaryView
	}
	return &Registry{factories: make(map[string]Factory), fallback: fallback}
}

// Default returns a registry with every built-in visualizer.
func Default() *Registry {
	r := NewRegistry(NewBinaryView)
	builtins := []struct {
		tag     string
		factory Factory
	}{
		{telemetry.TagText, NewTextView},
		{telemetry.TagJSON, NewJSONView},
		{telemetry.TagYAML, NewYAMLView},
		{telemetry.TagCBOR, NewCBORView},
		{telemetry.TagBinary, NewBinaryView},
		{telemetry.TagOTLPLogs, NewOTLPLogsView},
		{telemetry.TagOTLPMetrics, NewOTLPMetricsView},
		{telemetry.TagOTLPTraces, NewOTLPTracesView},
	}
	for _, b := range builtins {
		if err := r.Register(b.tag, b.factory); err != nil {
			panic(err)
		}
	}
	aliases := map[string]string{
		"string":           telemetry.TagText,
		"std::string":      telemetry.TagText,
		"text/plain":       telemetry.TagText,
		"application/json": telemetry.TagJSON,
		"application/yaml": telemetry.TagYAML,
		"yml":              telemetry.TagYAML,
		"application/cbor": telemetry.TagCBOR,
		"bytes":            telemetry.TagBinary,
	}
	for alias, tag := range aliases {
		if err := r.Alias(alias, tag); err != nil {
			panic(err)
		}
	}
	return r
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Register binds tag to f.
func (r *Registry) Register(tag string, f Factory) error {
	if f == nil {
		return fmt.Errorf("%q: %w", tag, ErrNilFactory)
	}
	tag = normalize(tag)
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%q: %w", tag, ErrDuplicate)
	}
	r.factories[tag] = f
	return nil
}

// Alias makes alias resolve to the visualizer already registered for tag.
func (r *Registry) Alias(alias, tag string) error {
	f, ok := r.factories[normalize(tag)]
	if !ok {
		return fmt.Errorf("alias %q for %q: %w", alias, tag, ErrUnknownTag)
	}
	return r.Register(alias, f)
}

// Tags lists the registered tags in order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Lookup reports the factory registered for tag, without falling back.
// A compression suffix such as "+zstd" is honoured.
func (r *Registry) Lookup(tag string) (Factory, bool) {
	tag = normalize(tag)
	if f, ok := r.factories[tag]; ok {
		return f, true
	}
	base, suffix, found := cut(tag)
	if !found {
		return nil, false
	}
	decode, ok := codecs[suffix]
	if !ok {
		return nil, false
	}
	inner := r.Resolve(base)
	return func(src telemetry.Source) View {
		return inner(decodedSource{inner: src, decode: decode})
	}, true
}

// cut splits "json+zstd" into "json" and "zstd".
func cut(tag string) (base, suffix string, ok bool) {
	i := strings.LastIndexByte(tag, '+')
	if i < 0 {
		return tag, "", false
	}
	return tag[:i], tag[i+1:], true
}

// Resolve returns the factory for tag, or the fallback.
func (r *Registry) Resolve(tag string) Factory {
	if f, ok := r.Lookup(tag); ok {
		return f
	}
	return r.fallback
}

// Open builds the view for the message src currently holds. The view stays
// bound to src; callers reopen when a later snapshot declares another tag.
func (r *Registry) Open(src telemetry.Source) View {
	var tag string
	if msg := current(src); msg != nil {
		tag = msg.Tag
	}
	return r.Resolve(tag)(src)
}
