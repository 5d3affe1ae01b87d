package visualization

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// JSONViewModel presents a payload as indented JSON. Comments and trailing
// commas are tolerated and dropped.
type JSONViewModel struct {
	src telemetry.Source
}

func NewJSONViewModel(src telemetry.Source) *JSONViewModel {
	return &JSONViewModel{src: src}
}

func (vm *JSONViewModel) Presentation() Document {
	msg := current(vm.src)
	if msg == nil {
		return Document{Fault: "no message"}
	}
	raw := bytes.TrimSpace(msg.Bytes)
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		if json.Indent(&buf, jsonc.ToJSON(raw), "", "  ") != nil {
			return Document{Fault: "invalid json: " + err.Error(), Text: sanitize(string(msg.Bytes))}
		}
	}
	return Document{Lexer: "json", Text: strings.TrimRight(buf.String(), " \t\r\n")}
}

// YAMLViewModel presents a payload as re-indented YAML.
type YAMLViewModel struct {
	src telemetry.Source
}

func NewYAMLViewModel(src telemetry.Source) *YAMLViewModel {
	return &YAMLViewModel{src: src}
}

func (vm *YAMLViewModel) Presentation() Document {
	msg := current(vm.src)
	if msg == nil {
		return Document{Fault: "no message"}
	}
	raw := sanitize(string(msg.Bytes))

	var node yaml.Node
	if err := yaml.Unmarshal(msg.Bytes, &node); err != nil {
		return Document{Fault: "invalid yaml: " + err.Error(), Text: raw}
	}
	if node.Kind == 0 {
		return Document{Fault: "empty document"}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return Document{Fault: "invalid yaml: " + err.Error(), Text: raw}
	}
	if err := enc.Close(); err != nil {
		return Document{Fault: "invalid yaml: " + err.Error(), Text: raw}
	}
	return Document{Lexer: "yaml", Text: strings.TrimRight(buf.String(), "\n")}
}

// CBORViewModel presents a payload in CBOR diagnostic notation, one line per
// item of a CBOR sequence.
type CBORViewModel struct {
	src telemetry.Source
}

func NewCBORViewModel(src telemetry.Source) *CBORViewModel {
	return &CBORViewModel{src: src}
}

func (vm *CBORViewModel) Presentation() Document {
	msg := current(vm.src)
	if msg == nil {
		return Document{Fault: "no message"}
	}
	if len(msg.Bytes) == 0 {
		return Document{Fault: "empty payload"}
	}

	var items []string
	remaining := msg.Bytes
	for len(remaining) > 0 {
		notation, rest, err := cbor.DiagnoseFirst(remaining)
		if err != nil {
			offset := len(msg.Bytes) - len(remaining)
			return Document{
				Fault: fmt.Sprintf("invalid cbor at byte %d: %v", offset, err),
				Text:  strings.TrimRight(hex.Dump(msg.Bytes), "\n"),
			}
		}
		items = append(items, notation)
		remaining = rest
	}
	return Document{Text: strings.Join(items, "\n")}
}

// NewJSONView, NewYAMLView and NewCBORView share renderDocument.
func NewJSONView(src telemetry.Source) View {
	return NewView(telemetry.TagJSON, NewJSONViewModel(src), renderDocument)
}

func NewYAMLView(src telemetry.Source) View {
	return NewView(telemetry.TagYAML, NewYAMLViewModel(src), renderDocument)
}

func NewCBORView(src telemetry.Source) View {
	return NewView(telemetry.TagCBOR, NewCBORViewModel(src), renderDocument)
}
