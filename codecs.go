package restful

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"gopkg.in/yaml.v3"
)

// Content types with a built-in parser and/or renderer.
const (
	MIMEJSON          = "application/json"
	MIMEXML           = "application/xml"
	MIMEYAML          = "application/yaml"
	MIMECBOR          = "application/cbor"
	MIMEMsgpack       = "application/msgpack"
	MIMEForm          = "application/x-www-form-urlencoded"
	MIMEPHPSerialized = "application/php-serialized"
)

func builtinParsers() map[string]Parser {
	return map[string]Parser{
		MIMEJSON:          ParseJSON,
		MIMEXML:           ParseXML,
		MIMEYAML:          ParseYAML,
		MIMECBOR:          ParseCBOR,
		MIMEMsgpack:       ParseMsgpack,
		MIMEForm:          ParseForm,
		MIMEPHPSerialized: ParsePHP,
	}
}

func builtinRenderers() []Renderer {
	return []Renderer{
		RendererFunc(MIMEJSON, RenderJSON),
		RendererFunc(MIMEXML, RenderXML),
		RendererFunc(MIMEYAML, RenderYAML),
		RendererFunc(MIMECBOR, RenderCBOR),
		RendererFunc(MIMEMsgpack, RenderMsgpack),
		PHPObjectRenderer{},
	}
}

// ParseJSON decodes a single JSON document. Integral numbers become int64,
// the rest float64.
func ParseJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	}
	return v
}

// RenderJSON encodes data as JSON followed by a newline.
func RenderJSON(data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseYAML decodes a single YAML document.
func ParseYAML(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// RenderYAML encodes data as a YAML document.
func RenderYAML(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseForm decodes an application/x-www-form-urlencoded body. Keys with a
// single value map to a string, repeated keys to a []any of strings.
func ParseForm(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, s := range vs {
			list[i] = s
		}
		out[k] = list
	}
	return out, nil
}
