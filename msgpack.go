package restful

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// ParseMsgpack decodes a single MessagePack value. Maps decode to
// map[string]any.
func ParseMsgpack(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	r := bytes.NewReader(raw)
	dec := msgpack.NewDecoder(r)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, errors.New("msgpack: unexpected data after top-level value")
	}
	return v, nil
}

// RenderMsgpack encodes data as MessagePack. Struct fields fall back to
// their json tag when no msgpack tag is present.
func RenderMsgpack(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
