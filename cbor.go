package restful

import (
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

type cborModes struct {
	enc cbor.EncMode
	dec cbor.DecMode
	err error
}

// cborMode builds the canonical encoder and a decoder whose maps decode to
// map[string]any, matching the other built-in parsers.
var cborMode = sync.OnceValue(func() cborModes {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return cborModes{err: err}
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeFor[map[string]any](),
	}.DecMode()
	if err != nil {
		return cborModes{err: err}
	}
	return cborModes{enc: em, dec: dm}
})

// ParseCBOR decodes a single CBOR data item.
func ParseCBOR(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	m := cborMode()
	if m.err != nil {
		return nil, m.err
	}
	var v any
	if err := m.dec.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// RenderCBOR encodes data as canonical CBOR.
func RenderCBOR(data any) ([]byte, error) {
	m := cborMode()
	if m.err != nil {
		return nil, m.err
	}
	return m.enc.Marshal(data)
}
