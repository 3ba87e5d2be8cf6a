package phpserial

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ErrEncoding is returned (wrapped) when a value has no PHP representation.
var ErrEncoding = errors.New("phpserial: cannot encode value")

var (
	objectType        = reflect.TypeFor[Object]()
	objectPtrType     = reflect.TypeFor[*Object]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Marshal returns the PHP serialization of v.
func Marshal(v any) ([]byte, error) {
	e := &encoder{seen: make(map[seenKey]struct{})}
	if err := e.encode(reflect.ValueOf(v), "$"); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// seenKey identifies a container currently on the encoding stack.
type seenKey struct {
	ptr uintptr
	len int
}

type encoder struct {
	buf  bytes.Buffer
	seen map[seenKey]struct{}
}

func (e *encoder) encode(v reflect.Value, path string) error {
	if !v.IsValid() {
		e.buf.WriteString("N;")
		return nil
	}

	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			e.buf.WriteString("N;")
			return nil
		}
	}

	switch v.Type() {
	case objectPtrType:
		return e.encodeObject(v.Interface().(*Object), path)
	case objectType:
		obj := v.Interface().(Object)
		return e.encodeObject(&obj, path)
	}

	if v.Type().Implements(textMarshalerType) && v.CanInterface() {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEncoding, path, err)
		}
		e.writeString(string(text))
		return nil
	}

	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Interface:
		return e.encode(v.Elem(), path)
	case reflect.Pointer:
		key := seenKey{ptr: v.Pointer()}
		if err := e.enter(key, path); err != nil {
			return err
		}
		defer e.leave(key)
		return e.encode(v.Elem(), path)
	case reflect.Bool:
		if v.Bool() {
			e.buf.WriteString("b:1;")
		} else {
			e.buf.WriteString("b:0;")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		if n > math.MaxInt64 {
			// PHP integers are signed 64-bit; larger values become floats.
			e.writeFloat(float64(n), 64)
			return nil
		}
		e.writeInt(int64(n))
	case reflect.Float32:
		e.writeFloat(v.Float(), 32)
	case reflect.Float64:
		e.writeFloat(v.Float(), 64)
	case reflect.String:
		e.writeString(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.writeString(string(v.Bytes()))
			return nil
		}
		key := seenKey{ptr: v.Pointer(), len: v.Len()}
		if err := e.enter(key, path); err != nil {
			return err
		}
		defer e.leave(key)
		return e.encodeList(v, path)
	case reflect.Array:
		return e.encodeList(v, path)
	case reflect.Map:
		key := seenKey{ptr: v.Pointer()}
		if err := e.enter(key, path); err != nil {
			return err
		}
		defer e.leave(key)
		return e.encodeMap(v, path)
	case reflect.Struct:
		obj, err := structObject(v, path)
		if err != nil {
			return err
		}
		return e.encodeObject(obj, path)
	default:
		return fmt.Errorf("%w: %s: unsupported type %s", ErrEncoding, path, v.Type())
	}
	return nil
}

func (e *encoder) enter(key seenKey, path string) error {
	if _, ok := e.seen[key]; ok {
		return fmt.Errorf("%w: %s: circular reference", ErrEncoding, path)
	}
	e.seen[key] = struct{}{}
	return nil
}

func (e *encoder) leave(key seenKey) { delete(e.seen, key) }

func (e *encoder) encodeList(v reflect.Value, path string) error {
	n := v.Len()
	fmt.Fprintf(&e.buf, "a:%d:{", n)
	for i := range n {
		e.writeInt(int64(i))
		if err := e.encode(v.Index(i), path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) encodeMap(v reflect.Value, path string) error {
	keys, err := sortedKeys(v, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(&e.buf, "a:%d:{", len(keys))
	for _, k := range keys {
		if n, ok := arrayIndex(k.name); ok {
			e.writeInt(n)
		} else {
			e.writeString(k.name)
		}
		if err := e.encode(v.MapIndex(k.value), path+"."+k.name); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) encodeObject(obj *Object, path string) error {
	class := obj.className()
	fmt.Fprintf(&e.buf, "O:%d:\"%s\":%d:{", len(class), class, len(obj.Fields))
	for _, f := range obj.Fields {
		e.writeString(f.Name)
		if err := e.encode(reflect.ValueOf(f.Value), path+"."+f.Name); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) writeInt(n int64) {
	e.buf.WriteString("i:")
	e.buf.WriteString(strconv.FormatInt(n, 10))
	e.buf.WriteByte(';')
}

func (e *encoder) writeFloat(f float64, bitSize int) {
	e.buf.WriteString("d:")
	switch {
	case math.IsNaN(f):
		e.buf.WriteString("NAN")
	case math.IsInf(f, 1):
		e.buf.WriteString("INF")
	case math.IsInf(f, -1):
		e.buf.WriteString("-INF")
	default:
		e.buf.WriteString(strconv.FormatFloat(f, 'g', -1, bitSize))
	}
	e.buf.WriteByte(';')
}

// writeString writes s verbatim; the length prefix is in bytes, not runes.
func (e *encoder) writeString(s string) {
	e.buf.WriteString("s:")
	e.buf.WriteString(strconv.Itoa(len(s)))
	e.buf.WriteString(`:"`)
	e.buf.WriteString(s)
	e.buf.WriteString(`";`)
}

type mapKey struct {
	name  string
	value reflect.Value
}

// sortedKeys formats the keys of a map and orders them by their string form.
// Distinct keys with the same string form, such as 1 and "1", are an error.
func sortedKeys(v reflect.Value, path string) ([]mapKey, error) {
	keys := make([]mapKey, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key()
		name, err := keyName(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, path, err)
		}
		keys = append(keys, mapKey{name: name, value: k})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].name < keys[j].name })
	for i := 1; i < len(keys); i++ {
		if keys[i].name == keys[i-1].name {
			return nil, fmt.Errorf("%w: %s: duplicate key %q", ErrEncoding, path, keys[i].name)
		}
	}
	return keys, nil
}

func keyName(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", errors.New("nil map key")
		}
		k = k.Elem()
	}

	//exhaustive:ignore
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		// PHP casts boolean keys to 0 and 1.
		if k.Bool() {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("unsupported map key type %s", k.Type())
	}
}

// arrayIndex reports whether s is a key PHP stores as an integer: a decimal
// without leading zeros or a plus sign that fits in int64.
func arrayIndex(s string) (int64, bool) {
	if s == "" || s == "-0" {
		return 0, false
	}
	digits := s
	if digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, false
	}
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
