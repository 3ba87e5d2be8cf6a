package phpserial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrSyntax is returned (wrapped) when input is not valid PHP serialization
// or uses a construct this package does not decode.
var ErrSyntax = errors.New("phpserial: syntax error")

// MaxDepth bounds the nesting of arrays and objects accepted by Unmarshal.
const MaxDepth = 512

// Unmarshal decodes a single serialized value. Arrays whose keys are exactly
// 0..n-1 in order decode to []any, other arrays to map[string]any, and
// objects to *Object.
func Unmarshal(data []byte) (any, error) {
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("unexpected trailing data")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrSyntax, d.pos, fmt.Sprintf(format, args...))
}

func (d *decoder) value(depth int) (any, error) {
	if depth > MaxDepth {
		return nil, d.errorf("nesting exceeds %d levels", MaxDepth)
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input")
	}

	tag := d.data[d.pos]
	d.pos++

	switch tag {
	case 'N':
		return nil, d.expect(';')
	case 'b':
		s, err := d.scalar()
		if err != nil {
			return nil, err
		}
		switch s {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
		return nil, d.errorf("invalid boolean %q", s)
	case 'i':
		return d.integer()
	case 'd':
		s, err := d.scalar()
		if err != nil {
			return nil, err
		}
		return parseFloat(s, d)
	case 's':
		return d.stringValue()
	case 'a':
		return d.array(depth)
	case 'O':
		return d.object(depth)
	case 'r', 'R':
		return nil, d.errorf("references are not supported")
	case 'C':
		return nil, d.errorf("custom serialized objects are not supported")
	case 'E':
		return nil, d.errorf("enums are not supported")
	default:
		d.pos--
		return nil, d.errorf("unknown type tag %q", tag)
	}
}

func parseFloat(s string, d *decoder) (float64, error) {
	switch s {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NAN":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, d.errorf("invalid float %q", s)
	}
	return f, nil
}

func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.data) {
		return d.errorf("expected %q, got end of input", b)
	}
	if d.data[d.pos] != b {
		return d.errorf("expected %q, got %q", b, d.data[d.pos])
	}
	d.pos++
	return nil
}

// until returns the bytes up to delim and moves past it.
func (d *decoder) until(delim byte) (string, error) {
	start := d.pos
	for d.pos < len(d.data) {
		if d.data[d.pos] == delim {
			s := string(d.data[start:d.pos])
			d.pos++
			return s, nil
		}
		d.pos++
	}
	d.pos = start
	return "", d.errorf("expected %q, got end of input", delim)
}

// scalar reads the ":<text>;" tail shared by b, i and d.
func (d *decoder) scalar() (string, error) {
	if err := d.expect(':'); err != nil {
		return "", err
	}
	return d.until(';')
}

func (d *decoder) integer() (int64, error) {
	s, err := d.scalar()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, d.errorf("invalid integer %q", s)
	}
	return n, nil
}

// count reads a non-negative length terminated by ':'.
func (d *decoder) count() (int, error) {
	s, err := d.until(':')
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, d.errorf("invalid length %q", s)
	}
	if n > len(d.data)-d.pos {
		return 0, d.errorf("length %d exceeds remaining input", n)
	}
	return n, nil
}

// quoted reads `<len>:"<bytes>"`, the form shared by strings and class names.
func (d *decoder) quoted() (string, error) {
	n, err := d.count()
	if err != nil {
		return "", err
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if d.pos+n > len(d.data) {
		return "", d.errorf("string of %d bytes exceeds remaining input", n)
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) stringValue() (string, error) {
	if err := d.expect(':'); err != nil {
		return "", err
	}
	s, err := d.quoted()
	if err != nil {
		return "", err
	}
	return s, d.expect(';')
}

type arrayKey struct {
	name  string
	index int64
	isInt bool
}

func (d *decoder) key() (arrayKey, error) {
	if d.pos >= len(d.data) {
		return arrayKey{}, d.errorf("unexpected end of input")
	}
	tag := d.data[d.pos]
	d.pos++
	switch tag {
	case 'i':
		n, err := d.integer()
		if err != nil {
			return arrayKey{}, err
		}
		return arrayKey{name: strconv.FormatInt(n, 10), index: n, isInt: true}, nil
	case 's':
		s, err := d.stringValue()
		if err != nil {
			return arrayKey{}, err
		}
		return arrayKey{name: s}, nil
	default:
		d.pos--
		return arrayKey{}, d.errorf("invalid key type %q", tag)
	}
}

func (d *decoder) array(depth int) (any, error) {
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	if err := d.expect('{'); err != nil {
		return nil, err
	}

	keys := make([]arrayKey, 0, n)
	values := make([]any, 0, n)
	list := true
	for i := range n {
		k, err := d.key()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if !k.isInt || k.index != int64(i) {
			list = false
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	if err := d.expect('}'); err != nil {
		return nil, err
	}

	if list {
		return values, nil
	}
	m := make(map[string]any, n)
	for i, k := range keys {
		m[k.name] = values[i]
	}
	return m, nil
}

func (d *decoder) object(depth int) (*Object, error) {
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	class, err := d.quoted()
	if err != nil {
		return nil, err
	}
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	if err := d.expect('{'); err != nil {
		return nil, err
	}

	obj := &Object{Class: class, Fields: make([]Field, 0, n)}
	for range n {
		k, err := d.key()
		if err != nil {
			return nil, err
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		obj.Set(k.name, v)
	}
	return obj, d.expect('}')
}
