package restful

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/bjaus/restful/phpserial"
)

const (
	// xmlRoot names the document element wrapping generic data.
	xmlRoot = "response"
	// xmlItem names the elements of a top-level sequence.
	xmlItem     = "item"
	maxXMLDepth = 512
)

// ParseXML decodes an XML document into a generic tree. The root element is
// unwrapped. Attributes become "@name" keys, repeated child elements become
// a []any, and elements holding only text become strings. Mixed content
// keeps its text under "#text".
func ParseXML(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("xml: no root element")
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return xmlElement(dec, start, 0)
		}
	}
}

func xmlElement(dec *xml.Decoder, start xml.StartElement, depth int) (any, error) {
	if depth > maxXMLDepth {
		return nil, fmt.Errorf("xml: nesting exceeds %d levels", maxXMLDepth)
	}

	node := make(map[string]any, len(start.Attr))
	for _, a := range start.Attr {
		node["@"+a.Name.Local] = a.Value
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := xmlElement(dec, t, depth+1)
			if err != nil {
				return nil, err
			}
			addXMLChild(node, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			s := strings.TrimSpace(text.String())
			if len(node) == 0 {
				return s, nil
			}
			if s != "" {
				node["#text"] = s
			}
			return node, nil
		}
	}
}

func addXMLChild(node map[string]any, name string, child any) {
	existing, ok := node[name]
	if !ok {
		node[name] = child
		return
	}
	if list, ok := existing.([]any); ok {
		node[name] = append(list, child)
		return
	}
	node[name] = []any{existing, child}
}

// RenderXML encodes data as an XML document. Structs are encoded with
// encoding/xml and their own tags; maps, slices and objects are written as
// a tree under a <response> element.
func RenderXML(data any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	var err error
	switch kind := genericKind(data); kind {
	case reflect.Slice, reflect.Array:
		err = enc.Encode(xmlTree{name: xmlRoot, value: map[string]any{xmlItem: data}})
	case reflect.Map, reflect.Invalid:
		err = enc.Encode(xmlTree{name: xmlRoot, value: data})
	default:
		if _, ok := data.(*phpserial.Object); ok {
			err = enc.Encode(xmlTree{name: xmlRoot, value: data})
		} else {
			err = enc.Encode(data)
		}
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// genericKind returns the kind of data when it is a map or non-byte sequence,
// reflect.Invalid for nil, and reflect.Struct otherwise.
func genericKind(data any) reflect.Kind {
	if data == nil {
		return reflect.Invalid
	}
	v := reflect.ValueOf(data)
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Map:
		return reflect.Map
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			return v.Kind()
		}
	}
	return reflect.Struct
}

// xmlTree writes a generic value as an element named name. Names that are
// not valid XML names, such as numeric array keys, are written as
// <item key="name">.
type xmlTree struct {
	name  string
	value any
}

func (t xmlTree) start() xml.StartElement {
	if validXMLName(t.name) {
		return xml.StartElement{Name: xml.Name{Local: t.name}}
	}
	return xml.StartElement{
		Name: xml.Name{Local: xmlItem},
		Attr: []xml.Attr{{Name: xml.Name{Local: "key"}, Value: t.name}},
	}
}

// validXMLName reports whether s can be used as an element name without a
// namespace prefix.
func validXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

func (t xmlTree) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := t.start()

	if obj, ok := t.value.(*phpserial.Object); ok {
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		for _, f := range obj.Fields {
			if err := e.Encode(xmlTree{name: f.Name, value: f.Value}); err != nil {
				return err
			}
		}
		return e.EncodeToken(start.End())
	}

	if t.value == nil {
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		return e.EncodeToken(start.End())
	}

	v := reflect.ValueOf(t.value)
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		values := make(map[string]reflect.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value()
		}
		sort.Strings(keys)

		if err := e.EncodeToken(start); err != nil {
			return err
		}
		for _, k := range keys {
			if err := e.Encode(xmlTree{name: k, value: values[k].Interface()}); err != nil {
				return err
			}
		}
		return e.EncodeToken(start.End())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		// Sequences repeat the element, mirroring how ParseXML reads them.
		for i := range v.Len() {
			if err := e.Encode(xmlTree{name: t.name, value: v.Index(i).Interface()}); err != nil {
				return err
			}
		}
		return nil
	}

	return e.EncodeElement(t.value, start)
}
