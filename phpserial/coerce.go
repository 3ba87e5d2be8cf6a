package phpserial

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ScalarProperty is the property that holds a scalar cast to an object.
const ScalarProperty = "scalar"

// ToObject converts v into an object following PHP's (object) cast. The
// conversion is shallow: nested values are left as they are.
//
//   - nil and nil pointers become an empty stdClass.
//   - *Object and Object are returned unchanged.
//   - Maps become one property per entry, ordered by key.
//   - Slices and arrays become properties "0", "1", ...
//   - Structs become one property per exported field.
//   - Anything else becomes a stdClass with a single "scalar" property.
func ToObject(v any) (*Object, error) {
	switch o := v.(type) {
	case nil:
		return NewObject(), nil
	case *Object:
		if o == nil {
			return NewObject(), nil
		}
		return o, nil
	case Object:
		return &o, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return NewObject(), nil
		}
		if rv.Type().Implements(textMarshalerType) {
			return scalarObject(v), nil
		}
		rv = rv.Elem()
	}

	if rv.Type().Implements(textMarshalerType) {
		return scalarObject(v), nil
	}

	//exhaustive:ignore
	switch rv.Kind() {
	case reflect.Map:
		keys, err := sortedKeys(rv, "$")
		if err != nil {
			return nil, err
		}
		obj := &Object{Class: StdClass, Fields: make([]Field, 0, len(keys))}
		for _, k := range keys {
			obj.Fields = append(obj.Fields, Field{Name: k.name, Value: rv.MapIndex(k.value).Interface()})
		}
		return obj, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return scalarObject(v), nil
		}
		obj := &Object{Class: StdClass, Fields: make([]Field, 0, rv.Len())}
		for i := range rv.Len() {
			obj.Fields = append(obj.Fields, Field{Name: strconv.Itoa(i), Value: rv.Index(i).Interface()})
		}
		return obj, nil
	case reflect.Struct:
		return structObject(rv, "$")
	default:
		return scalarObject(v), nil
	}
}

func scalarObject(v any) *Object {
	return &Object{Class: StdClass, Fields: []Field{{Name: ScalarProperty, Value: v}}}
}

// structObject builds an object from the exported fields of a struct value.
// Field names come from the php tag, then the json tag, then the Go name.
func structObject(v reflect.Value, path string) (*Object, error) {
	obj := &Object{Class: StdClass}
	if v.CanInterface() {
		if cn, ok := v.Interface().(ClassNamer); ok {
			obj.Class = cn.PHPClassName()
		}
	}
	if err := appendStructFields(obj, v, path); err != nil {
		return nil, err
	}
	return obj, nil
}

func appendStructFields(obj *Object, v reflect.Value, path string) error {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		name, opts := fieldTag(f)
		if name == "-" {
			continue
		}

		fv := v.Field(i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						continue
					}
					fv = fv.Elem()
				}
				if err := appendStructFields(obj, fv, path); err != nil {
					return err
				}
				continue
			}
		}

		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if strings.Contains(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if !fv.CanInterface() {
			return fmt.Errorf("%w: %s.%s: field is not accessible", ErrEncoding, path, name)
		}
		obj.Set(name, fv.Interface())
	}
	return nil
}

func fieldTag(f reflect.StructField) (name, opts string) {
	tag, ok := f.Tag.Lookup("php")
	if !ok {
		tag = f.Tag.Get("json")
	}
	name, opts, _ = strings.Cut(tag, ",")
	return name, opts
}

func isEmptyValue(v reflect.Value) bool {
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
