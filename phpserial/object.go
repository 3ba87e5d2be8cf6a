package phpserial

// StdClass is the class name PHP gives to objects produced by an (object) cast.
const StdClass = "stdClass"

// Field is a single object property.
type Field struct {
	Name  string
	Value any
}

// Object is a PHP object: a class name plus properties in declaration order.
type Object struct {
	Class  string
	Fields []Field
}

// NewObject returns an empty stdClass object.
func NewObject() *Object {
	return &Object{Class: StdClass}
}

// Get returns the value of the named property.
func (o *Object) Get(name string) (any, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the named property in place or appends it.
func (o *Object) Set(name string, value any) {
	for i := range o.Fields {
		if o.Fields[i].Name == name {
			o.Fields[i].Value = value
			return
		}
	}
	o.Fields = append(o.Fields, Field{Name: name, Value: value})
}

// Len returns the number of properties.
func (o *Object) Len() int { return len(o.Fields) }

// Map returns the properties as a map. Ordering is lost.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, len(o.Fields))
	for _, f := range o.Fields {
		m[f.Name] = f.Value
	}
	return m
}

func (o *Object) className() string {
	if o.Class == "" {
		return StdClass
	}
	return o.Class
}

// ClassNamer is implemented by structs that want to be serialized under a
// PHP class name other than stdClass.
type ClassNamer interface {
	PHPClassName() string
}
