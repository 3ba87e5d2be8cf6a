// Package phpserial reads and writes the PHP serialization format, the wire
// format produced by PHP's serialize() and consumed by unserialize().
//
// Values map onto Go as follows:
//
//	N;                      nil
//	b:1;                    bool
//	i:42;                   int64
//	d:0.5;                  float64
//	s:5:"hello";            string
//	a:2:{i:0;...;i:1;...}   []any (keys 0..n-1) or map[string]any
//	O:8:"stdClass":1:{...}  *Object
//
// Marshal accepts ordinary Go values (maps, slices, structs, scalars) and
// *Object. ToObject applies PHP's (object) cast so that any value can be
// sent as a top-level object:
//
//	obj, err := phpserial.ToObject([]int{1, 2, 3}) // properties "0", "1", "2"
//	b, err := phpserial.Marshal(obj)
//
// Unmarshal never instantiates user types. References, custom-serialized
// classes and enums are rejected.
package phpserial
