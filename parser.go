package restful

import "fmt"

// Parser decodes a raw request body into a generic value (maps, slices and
// scalars). It is registered against the content type it understands.
type Parser func(raw []byte) (any, error)

// ParserRegistry maps MIME content types to parsers. The zero value is not
// usable; create one with NewParserRegistry or DefaultParsers.
type ParserRegistry struct {
	reg *registry[Parser]
}

// NewParserRegistry returns an empty registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{reg: newRegistry[Parser]()}
}

// DefaultParsers returns a registry holding a parser for every built-in
// content type: JSON, XML, YAML, CBOR, MessagePack, URL-encoded forms and
// PHP-serialized data.
func DefaultParsers() *ParserRegistry {
	pr := NewParserRegistry()
	for ct, p := range builtinParsers() {
		pr.MustRegister(ct, p)
	}
	return pr
}

// Parser returns the parser registered under exactly contentType. A missing
// entry is reported with false; it is not an error.
func (pr *ParserRegistry) Parser(contentType string) (Parser, bool) {
	return pr.reg.get(contentType)
}

// Parsers returns a copy of every registered content type and its parser.
func (pr *ParserRegistry) Parsers() map[string]Parser {
	return pr.reg.snapshot()
}

// Register stores p under contentType, replacing any existing parser. The
// returned Registration carries the replaced parser, if there was one.
func (pr *ParserRegistry) Register(contentType string, p Parser) (Registration[Parser], error) {
	if err := validContentType(contentType); err != nil {
		return Registration[Parser]{}, err
	}
	if p == nil {
		return Registration[Parser]{}, fmt.Errorf("%w: parser for %q is nil", ErrInvalidArgument, contentType)
	}
	return pr.reg.set(contentType, p), nil
}

// MustRegister is like Register but panics on invalid arguments.
func (pr *ParserRegistry) MustRegister(contentType string, p Parser) Registration[Parser] {
	reg, err := pr.Register(contentType, p)
	if err != nil {
		panic(err)
	}
	return reg
}

// Unregister removes the parser for contentType and reports whether one existed.
func (pr *ParserRegistry) Unregister(contentType string) bool {
	return pr.reg.remove(contentType)
}

// Len returns the number of registered parsers.
func (pr *ParserRegistry) Len() int {
	return pr.reg.len()
}
