// Package restful provides content-type keyed parser and renderer
// registries for HTTP handlers, along with a renderer for the PHP object
// serialization format.
//
// A ParserRegistry maps a MIME type to the function that decodes request
// bodies of that type. Lookups miss softly:
//
//	parsers := restful.DefaultParsers()
//	if parse, ok := parsers.Parser("application/yaml"); ok {
//	    v, err := parse(body)
//	    ...
//	}
//
// Registration reports what it replaced, so a caller can restore it later:
//
//	reg, err := parsers.Register("application/json", strictJSON)
//	if prev, ok := reg.Previous(); ok {
//	    defer parsers.Register("application/json", prev)
//	}
//
// A RendererRegistry does the same for response encoders and picks one from
// an Accept header. PHPObjectRenderer renders application/php-serialized
// bodies: the data is cast to an object first, so maps, slices and scalars
// all arrive at the client as a stdClass.
//
// API glues both registries to net/http without doing any routing:
//
//	a := restful.New(restful.WithMaxBodyBytes(1 << 20))
//	a.Use(restful.RequestID(), restful.Logger(logger), restful.Recovery(logger))
//
//	mux := http.NewServeMux()
//	mux.Handle("POST /echo", a.Handle(func(ctx context.Context, req *restful.Request) (any, error) {
//	    return req.Body, nil
//	}))
package restful
