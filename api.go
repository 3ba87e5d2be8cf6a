package restful

import (
	"log/slog"
	"net/http"
)

// API holds the parser and renderer registries and turns Handlers into
// http.Handlers. It does no routing; mount the result on any mux.
type API struct {
	parsers   *ParserRegistry
	renderers *RendererRegistry

	extraParsers   []parserEntry
	extraRenderers []Renderer
	fallback       string

	defaultContentType string
	maxBodyBytes       int64

	middleware   []Middleware
	errorHandler ErrorHandler
	logger       *slog.Logger
}

type parserEntry struct {
	contentType string
	parser      Parser
}

// Option configures an API.
type Option func(*API)

// ErrorHandler is a custom error response writer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithParsers replaces the default parser registry.
func WithParsers(pr *ParserRegistry) Option {
	return func(a *API) {
		a.parsers = pr
	}
}

// WithRenderers replaces the default renderer registry.
func WithRenderers(rr *RendererRegistry) Option {
	return func(a *API) {
		a.renderers = rr
	}
}

// WithParser registers an additional parser. New panics if contentType is
// empty or p is nil.
func WithParser(contentType string, p Parser) Option {
	return func(a *API) {
		a.extraParsers = append(a.extraParsers, parserEntry{contentType: contentType, parser: p})
	}
}

// WithRenderer registers an additional renderer. New panics if r is nil or
// has an empty content type.
func WithRenderer(r Renderer) Option {
	return func(a *API) {
		a.extraRenderers = append(a.extraRenderers, r)
	}
}

// WithFallbackRenderer sets the content type rendered for an empty or */*
// Accept header.
func WithFallbackRenderer(contentType string) Option {
	return func(a *API) {
		a.fallback = contentType
	}
}

// WithDefaultContentType sets the content type assumed for a request body
// sent without a Content-Type header (default application/json).
func WithDefaultContentType(contentType string) Option {
	return func(a *API) {
		a.defaultContentType = contentType
	}
}

// WithMaxBodyBytes limits the size of request bodies. Zero means no limit.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		a.maxBodyBytes = n
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *API) {
		a.errorHandler = h
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		a.logger = l
	}
}

// New creates an API with the given options. Without WithParsers or
// WithRenderers it uses DefaultParsers and DefaultRenderers.
func New(opts ...Option) *API {
	a := &API{defaultContentType: MIMEJSON}
	for _, opt := range opts {
		opt(a)
	}

	if a.parsers == nil {
		a.parsers = DefaultParsers()
	}
	if a.renderers == nil {
		a.renderers = DefaultRenderers()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	for _, e := range a.extraParsers {
		a.parsers.MustRegister(e.contentType, e.parser)
	}
	for _, r := range a.extraRenderers {
		a.renderers.MustRegister(r)
	}
	if a.fallback != "" {
		if err := a.renderers.SetFallback(a.fallback); err != nil {
			panic(err)
		}
	}
	a.extraParsers, a.extraRenderers = nil, nil

	return a
}

// Parsers returns the parser registry. Registrations made after Handle are
// seen by subsequent requests.
func (a *API) Parsers() *ParserRegistry { return a.parsers }

// Renderers returns the renderer registry.
func (a *API) Renderers() *RendererRegistry { return a.renderers }

// Use adds middleware applied to every handler built afterwards, in the
// order added.
func (a *API) Use(mw ...Middleware) {
	a.middleware = append(a.middleware, mw...)
}

// Handle wraps h into an http.Handler that parses the request body,
// calls h and renders its result.
func (a *API) Handle(h Handler) http.Handler {
	handler := a.dispatch(h)
	for i := len(a.middleware) - 1; i >= 0; i-- {
		handler = a.middleware[i](handler)
	}
	return handler
}
