package restful

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
	"sync"
)

// DefaultFallback is the content type rendered when a client accepts anything.
const DefaultFallback = "application/json"

// Renderer serializes response data into a wire format. Implementations are
// stateless and safe for concurrent use.
type Renderer interface {
	ContentType() string
	Render(data any) ([]byte, error)
}

type renderFunc struct {
	contentType string
	fn          func(data any) ([]byte, error)
}

func (r renderFunc) ContentType() string             { return r.contentType }
func (r renderFunc) Render(data any) ([]byte, error) { return r.fn(data) }

// RendererFunc adapts a plain function into a Renderer for contentType.
func RendererFunc(contentType string, fn func(data any) ([]byte, error)) Renderer {
	return renderFunc{contentType: contentType, fn: fn}
}

// RendererRegistry maps MIME content types to renderers and selects one from
// an Accept header.
type RendererRegistry struct {
	reg *registry[Renderer]

	mu       sync.RWMutex
	fallback string
}

// NewRendererRegistry returns an empty registry whose fallback is
// DefaultFallback.
func NewRendererRegistry() *RendererRegistry {
	return &RendererRegistry{reg: newRegistry[Renderer](), fallback: DefaultFallback}
}

// DefaultRenderers returns a registry holding every built-in renderer.
func DefaultRenderers() *RendererRegistry {
	rr := NewRendererRegistry()
	for _, r := range builtinRenderers() {
		rr.MustRegister(r)
	}
	return rr
}

// Renderer returns the renderer registered under exactly contentType.
func (rr *RendererRegistry) Renderer(contentType string) (Renderer, bool) {
	return rr.reg.get(contentType)
}

// Renderers returns a copy of every registered content type and its renderer.
func (rr *RendererRegistry) Renderers() map[string]Renderer {
	return rr.reg.snapshot()
}

// Register stores r under r.ContentType(), replacing any existing renderer.
func (rr *RendererRegistry) Register(r Renderer) (Registration[Renderer], error) {
	if r == nil {
		return Registration[Renderer]{}, fmt.Errorf("%w: renderer is nil", ErrInvalidArgument)
	}
	if err := validContentType(r.ContentType()); err != nil {
		return Registration[Renderer]{}, err
	}
	return rr.reg.set(r.ContentType(), r), nil
}

// MustRegister is like Register but panics on invalid arguments.
func (rr *RendererRegistry) MustRegister(r Renderer) Registration[Renderer] {
	reg, err := rr.Register(r)
	if err != nil {
		panic(err)
	}
	return reg
}

// Unregister removes the renderer for contentType and reports whether one existed.
func (rr *RendererRegistry) Unregister(contentType string) bool {
	return rr.reg.remove(contentType)
}

// Len returns the number of registered renderers.
func (rr *RendererRegistry) Len() int {
	return rr.reg.len()
}

// SetFallback sets the content type used for an empty or */* Accept header.
func (rr *RendererRegistry) SetFallback(contentType string) error {
	if err := validContentType(contentType); err != nil {
		return err
	}
	rr.mu.Lock()
	rr.fallback = contentType
	rr.mu.Unlock()
	return nil
}

// Fallback returns the content type used for an empty or */* Accept header.
func (rr *RendererRegistry) Fallback() string {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.fallback
}

// Negotiate picks a renderer for the Accept header value. Media ranges are
// matched exactly, */* selects the fallback, and the highest q wins.
// Returns (nil, false) if nothing acceptable is registered.
func (rr *RendererRegistry) Negotiate(accept string) (Renderer, bool) {
	if strings.TrimSpace(accept) == "" {
		return rr.Renderer(rr.Fallback())
	}

	var (
		best    Renderer
		quality = -1.0
	)

	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		q := 1.0
		if qs, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(qs, 64); err == nil {
				q = parsed
			}
		}

		if q <= 0 || q <= quality {
			continue
		}

		if mediaType == "*/*" {
			mediaType = rr.Fallback()
		}

		if r, ok := rr.Renderer(mediaType); ok {
			best, quality = r, q
		}
	}

	return best, best != nil
}
