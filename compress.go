package restful

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// CompressConfig configures the Compress middleware.
type CompressConfig struct {
	Level   int      // gzip level (1-9, default: 5)
	MinSize int      // minimum response size to compress (default: 1024)
	Types   []string // media types to compress; a trailing "/" matches a whole top-level type
}

// compressibleTypes are the text-based formats the built-in renderers and
// problem responses produce. CBOR and MessagePack are already compact.
var compressibleTypes = []string{
	MIMEJSON,
	MIMEXML,
	MIMEYAML,
	MIMEPHPSerialized,
	"application/problem+json",
	"text/",
}

// Compress returns middleware that gzip-compresses responses when the client
// accepts gzip and the rendered body is large enough and of a listed type.
func Compress(cfg ...CompressConfig) Middleware {
	c := CompressConfig{
		Level:   5,
		MinSize: 1024,
		Types:   compressibleTypes,
	}
	if len(cfg) > 0 {
		if cfg[0].Level > 0 {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		if len(cfg[0].Types) > 0 {
			c.Types = cfg[0].Types
		}
	}
	if c.Level > gzip.BestCompression {
		c.Level = gzip.BestCompression
	}

	pool := &sync.Pool{
		New: func() any {
			gz, _ := gzip.NewWriterLevel(io.Discard, c.Level) //nolint:errcheck // level is clamped above
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			gz := pool.Get().(*gzip.Writer) //nolint:errcheck,forcetypeassert // pool.New always returns *gzip.Writer
			gz.Reset(w)

			gw := &gzipResponseWriter{
				ResponseWriter: w,
				writer:         gz,
				minSize:        c.MinSize,
				types:          c.Types,
			}

			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(gw, r)
			gw.finish()

			if gw.active {
				//nolint:errcheck,gosec // best-effort flush
				gz.Close()
			}
			gz.Reset(io.Discard)
			pool.Put(gz)
		})
	}
}

func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

// gzipResponseWriter holds back the status line until the first Write, so
// the compression decision can still change the headers.
type gzipResponseWriter struct {
	http.ResponseWriter
	writer  *gzip.Writer
	minSize int
	types   []string

	status  int
	decided bool
	active  bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.status == 0 && !g.decided {
		g.status = code
	}
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.decided {
		g.decide(len(b))
	}
	if g.active {
		return g.writer.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipResponseWriter) decide(size int) {
	g.decided = true

	h := g.Header()
	if size >= g.minSize && h.Get("Content-Encoding") == "" && g.compressible(h.Get("Content-Type")) {
		g.active = true
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
	}
	if g.status != 0 {
		g.ResponseWriter.WriteHeader(g.status)
	}
}

// finish sends a status that was set without any body.
func (g *gzipResponseWriter) finish() {
	if !g.decided {
		g.decided = true
		if g.status != 0 {
			g.ResponseWriter.WriteHeader(g.status)
		}
	}
}

func (g *gzipResponseWriter) compressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range g.types {
		if strings.HasSuffix(t, "/") {
			if strings.HasPrefix(mediaType, t) {
				return true
			}
			continue
		}
		if mediaType == t {
			return true
		}
	}
	return false
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
