package restful

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// ETagConfig configures the ETag middleware.
type ETagConfig struct {
	Weak bool // use weak ETags
}

// ETag returns middleware that tags successful GET and HEAD responses and
// answers a matching If-None-Match with 304 Not Modified. The tag covers the
// negotiated Content-Type as well as the body, so the same resource rendered
// as JSON and as PHP gets different tags.
func ETag(cfg ...ETagConfig) Middleware {
	c := ETagConfig{}
	if len(cfg) > 0 {
		c = cfg[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			rec := &etagRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 || rec.status == http.StatusNoContent {
				w.WriteHeader(rec.status)
				//nolint:errcheck,gosec // best-effort write
				w.Write(rec.buf.Bytes())
				return
			}

			etag := entityTag(w.Header().Get("Content-Type"), rec.buf.Bytes(), c.Weak)
			w.Header().Set("ETag", etag)
			w.Header().Add("Vary", "Accept")

			if matchesETag(r.Header.Get("If-None-Match"), etag) {
				w.Header().Del("Content-Type")
				w.WriteHeader(http.StatusNotModified)
				return
			}

			w.WriteHeader(rec.status)
			//nolint:errcheck,gosec // best-effort write
			w.Write(rec.buf.Bytes())
		})
	}
}

func entityTag(contentType string, body []byte, weak bool) string {
	h := sha256.New()
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	h.Write(body)
	etag := `"` + hex.EncodeToString(h.Sum(nil)[:8]) + `"`
	if weak {
		etag = "W/" + etag
	}
	return etag
}

// matchesETag reports whether an If-None-Match header lists etag, using the
// weak comparison RFC 9110 prescribes for it.
func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}

type etagRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (e *etagRecorder) WriteHeader(code int) {
	e.status = code
}

func (e *etagRecorder) Write(b []byte) (int, error) {
	return e.buf.Write(b)
}
