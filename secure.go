package restful

import (
	"net/http"
	"strconv"
)

// SecureConfig configures the SecureHeaders middleware.
type SecureConfig struct {
	ContentTypeNosniff    bool   // X-Content-Type-Options: nosniff
	FrameDeny             bool   // X-Frame-Options: DENY
	HSTSMaxAge            int    // seconds; 0 leaves Strict-Transport-Security unset
	ContentSecurityPolicy string
	ReferrerPolicy        string
}

// DefaultSecureConfig returns the settings SecureHeaders uses without
// arguments.
func DefaultSecureConfig() SecureConfig {
	return SecureConfig{
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}
}

// SecureHeaders returns middleware that sets security response headers on
// every response, problem responses included.
func SecureHeaders(cfg ...SecureConfig) Middleware {
	c := DefaultSecureConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}

	hsts := ""
	if c.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(c.HSTSMaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if c.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if c.FrameDeny {
				h.Set("X-Frame-Options", "DENY")
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if c.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", c.ContentSecurityPolicy)
			}
			if c.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", c.ReferrerPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
