package restful

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	AllowOrigins     []string // "*" allows any origin
	AllowMethods     []string
	AllowHeaders     []string // Content-Type and Accept are always added
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// negotiationHeaders drive parser and renderer selection, so cross-origin
// clients must always be allowed to send them.
var negotiationHeaders = []string{"Content-Type", "Accept"}

// CORS returns middleware that handles Cross-Origin Resource Sharing.
// Unset fields fall back to permissive defaults. The allowed origin is
// echoed back when it matches the list, or when credentials are allowed.
// Preflight requests are answered with 204 and never reach the handler.
func CORS(cfg ...CORSConfig) Middleware {
	c := CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"ETag", "Retry-After", "X-Request-ID"},
	}
	if len(cfg) > 0 {
		if len(cfg[0].AllowOrigins) > 0 {
			c.AllowOrigins = cfg[0].AllowOrigins
		}
		if len(cfg[0].AllowMethods) > 0 {
			c.AllowMethods = cfg[0].AllowMethods
		}
		if len(cfg[0].AllowHeaders) > 0 {
			c.AllowHeaders = cfg[0].AllowHeaders
		}
		if len(cfg[0].ExposeHeaders) > 0 {
			c.ExposeHeaders = cfg[0].ExposeHeaders
		}
		c.AllowCredentials = cfg[0].AllowCredentials
		c.MaxAge = cfg[0].MaxAge
	}

	allowHeaders := slices.Clone(negotiationHeaders)
	for _, h := range c.AllowHeaders {
		if !slices.ContainsFunc(allowHeaders, func(s string) bool { return strings.EqualFold(s, h) }) {
			allowHeaders = append(allowHeaders, h)
		}
	}

	anyOrigin := slices.Contains(c.AllowOrigins, "*")
	methods := strings.Join(c.AllowMethods, ", ")
	headers := strings.Join(allowHeaders, ", ")
	expose := strings.Join(c.ExposeHeaders, ", ")
	maxAge := ""
	if c.MaxAge > 0 {
		maxAge = strconv.Itoa(c.MaxAge)
	}

	allowed := func(origin string) string {
		switch {
		case anyOrigin && c.AllowCredentials && origin != "":
			return origin
		case anyOrigin:
			return "*"
		case slices.Contains(c.AllowOrigins, origin):
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			origin := allowed(r.Header.Get("Origin"))
			if origin == "" {
				if preflight {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if c.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if preflight {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}
			next.ServeHTTP(w, r)
		})
	}
}
