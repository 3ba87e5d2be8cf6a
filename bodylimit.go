package restful

import (
	"fmt"
	"net/http"
)

// BodyLimit returns middleware that limits the maximum request body size.
// Requests whose declared Content-Length is already too large are rejected
// with a 413 problem response before the handler runs; bodies without a
// declared length are cut off by http.MaxBytesReader while being read.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeProblem(w, httpError(http.StatusRequestEntityTooLarge,
					fmt.Errorf("%w: body exceeds %d bytes", ErrReadBody, maxBytes)))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
