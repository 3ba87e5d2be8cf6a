package restful

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTimeout is wrapped by the 503 error produced when a Handler gives up
// because its request context expired.
var ErrTimeout = errors.New("request timed out")

// Timeout returns middleware that adds a timeout to the request context.
// A Handler that returns context.DeadlineExceeded once the deadline has
// passed is answered with 503 Service Unavailable.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// timeoutError maps an expired deadline without an explicit status to 503.
func timeoutError(ctx context.Context, err error) error {
	var sc StatusCoder
	if errors.As(err, &sc) || !errors.Is(err, context.DeadlineExceeded) || ctx.Err() == nil {
		return err
	}
	return httpError(http.StatusServiceUnavailable, fmt.Errorf("%w: %w", ErrTimeout, err))
}
