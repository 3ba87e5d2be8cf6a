package restful_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/restful"
	"github.com/bjaus/restful/apitest"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a := restful.New()
	a.Use(restful.RequestID(), restful.Recovery(logger))
	h := a.Handle(func(context.Context, *restful.Request) (any, error) {
		panic("secret detail")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "secret detail")

	logs := buf.String()
	assert.Contains(t, logs, "panic recovered")
	assert.Contains(t, logs, "secret detail")
	assert.Contains(t, logs, "request_id=rid-1")
}

func TestRecovery_rethrows_abort(t *testing.T) {
	t.Parallel()

	h := restful.Recovery(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}),
	)

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestMiddleware_ordering(t *testing.T) {
	t.Parallel()

	header := func(name string) restful.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Add("X-Order", name)
				next.ServeHTTP(w, req)
			})
		}
	}

	a := restful.New()
	a.Use(header("first"))
	a.Use(header("second"))
	h := a.Handle(func(context.Context, *restful.Request) (any, error) {
		return map[string]string{"value": "ok"}, nil
	})

	// Middleware added after Handle does not affect it.
	a.Use(header("third"))

	resp := apitest.NewClient(t, h).Get(t, "/test", "")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"first", "second"}, resp.Headers.Values("X-Order"))
}
