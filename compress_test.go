package restful_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/restful"
)

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	out, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return string(out)
}

func TestCompress(t *testing.T) {
	t.Parallel()

	large := strings.Repeat("x", 2048)

	tests := map[string]struct {
		acceptEncoding string
		accept         string
		data           any
		wantGzip       bool
	}{
		"large json is compressed": {
			acceptEncoding: "gzip, deflate",
			accept:         restful.MIMEJSON,
			data:           map[string]string{"text": large},
			wantGzip:       true,
		},
		"large php is compressed": {
			acceptEncoding: "gzip",
			accept:         restful.MIMEPHPSerialized,
			data:           map[string]string{"text": large},
			wantGzip:       true,
		},
		"binary formats are left alone": {
			acceptEncoding: "gzip",
			accept:         restful.MIMECBOR,
			data:           map[string]string{"text": large},
		},
		"small bodies are left alone": {
			acceptEncoding: "gzip",
			accept:         restful.MIMEJSON,
			data:           map[string]string{"text": "short"},
		},
		"client without gzip": {
			accept: restful.MIMEJSON,
			data:   map[string]string{"text": large},
		},
		"gzip refused with q=0": {
			acceptEncoding: "gzip;q=0, identity",
			accept:         restful.MIMEJSON,
			data:           map[string]string{"text": large},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := restful.New()
			a.Use(restful.Compress())
			h := a.Handle(func(context.Context, *restful.Request) (any, error) {
				return tc.data, nil
			})

			plain := httptest.NewRecorder()
			restful.New().Handle(func(context.Context, *restful.Request) (any, error) {
				return tc.data, nil
			}).ServeHTTP(plain, acceptRequest(tc.accept, ""))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, acceptRequest(tc.accept, tc.acceptEncoding))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.accept, rec.Header().Get("Content-Type"))
			if !tc.wantGzip {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				assert.Equal(t, plain.Body.String(), rec.Body.String())
				return
			}
			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")
			assert.Equal(t, plain.Body.String(), gunzip(t, rec.Body.Bytes()))
		})
	}
}

func acceptRequest(accept, acceptEncoding string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	return req
}

func TestCompress_keeps_status(t *testing.T) {
	t.Parallel()

	a := restful.New()
	a.Use(restful.Compress(restful.CompressConfig{MinSize: 1}))
	h := a.Handle(func(context.Context, *restful.Request) (any, error) {
		return &restful.Response{Status: http.StatusCreated, Data: map[string]int{"id": 1}}, nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, acceptRequest(restful.MIMEJSON, "gzip"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "{\"id\":1}\n", gunzip(t, rec.Body.Bytes()))
}

func TestCompress_no_content(t *testing.T) {
	t.Parallel()

	a := restful.New()
	a.Use(restful.Compress(restful.CompressConfig{MinSize: 1}))
	h := a.Handle(func(context.Context, *restful.Request) (any, error) {
		return nil, nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, acceptRequest("", "gzip"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}
