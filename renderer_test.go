package restful_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/restful"
)

func constRenderer(ct, out string) restful.Renderer {
	return restful.RendererFunc(ct, func(any) ([]byte, error) { return []byte(out), nil })
}

func TestRendererRegistry_register(t *testing.T) {
	t.Parallel()

	rr := restful.NewRendererRegistry()

	reg, err := rr.Register(constRenderer("text/plain", "one"))
	require.NoError(t, err)
	assert.False(t, reg.Replaced())

	reg, err = rr.Register(constRenderer("text/plain", "two"))
	require.NoError(t, err)
	require.True(t, reg.Replaced())
	prev, ok := reg.Previous()
	require.True(t, ok)
	out, err := prev.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "one", string(out))

	got, ok := rr.Renderer("text/plain")
	require.True(t, ok)
	out, err = got.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "two", string(out))

	assert.Len(t, rr.Renderers(), 1)
}

func TestRendererRegistry_invalid_arguments(t *testing.T) {
	t.Parallel()

	rr := restful.NewRendererRegistry()

	_, err := rr.Register(nil)
	require.ErrorIs(t, err, restful.ErrInvalidArgument)

	_, err = rr.Register(constRenderer("", "x"))
	require.ErrorIs(t, err, restful.ErrInvalidArgument)

	require.ErrorIs(t, rr.SetFallback(""), restful.ErrInvalidArgument)
	assert.Equal(t, restful.DefaultFallback, rr.Fallback())
	assert.Zero(t, rr.Len())
}

func TestRendererRegistry_lookup_miss(t *testing.T) {
	t.Parallel()

	r, ok := restful.DefaultRenderers().Renderer("nonexistent/type")
	assert.False(t, ok)
	assert.Nil(t, r)
}

func TestRendererRegistry_Negotiate(t *testing.T) {
	t.Parallel()

	rr := restful.NewRendererRegistry()
	rr.MustRegister(constRenderer("application/json", "json"))
	rr.MustRegister(constRenderer("application/xml", "xml"))
	rr.MustRegister(constRenderer("application/php-serialized", "php"))

	tests := map[string]struct {
		accept string
		want   string
		wantOK bool
	}{
		"empty picks fallback":      {accept: "", want: "application/json", wantOK: true},
		"wildcard picks fallback":   {accept: "*/*", want: "application/json", wantOK: true},
		"exact match":               {accept: "application/php-serialized", want: "application/php-serialized", wantOK: true},
		"first of equal quality":    {accept: "application/xml, application/json", want: "application/xml", wantOK: true},
		"highest quality wins":      {accept: "application/xml;q=0.5, application/php-serialized;q=0.9", want: "application/php-serialized", wantOK: true},
		"unknown skipped":           {accept: "text/csv, application/xml;q=0.1", want: "application/xml", wantOK: true},
		"zero quality is refused":   {accept: "application/xml;q=0", wantOK: false},
		"malformed entries ignored": {accept: ";;, application/json", want: "application/json", wantOK: true},
		"nothing acceptable":        {accept: "text/csv", wantOK: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, ok := rr.Negotiate(tc.accept)
			require.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				assert.Nil(t, r)
				return
			}
			assert.Equal(t, tc.want, r.ContentType())
		})
	}
}

func TestRendererRegistry_Negotiate_custom_fallback(t *testing.T) {
	t.Parallel()

	rr := restful.DefaultRenderers()
	require.NoError(t, rr.SetFallback(restful.MIMEPHPSerialized))

	r, ok := rr.Negotiate("*/*")
	require.True(t, ok)
	assert.Equal(t, restful.MIMEPHPSerialized, r.ContentType())

	// A fallback nobody registered makes wildcard requests unacceptable.
	require.NoError(t, rr.SetFallback("text/nothing"))
	_, ok = rr.Negotiate("")
	assert.False(t, ok)
}

func TestDefaultRenderers(t *testing.T) {
	t.Parallel()

	rr := restful.DefaultRenderers()
	for _, ct := range []string{
		restful.MIMEJSON,
		restful.MIMEXML,
		restful.MIMEYAML,
		restful.MIMECBOR,
		restful.MIMEMsgpack,
		restful.MIMEPHPSerialized,
	} {
		r, ok := rr.Renderer(ct)
		require.True(t, ok, "missing renderer for %s", ct)
		assert.Equal(t, ct, r.ContentType())
	}
}
