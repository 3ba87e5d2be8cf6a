package restful_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/restful"
)

func TestParsers(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		parse restful.Parser
		in    string
		want  any
	}{
		"json object": {
			parse: restful.ParseJSON,
			in:    `{"name":"ann","age":30,"score":1.5,"tags":["a"],"ok":true,"nil":null}`,
			want: map[string]any{
				"name": "ann", "age": int64(30), "score": 1.5,
				"tags": []any{"a"}, "ok": true, "nil": nil,
			},
		},
		"json scalar": {parse: restful.ParseJSON, in: `42`, want: int64(42)},
		"yaml": {
			parse: restful.ParseYAML,
			in:    "name: ann\ntags:\n  - a\n  - b\n",
			want:  map[string]any{"name": "ann", "tags": []any{"a", "b"}},
		},
		"xml": {
			parse: restful.ParseXML,
			in:    `<user id="7"><name>ann</name><tag>a</tag><tag>b</tag><empty/></user>`,
			want:  map[string]any{"@id": "7", "name": "ann", "tag": []any{"a", "b"}, "empty": ""},
		},
		"xml text root": {parse: restful.ParseXML, in: `<?xml version="1.0"?><msg> hi </msg>`, want: "hi"},
		"form": {
			parse: restful.ParseForm,
			in:    "name=ann&tag=a&tag=b&q=a%20b",
			want:  map[string]any{"name": "ann", "tag": []any{"a", "b"}, "q": "a b"},
		},
		"php": {
			parse: restful.ParsePHP,
			in:    `a:2:{i:0;s:1:"x";i:1;d:0.5;}`,
			want:  []any{"x", 0.5},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.parse([]byte(tc.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsers_empty_body(t *testing.T) {
	t.Parallel()

	for ct, parse := range restful.DefaultParsers().Parsers() {
		t.Run(ct, func(t *testing.T) {
			t.Parallel()

			v, err := parse(nil)
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestParsers_malformed(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		parse restful.Parser
		in    string
	}{
		"json syntax":      {parse: restful.ParseJSON, in: `{"a":`},
		"json trailing":    {parse: restful.ParseJSON, in: `{} {}`},
		"yaml":             {parse: restful.ParseYAML, in: "a: [1, 2"},
		"xml unclosed":     {parse: restful.ParseXML, in: `<a><b></a>`},
		"xml no root":      {parse: restful.ParseXML, in: `<?xml version="1.0"?>`},
		"form":             {parse: restful.ParseForm, in: "a=%zz"},
		"cbor":             {parse: restful.ParseCBOR, in: "\xff\xff"},
		"msgpack":          {parse: restful.ParseMsgpack, in: "\xc1"},
		"msgpack trailing": {parse: restful.ParseMsgpack, in: "\x01\x02"},
		"php":              {parse: restful.ParsePHP, in: "a:1:{"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.parse([]byte(tc.in))
			assert.Error(t, err)
		})
	}
}

// TestRenderers_round_trip renders a value with each built-in renderer and
// reads it back with the parser for the same content type.
func TestRenderers_round_trip(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"name": "ann",
		"tags": []any{"a", "b"},
	}

	parsers := restful.DefaultParsers()
	for ct, r := range restful.DefaultRenderers().Renderers() {
		t.Run(ct, func(t *testing.T) {
			t.Parallel()

			out, err := r.Render(data)
			require.NoError(t, err)

			parse, ok := parsers.Parser(ct)
			require.True(t, ok)
			got, err := parse(out)
			require.NoError(t, err)

			if ct == restful.MIMEPHPSerialized {
				obj, ok := got.(interface{ Map() map[string]any })
				require.True(t, ok, "php renders an object")
				got = obj.Map()
			}
			if diff := cmp.Diff(data, got); diff != "" {
				t.Errorf("%s round trip mismatch (-want +got):\n%s", ct, diff)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	out, err := restful.RenderJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(out))
}

func TestRenderXML(t *testing.T) {
	t.Parallel()

	type item struct {
		Name string `xml:"name"`
	}

	tests := map[string]struct {
		in   any
		want string
	}{
		"map": {
			in:   map[string]any{"b": 2, "a": "x"},
			want: `<response><a>x</a><b>2</b></response>`,
		},
		"sequence": {
			in:   []any{1, 2},
			want: `<response><item>1</item><item>2</item></response>`,
		},
		"nested list": {
			in:   map[string]any{"tag": []string{"a", "b"}},
			want: `<response><tag>a</tag><tag>b</tag></response>`,
		},
		"nil": {
			in:   nil,
			want: `<response></response>`,
		},
		"numeric key": {
			in:   map[string]any{"1": "a"},
			want: `<response><item key="1">a</item></response>`,
		},
		"space key": {
			in:   map[string]any{"b c": "d"},
			want: `<response><item key="b c">d</item></response>`,
		},
		"struct uses its tags": {
			in:   item{Name: "n"},
			want: `<item><name>n</name></item>`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := restful.RenderXML(tc.in)
			require.NoError(t, err)
			s := string(out)
			require.True(t, strings.HasPrefix(s, "<?xml"), "has an XML header")
			assert.Equal(t, tc.want, strings.TrimPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"))
		})
	}
}

func TestRenderXML_invalid_names_read_back(t *testing.T) {
	t.Parallel()

	out, err := restful.RenderXML(map[string]any{"1": "a", "b c": "d"})
	require.NoError(t, err)

	got, err := restful.ParseXML(out)
	require.NoError(t, err)

	want := map[string]any{
		"item": []any{
			map[string]any{"@key": "1", "#text": "a"},
			map[string]any{"@key": "b c", "#text": "d"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("xml mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	out, err := restful.RenderYAML(map[string]any{"a": 1, "b": []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb:\n  - x\n", string(out))
}

func TestCBOR_integers(t *testing.T) {
	t.Parallel()

	out, err := restful.RenderCBOR(map[string]any{"n": 5, "m": -5})
	require.NoError(t, err)

	got, err := restful.ParseCBOR(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": uint64(5), "m": int64(-5)}, got)
}

func TestMsgpack_struct_uses_json_tags(t *testing.T) {
	t.Parallel()

	type user struct {
		Name string `json:"name"`
	}

	out, err := restful.RenderMsgpack(user{Name: "ann"})
	require.NoError(t, err)

	got, err := restful.ParseMsgpack(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ann"}, got)
}
