package phpserial_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/restful/phpserial"
)

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   string
		want any
	}{
		"null":         {in: `N;`, want: nil},
		"true":         {in: `b:1;`, want: true},
		"false":        {in: `b:0;`, want: false},
		"int":          {in: `i:-12;`, want: int64(-12)},
		"float":        {in: `d:0.25;`, want: 0.25},
		"php exponent": {in: `d:1.0E+25;`, want: 1e25},
		"string":       {in: `s:5:"hello";`, want: "hello"},
		"embedded quote": {
			in:   `s:5:"a";b"";`,
			want: `a";b"`,
		},
		"multibyte": {in: `s:6:"héllo";`, want: "héllo"},
		"list":      {in: `a:2:{i:0;s:1:"a";i:1;i:2;}`, want: []any{"a", int64(2)}},
		"empty":     {in: `a:0:{}`, want: []any{}},
		"assoc": {
			in:   `a:2:{s:1:"x";i:1;i:5;b:1;}`,
			want: map[string]any{"x": int64(1), "5": true},
		},
		"sparse list": {
			in:   `a:2:{i:0;N;i:2;N;}`,
			want: map[string]any{"0": nil, "2": nil},
		},
		"object": {
			in: `O:8:"stdClass":2:{s:1:"a";i:1;s:1:"b";a:1:{i:0;d:2.5;}}`,
			want: &phpserial.Object{Class: "stdClass", Fields: []phpserial.Field{
				{Name: "a", Value: int64(1)},
				{Name: "b", Value: []any{2.5}},
			}},
		},
		"object with int keys": {
			in: `O:8:"stdClass":1:{i:0;s:1:"z";}`,
			want: &phpserial.Object{Class: "stdClass", Fields: []phpserial.Field{
				{Name: "0", Value: "z"},
			}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := phpserial.Unmarshal([]byte(tc.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Unmarshal(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestUnmarshal_special_floats(t *testing.T) {
	t.Parallel()

	got, err := phpserial.Unmarshal([]byte(`a:3:{i:0;d:INF;i:1;d:-INF;i:2;d:NAN;}`))
	require.NoError(t, err)

	list, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.True(t, math.IsInf(list[0].(float64), 1))
	assert.True(t, math.IsInf(list[1].(float64), -1))
	assert.True(t, math.IsNaN(list[2].(float64)))
}

func TestUnmarshal_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		wantMsg string
	}{
		"empty":             {in: ``, wantMsg: "unexpected end of input"},
		"unknown tag":       {in: `x:1;`, wantMsg: "unknown type tag"},
		"missing semicolon": {in: `i:1`, wantMsg: "expected ';'"},
		"bad int":           {in: `i:abc;`, wantMsg: "invalid integer"},
		"bad bool":          {in: `b:2;`, wantMsg: "invalid boolean"},
		"bad float":         {in: `d:1.2.3;`, wantMsg: "invalid float"},
		"short string":      {in: `s:10:"abc";`, wantMsg: "exceeds remaining input"},
		"long string":       {in: `s:1:"abc";`, wantMsg: `expected '"'`},
		"negative length":   {in: `a:-1:{}`, wantMsg: "invalid length"},
		"bad key":           {in: `a:1:{d:1.5;i:1;}`, wantMsg: "invalid key type"},
		"unterminated":      {in: `a:1:{i:0;i:1;`, wantMsg: "expected '}'"},
		"trailing":          {in: `N;N;`, wantMsg: "trailing data"},
		"reference":         {in: `a:2:{i:0;i:1;i:1;R:2;}`, wantMsg: "references are not supported"},
		"custom":            {in: `C:3:"Foo":0:{}`, wantMsg: "custom serialized"},
		"enum":              {in: `E:7:"Foo:Bar";`, wantMsg: "enums are not supported"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := phpserial.Unmarshal([]byte(tc.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, phpserial.ErrSyntax))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestUnmarshal_depth_limit(t *testing.T) {
	t.Parallel()

	var in []byte
	for range phpserial.MaxDepth + 2 {
		in = append(in, "a:1:{i:0;"...)
	}
	in = append(in, "N;"...)
	for range phpserial.MaxDepth + 2 {
		in = append(in, '}')
	}

	_, err := phpserial.Unmarshal(in)
	require.ErrorIs(t, err, phpserial.ErrSyntax)
	assert.Contains(t, err.Error(), "nesting exceeds")
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"name":  "widget",
		"count": 3,
		"price": 9.5,
		"tags":  []string{"a", "b"},
		"meta":  map[string]any{"ok": true, "none": nil},
	}

	b, err := phpserial.Marshal(in)
	require.NoError(t, err)

	got, err := phpserial.Unmarshal(b)
	require.NoError(t, err)

	want := map[string]any{
		"name":  "widget",
		"count": int64(3),
		"price": 9.5,
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"ok": true, "none": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
