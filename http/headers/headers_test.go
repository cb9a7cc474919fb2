package headers

import (
	"testing"

	"github.com/bricklayer/cyclone/http/status"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	t.Run("case insensitive set and get", func(t *testing.T) {
		h := New().Set("x-foo", "1")
		require.Equal(t, "1", h.Value("X-Foo"))
		require.Equal(t, "1", h.Value("X-FOO"))
		require.Equal(t, "1", h.Value("x-foo"))
		require.Equal(t, []Pair{{Key: "X-Foo", Value: "1"}}, h.Expose())
	})

	t.Run("last write wins", func(t *testing.T) {
		h := New().
			Set("Content-Type", "text/plain").
			Set("Host", "localhost").
			Set("content-type", "text/html")
		require.Equal(t, 2, h.Len())
		require.Equal(t, "text/html", h.Value("Content-Type"))
		require.Equal(t, "Content-Type", h.Expose()[0].Key)
	})

	t.Run("ValueOr", func(t *testing.T) {
		h := New().Set("Hello", "world")
		require.Equal(t, "world", h.ValueOr("hello", "nope"))
		require.Equal(t, "nope", h.ValueOr("random", "nope"))
		require.Empty(t, h.Value("random"))
	})

	t.Run("Has and Delete", func(t *testing.T) {
		h := New().Set("Hello", "world").Set("Some", "value")
		require.True(t, h.Has("hELLO"))
		h.Delete("HELLO")
		require.False(t, h.Has("Hello"))
		require.True(t, h.Has("some"))
	})

	t.Run("Iter keeps insertion order", func(t *testing.T) {
		h := New().Set("b", "1").Set("a", "2").Set("c", "3")
		var keys []string
		for key := range h.Iter() {
			keys = append(keys, key)
		}

		require.Equal(t, []string{"B", "A", "C"}, keys)
	})

	t.Run("Clone is independent", func(t *testing.T) {
		h := New().Set("Hello", "world")
		clone := h.Clone()
		clone.Set("Hello", "nether")
		require.Equal(t, "world", h.Value("Hello"))
	})
}

func TestCanonicalize(t *testing.T) {
	for _, tc := range []struct {
		Name, Want string
	}{
		{"content-type", "Content-Type"},
		{"CONTENT-TYPE", "Content-Type"},
		{"Content-Type", "Content-Type"},
		{"x-real-ip", "X-Real-Ip"},
		{"host", "Host"},
		{"-leading", "-Leading"},
		{"double--dash", "Double--Dash"},
		{"", ""},
	} {
		require.Equal(t, tc.Want, Canonicalize(tc.Name), tc.Name)
		require.Equal(t, tc.Want, Canonicalize(Canonicalize(tc.Name)), "idempotency of %q", tc.Name)
	}
}

func TestParse(t *testing.T) {
	t.Run("regular block", func(t *testing.T) {
		h, err := Parse("\r\nHost: localhost\r\ncontent-length: 13\r\nX-Empty:\r\n")
		require.NoError(t, err)
		require.Equal(t, "localhost", h.Value("Host"))
		require.Equal(t, "13", h.Value("Content-Length"))
		require.True(t, h.Has("X-Empty"))
		require.Empty(t, h.Value("X-Empty"))
	})

	t.Run("single space is stripped only", func(t *testing.T) {
		h, err := Parse("A:  two spaces\r\nB:none\r\nC: a:b:c\r\n")
		require.NoError(t, err)
		require.Equal(t, " two spaces", h.Value("A"))
		require.Equal(t, "none", h.Value("B"))
		require.Equal(t, "a:b:c", h.Value("C"))
	})

	t.Run("repeated header overrides", func(t *testing.T) {
		h, err := Parse("Cookie: a=1\r\ncookie: b=2\r\n")
		require.NoError(t, err)
		require.Equal(t, 1, h.Len())
		require.Equal(t, "b=2", h.Value("Cookie"))
	})

	t.Run("line without colon", func(t *testing.T) {
		_, err := Parse("Host: localhost\r\nbroken line\r\n")
		require.ErrorIs(t, err, status.ErrMalformedHeaders)
	})

	t.Run("empty block", func(t *testing.T) {
		h, err := Parse("")
		require.NoError(t, err)
		require.Zero(t, h.Len())
	})
}

func TestParamOf(t *testing.T) {
	const ct = "multipart/form-data; boundary=----WebKitFormBoundary"
	require.Equal(t, "----WebKitFormBoundary", ParamOf(ct, "boundary", ""))
	require.Equal(t, "quoted", ParamOf(`multipart/form-data; charset=utf8; BOUNDARY="quoted"`, "boundary", ""))
	require.Equal(t, "none", ParamOf("multipart/form-data", "boundary", "none"))
	require.Equal(t, "multipart/form-data", ValueOf(ct))
	require.Equal(t, "text/plain", ValueOf("text/plain"))
}
