package urlencoded

import (
	"testing"

	"github.com/bricklayer/cyclone/http/status"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("nothing to decode", func(t *testing.T) {
		decoded, _, err := Decode([]byte("hello"), nil)
		require.NoError(t, err)
		require.Equal(t, "hello", string(decoded))
	})

	t.Run("percents", func(t *testing.T) {
		decoded, _, err := Decode([]byte("%2Fa%20b%2f"), nil)
		require.NoError(t, err)
		require.Equal(t, "/a b/", string(decoded))
	})

	t.Run("plus is kept", func(t *testing.T) {
		decoded, _, err := Decode([]byte("a+b%21"), nil)
		require.NoError(t, err)
		require.Equal(t, "a+b!", string(decoded))
	})

	t.Run("incomplete sequence", func(t *testing.T) {
		_, _, err := Decode([]byte("abc%2"), nil)
		require.ErrorIs(t, err, status.ErrURLDecoding)
	})

	t.Run("bad hex", func(t *testing.T) {
		_, _, err := Decode([]byte("%zz"), nil)
		require.ErrorIs(t, err, status.ErrURLDecoding)
	})
}

func TestExtendedDecode(t *testing.T) {
	decoded, _, err := ExtendedDecode([]byte("hello+world%21"), nil)
	require.NoError(t, err)
	require.Equal(t, "hello world!", string(decoded))

	decoded, buff, err := ExtendedDecode([]byte("a+b"), []byte("prefix"))
	require.NoError(t, err)
	require.Equal(t, "a b", string(decoded))
	require.Equal(t, "prefixa b", string(buff))

	_, _, err = ExtendedDecode([]byte("a+%g1"), nil)
	require.ErrorIs(t, err, status.ErrURLDecoding)
}

func TestDecodeString(t *testing.T) {
	require.Equal(t, "a b/c", DecodeString("a+b%2Fc"))
	require.Equal(t, "100%", DecodeString("100%"))
}
