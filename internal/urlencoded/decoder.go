package urlencoded

import (
	"bytes"

	"github.com/bricklayer/cyclone/http/status"
	"github.com/bricklayer/cyclone/internal/hexconv"
	"github.com/indigo-web/utils/uf"
)

// Decode decodes percent-encoded sequences of src into dst, but omits it if there's
// nothing to be decoded.
func Decode(src, dst []byte) (decoded, buffer []byte, err error) {
	percent := bytes.IndexByte(src, '%')
	if percent == -1 {
		return src, dst, nil
	}

	dsthead := len(dst)

	for percent != -1 {
		if percent > len(src)-3 {
			return nil, dst, status.ErrURLDecoding
		}

		dst = append(dst, src[:percent]...)
		a, b := hexconv.Halfbyte[src[percent+1]], hexconv.Halfbyte[src[percent+2]]
		if a|b > 0x0f {
			return nil, dst, status.ErrURLDecoding
		}

		dst = append(dst, (a<<4)|b)
		src = src[percent+3:]
		percent = bytes.IndexByte(src, '%')
	}

	dst = append(dst, src...)
	return dst[dsthead:], dst, nil
}

// ExtendedDecode is the same as Decode, but on top also decodes + as spaces.
func ExtendedDecode(src, dst []byte) (decoded, buffer []byte, err error) {
	if bytes.IndexByte(src, '+') == -1 {
		return Decode(src, dst)
	}

	dsthead := len(dst)

	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '+':
			dst = append(dst, ' ')
		case '%':
			if i > len(src)-3 {
				return nil, dst, status.ErrURLDecoding
			}

			a, b := hexconv.Halfbyte[src[i+1]], hexconv.Halfbyte[src[i+2]]
			if a|b > 0x0f {
				return nil, dst, status.ErrURLDecoding
			}

			dst = append(dst, (a<<4)|b)
			i += 2
		default:
			dst = append(dst, c)
		}
	}

	return dst[dsthead:], dst, nil
}

// DecodeString decodes a form value. Malformed escape sequences are left as they are.
func DecodeString(src string) string {
	decoded, _, err := ExtendedDecode(uf.S2B(src), nil)
	if err != nil {
		return src
	}

	return string(decoded)
}
