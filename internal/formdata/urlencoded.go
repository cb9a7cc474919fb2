package formdata

import (
	"iter"
	"strings"

	"github.com/bricklayer/cyclone/internal/urlencoded"
)

// URLEncoded walks application/x-www-form-urlencoded pairs, which is what query strings
// are made of as well. Both & and ; separate pairs. Pairs missing the equal sign or having
// an empty value are skipped. Names and values are decoded, malformed escape sequences
// are preserved as is.
func URLEncoded(data string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for len(data) > 0 {
			var pair string
			if i := strings.IndexAny(data, "&;"); i != -1 {
				pair, data = data[:i], data[i+1:]
			} else {
				pair, data = data, ""
			}

			key, value, found := strings.Cut(pair, "=")
			if !found || len(value) == 0 {
				continue
			}

			value = urlencoded.DecodeString(value)
			if len(value) == 0 {
				continue
			}

			if !yield(urlencoded.DecodeString(key), value) {
				return
			}
		}
	}
}
