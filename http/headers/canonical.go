package headers

// Canonicalize brings the name to Http-Header-Case: every dash-separated segment
// gets its first letter upper-cased and the rest lower-cased. Already canonical
// names are returned as is without allocating.
func Canonicalize(name string) string {
	if isCanonical(name) {
		return name
	}

	buff := []byte(name)
	upper := true

	for i, c := range buff {
		switch {
		case c == '-':
			upper = true
			continue
		case upper && 'a' <= c && c <= 'z':
			buff[i] = c - ('a' - 'A')
		case !upper && 'A' <= c && c <= 'Z':
			buff[i] = c + ('a' - 'A')
		}

		upper = false
	}

	return string(buff)
}

func isCanonical(name string) bool {
	upper := true

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-':
			upper = true
			continue
		case upper && 'a' <= c && c <= 'z':
			return false
		case !upper && 'A' <= c && c <= 'Z':
			return false
		}

		upper = false
	}

	return true
}
