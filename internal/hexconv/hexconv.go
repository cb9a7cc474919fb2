package hexconv

// Halfbyte maps an ASCII hex digit to its value. Non-hex characters map to 0xFF, so
// OR-ing two looked up values and comparing against 0x0F validates both at once.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xFF
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('a'); c <= 'f'; c++ {
		table[c] = c - 'a' + 0xa
		table[c-('a'-'A')] = c - 'a' + 0xa
	}

	return table
}()
