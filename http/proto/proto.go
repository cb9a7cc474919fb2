package proto

import "strings"

type Protocol uint8

const (
	Unknown Protocol = iota
	HTTP10
	HTTP11
)

// Scheme is the prefix every protocol token of a request line must start with.
const Scheme = "HTTP/"

func (p Protocol) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

// FromString returns the protocol matching the token exactly, or Unknown.
func FromString(token string) Protocol {
	switch token {
	case "HTTP/1.1":
		return HTTP11
	case "HTTP/1.0":
		return HTTP10
	default:
		return Unknown
	}
}

// HasScheme reports whether the token looks like an HTTP protocol version at all.
func HasScheme(token string) bool {
	return strings.HasPrefix(token, Scheme)
}
