package http1

type connState uint8

const (
	// eAwaitingHeaders collects request and header lines until an empty line.
	eAwaitingHeaders connState = iota
	// eAwaitingBody collects exactly Content-Length bytes of the current request.
	eAwaitingBody
	// eClosed is terminal. Nothing is parsed anymore.
	eClosed
)

func (s connState) String() string {
	switch s {
	case eAwaitingHeaders:
		return "awaiting headers"
	case eAwaitingBody:
		return "awaiting body"
	case eClosed:
		return "closed"
	default:
		return "unknown"
	}
}
