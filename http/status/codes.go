package status

type Code uint16

// Codes the connection layer classifies its failures with. Final responses are the
// application's business, so nothing else is kept here.
const (
	Continue Code = 100 // RFC 9110, 15.2.1

	BadRequest                  Code = 400 // RFC 9110, 15.5.1
	RequestEntityTooLarge       Code = 413 // RFC 9110, 15.5.14
	RequestHeaderFieldsTooLarge Code = 431 // RFC 6585, 5

	InternalServerError     Code = 500 // RFC 9110, 15.6.1
	HTTPVersionNotSupported Code = 505 // RFC 9110, 15.6.6

	// CloseConnection is not a real status code. It marks errors after which the
	// connection is torn down without any response.
	CloseConnection Code = 1
)

// ContinueLine is the literal interim response sent to clients waiting on
// `Expect: 100-continue`.
const ContinueLine = "HTTP/1.1 100 (Continue)\r\n\r\n"
