package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrMalformedRequestLine = NewError(BadRequest, "malformed HTTP request line")
	ErrMalformedHeaders     = NewError(BadRequest, "malformed HTTP headers")
	ErrMalformedMultipart   = NewError(BadRequest, "malformed multipart/form-data part")
	ErrMalformedLength      = NewError(BadRequest, "malformed Content-Length value")
	ErrURLDecoding          = NewError(BadRequest, "invalid urlencoded sequence")
	ErrUnsupportedProtocol  = NewError(HTTPVersionNotSupported, "HTTP version not supported")
	ErrHeaderFieldsTooLarge = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "request body is too large")

	ErrRequestClosed    = NewError(InternalServerError, "request closed")
	ErrHandlerPanicked  = NewError(InternalServerError, "request handler panicked")
	ErrConnectionClosed = NewError(CloseConnection, "connection closed")
	ErrShutdown         = NewError(CloseConnection, "server is shut down")
)

// Fatal reports whether the error desynchronizes the byte stream, so the only
// sane reaction is dropping the connection.
func Fatal(err error) bool {
	for _, fatal := range []error{
		ErrMalformedRequestLine, ErrMalformedHeaders, ErrMalformedLength,
		ErrUnsupportedProtocol, ErrHeaderFieldsTooLarge, ErrBodyTooLarge,
	} {
		if errors.Is(err, fatal) {
			return true
		}
	}

	return false
}
