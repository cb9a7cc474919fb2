package formdata

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/bricklayer/cyclone/http/headers"
	"github.com/bricklayer/cyclone/http/mime"
	"github.com/bricklayer/cyclone/http/status"
	"github.com/indigo-web/utils/uf"
)

// DefaultContentType is assigned to uploaded files which didn't declare their own.
const DefaultContentType = mime.Unknown

// Part is a single decoded multipart/form-data entry. Parts with a non-empty Filename
// are file uploads, the rest are plain form values.
type Part struct {
	Name, Filename, ContentType string
	Value                       []byte
}

func (p Part) IsFile() bool {
	return len(p.Filename) > 0
}

// Multipart splits a multipart/form-data body into parts. Malformed parts are yielded
// along with an error wrapping status.ErrMalformedMultipart and must be skipped by the
// caller, the rest of the body is still processed. Values reference the data.
func Multipart(data []byte, boundary string) iter.Seq2[Part, error] {
	return func(yield func(Part, error) bool) {
		footer := len(boundary) + len("--") + len("--")
		if bytes.HasSuffix(data, []byte("\r\n")) {
			footer += len("\r\n")
		}

		if footer > len(data) {
			return
		}

		separator := []byte("--" + boundary + "\r\n")

		for _, raw := range bytes.Split(data[:len(data)-footer], separator) {
			if len(raw) == 0 {
				continue
			}

			part, err := parsePart(raw)
			if !yield(part, err) {
				return
			}
		}
	}
}

func parsePart(raw []byte) (Part, error) {
	eoh := bytes.Index(raw, []byte("\r\n\r\n"))
	if eoh == -1 {
		return Part{}, fmt.Errorf("%w: missing headers", status.ErrMalformedMultipart)
	}

	hdrs, err := headers.Parse(uf.B2S(raw[:eoh]))
	if err != nil {
		return Part{}, fmt.Errorf("%w: %w", status.ErrMalformedMultipart, err)
	}

	disposition := hdrs.Value("Content-Disposition")
	if !strings.HasPrefix(disposition, "form-data;") || !bytes.HasSuffix(raw, []byte("\r\n")) {
		return Part{}, fmt.Errorf("%w: invalid content disposition", status.ErrMalformedMultipart)
	}

	var part Part

	for _, param := range strings.Split(disposition[len("form-data;"):], ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found {
			continue
		}

		switch key {
		case "name":
			part.Name = headers.Unquote(value)
		case "filename":
			part.Filename = headers.Unquote(value)
		}
	}

	if len(part.Name) == 0 {
		return part, fmt.Errorf("%w: value missing name", status.ErrMalformedMultipart)
	}

	if part.IsFile() {
		part.ContentType = hdrs.ValueOr("Content-Type", DefaultContentType)
	}

	// an empty value shares its trailing CRLF with the end of headers
	if end := len(raw) - len("\r\n"); end >= eoh+len("\r\n\r\n") {
		part.Value = raw[eoh+len("\r\n\r\n") : end]
	}

	return part, nil
}
