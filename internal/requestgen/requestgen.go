package requestgen

import (
	"strconv"
	"strings"

	"github.com/bricklayer/cyclone/http/headers"
	"github.com/dchest/uniuri"
)

// Headers generates n headers, the last one always being the Host.
func Headers(n int) *headers.Headers {
	hdrs := headers.NewPrealloc(n)

	for i := 0; i < n-1; i++ {
		hdrs.Set("some-random-header-name-nobody-cares-about"+strconv.Itoa(i), strings.Repeat("b", 100))
	}

	return hdrs.Set("Host", "localhost")
}

func HeadersBlock(hdrs *headers.Headers) (buff []byte) {
	for key, value := range hdrs.Iter() {
		buff = append(buff, key+": "+value+"\r\n"...)
	}

	return buff
}

// Generate builds a raw request. Content-Length is set implicitly if the body is
// not empty.
func Generate(method, target, protocol string, hdrs *headers.Headers, body []byte) (request []byte) {
	if hdrs == nil {
		hdrs = headers.New()
	}

	if len(body) > 0 && !hdrs.Has("Content-Length") {
		hdrs = hdrs.Clone().Set("Content-Length", strconv.Itoa(len(body)))
	}

	request = append(request, method+" "+target+" "+protocol+"\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)
	request = append(request, '\r', '\n')

	return append(request, body...)
}

// Field is a single multipart entry. Filename makes it a file upload, ContentType is
// omitted if empty.
type Field struct {
	Name, Filename, ContentType, Value string
}

// Multipart encodes the fields as a multipart/form-data body delimited by a random
// boundary. The returned content type carries the boundary in the canonical form.
func Multipart(fields ...Field) (contentType string, body []byte) {
	return MultipartWithBoundary(uniuri.NewLen(24), fields...)
}

func MultipartWithBoundary(boundary string, fields ...Field) (contentType string, body []byte) {
	var b strings.Builder

	for _, field := range fields {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString(`Content-Disposition: form-data; name="` + field.Name + `"`)
		if len(field.Filename) > 0 {
			b.WriteString(`; filename="` + field.Filename + `"`)
		}

		b.WriteString("\r\n")
		if len(field.ContentType) > 0 {
			b.WriteString("Content-Type: " + field.ContentType + "\r\n")
		}

		b.WriteString("\r\n" + field.Value + "\r\n")
	}

	b.WriteString("--" + boundary + "--\r\n")

	return "multipart/form-data; boundary=" + boundary, []byte(b.String())
}

// Disperse splits data into chunks of at most n bytes each.
func Disperse(data []byte, n int) (parts [][]byte) {
	for len(data) > n {
		parts = append(parts, data[:n])
		data = data[n:]
	}

	if len(data) > 0 {
		parts = append(parts, data)
	}

	return parts
}
