package mime

import (
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	JSON           MIME = "application/json"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	// Unknown is assumed for uploaded files coming without Content-Type.
	Unknown MIME = "application/unknown"
)

// Complies returns whether the Content-Type value denotes the MIME. Parameters are
// ignored, the comparison is case-insensitive.
func Complies(mime MIME, contentType string) bool {
	contentType, _, _ = strings.Cut(contentType, ";")
	return strcomp.EqualFold(strings.TrimSpace(contentType), mime)
}
