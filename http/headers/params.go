package headers

import (
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

// ValueOf returns a value until first semicolon is met.
func ValueOf(str string) string {
	if index := strings.IndexByte(str, ';'); index != -1 {
		return strings.TrimSpace(str[:index])
	}

	return str
}

// ParamOf looks for a semicolon-separated parameter in a header value, e.g. the boundary
// of a multipart content type. Parameter names are matched case-insensitively, a single
// pair of surrounding double quotes is stripped from the value. If the parameter isn't
// presented, `or` is returned.
func ParamOf(str, key, or string) string {
	_, params, found := strings.Cut(str, ";")
	if !found {
		return or
	}

	for len(params) > 0 {
		var param string
		param, params, _ = strings.Cut(params, ";")
		name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strcomp.EqualFold(strings.TrimSpace(name), key) {
			continue
		}

		return Unquote(strings.TrimSpace(value))
	}

	return or
}

// Unquote strips a single pair of surrounding double quotes.
func Unquote(str string) string {
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}
