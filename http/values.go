package http

import "github.com/bricklayer/cyclone/internal/formdata"

// Arguments map argument names onto their values in order of appearance.
type Arguments map[string][]string

func (a Arguments) Add(name, value string) {
	a[name] = append(a[name], value)
}

// Value returns the first value of the argument, or an empty string.
func (a Arguments) Value(name string) string {
	return a.ValueOr(name, "")
}

func (a Arguments) ValueOr(name, or string) string {
	if values := a[name]; len(values) > 0 {
		return values[0]
	}

	return or
}

func (a Arguments) Has(name string) bool {
	return len(a[name]) > 0
}

// File is a single uploaded file. ContentType comes from the client as is, so it must
// not be trusted.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Files map form field names onto uploaded files in order of appearance.
type Files map[string][]File

func (f Files) Add(name string, file File) {
	f[name] = append(f[name], file)
}

// AddForm merges application/x-www-form-urlencoded data into the arguments. Empty
// values are dropped.
func (r *Request) AddForm(data string) {
	for name, value := range formdata.URLEncoded(data) {
		r.Arguments.Add(name, value)
	}
}

// AddPart records a decoded multipart part either as a file or as an argument.
func (r *Request) AddPart(part formdata.Part) {
	if part.IsFile() {
		r.Files.Add(part.Name, File{
			Filename:    part.Filename,
			ContentType: part.ContentType,
			Body:        part.Value,
		})
		return
	}

	r.Arguments.Add(part.Name, string(part.Value))
}
