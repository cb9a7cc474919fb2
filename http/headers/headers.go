package headers

import (
	"iter"
	"strings"

	"github.com/bricklayer/cyclone/http/status"
)

type Pair struct {
	Key, Value string
}

// Headers is an ordered single-value header table. Keys are stored in their canonical
// Http-Header-Case form, so every case variant of a name addresses the same entry.
// Setting an existing key overrides its value in place, keeping the original position.
//
// Linear search is used instead of a map, as it proves to be more efficient on the
// amount of headers a regular request carries.
type Headers struct {
	pairs []Pair
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance with pre-allocated space for n pairs.
func NewPrealloc(n int) *Headers {
	return &Headers{
		pairs: make([]Pair, 0, n),
	}
}

// NewFromMap returns headers filled from the map. As maps are unordered, so will be
// the resulting pairs.
func NewFromMap(m map[string]string) *Headers {
	h := NewPrealloc(len(m))
	for key, value := range m {
		h.Set(key, value)
	}

	return h
}

// Parse builds a table out of a CRLF-joined header block. Empty lines are skipped.
// A single optional space after the colon is stripped, but nothing more. Repeated
// names override each other, so only the last value survives.
func Parse(block string) (*Headers, error) {
	h := NewPrealloc(strings.Count(block, "\n"))

	for len(block) > 0 {
		var line string
		line, block, _ = strings.Cut(block, "\n")
		line = strings.TrimSuffix(line, "\r")
		if len(line) == 0 {
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, status.ErrMalformedHeaders
		}

		h.Set(name, strings.TrimPrefix(value, " "))
	}

	return h, nil
}

// Set stores the value under the canonical form of the name, overriding the previous
// one if any.
func (h *Headers) Set(name, value string) *Headers {
	name = Canonicalize(name)
	if i := h.index(name); i != -1 {
		h.pairs[i].Value = value
		return h
	}

	h.pairs = append(h.pairs, Pair{Key: name, Value: value})
	return h
}

// Get returns the value and a bool, indicating whether it was found.
func (h *Headers) Get(name string) (value string, found bool) {
	if i := h.index(Canonicalize(name)); i != -1 {
		return h.pairs[i].Value, true
	}

	return "", false
}

// Value returns the value by the name or an empty string.
func (h *Headers) Value(name string) string {
	return h.ValueOr(name, "")
}

// ValueOr returns the value by the name or the provided default.
func (h *Headers) ValueOr(name, or string) string {
	value, found := h.Get(name)
	if !found {
		return or
	}

	return value
}

func (h *Headers) Has(name string) bool {
	return h.index(Canonicalize(name)) != -1
}

// Delete removes the entry, preserving the order of the rest.
func (h *Headers) Delete(name string) *Headers {
	if i := h.index(Canonicalize(name)); i != -1 {
		h.pairs = append(h.pairs[:i], h.pairs[i+1:]...)
	}

	return h
}

func (h *Headers) Len() int {
	return len(h.pairs)
}

// Iter returns an iterator over the pairs in insertion order.
func (h *Headers) Iter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range h.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Expose exposes the underlying pairs slice.
func (h *Headers) Expose() []Pair {
	return h.pairs
}

// Clone creates a deep copy.
func (h *Headers) Clone() *Headers {
	pairs := make([]Pair, len(h.pairs))
	copy(pairs, h.pairs)

	return &Headers{pairs: pairs}
}

func (h *Headers) String() string {
	var b strings.Builder
	b.WriteByte('{')

	for i, pair := range h.pairs {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(pair.Key)
		b.WriteString(": ")
		b.WriteString(pair.Value)
	}

	b.WriteByte('}')
	return b.String()
}

func (h *Headers) index(canonical string) int {
	for i, pair := range h.pairs {
		if pair.Key == canonical {
			return i
		}
	}

	return -1
}
