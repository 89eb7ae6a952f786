package ember

import (
	"sort"
	"strings"
)

// Header is a single HTTP header: a name and its (possibly repeated)
// values.
type Header struct {
	Name   string
	Values []string
}

// FirstValue returns the first value of the h. It returns "" if the h is
// nil or there are no values.
func (h *Header) FirstValue() string {
	if h == nil || len(h.Values) == 0 {
		return ""
	}
	return h.Values[0]
}

// Headers is a case-insensitive HTTP header map, used to carry every
// header the request/response model does not give a typed field to. An
// unknown header is retained here rather than dropped.
type Headers map[string][]string

// Get gets the values associated with the key.
//
// The key is case insensitive and will be canonicalized by
// strings.ToLower. To use non-canonical keys, access the map directly.
func (hs Headers) Get(key string) []string {
	return hs[strings.ToLower(key)]
}

// Set sets the entries associated with the key to the values.
func (hs Headers) Set(key string, values ...string) {
	hs[strings.ToLower(key)] = values
}

// Delete deletes the values associated with the key.
func (hs Headers) Delete(key string) {
	delete(hs, strings.ToLower(key))
}

// First tries to return the first value associated with the key. It
// returns "" if there are no values associated with the key.
func (hs Headers) First(key string) string {
	if vs := hs.Get(key); len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Append appends the value to the entries associated with the key.
func (hs Headers) Append(key string, value string) {
	hs.Set(key, append(hs.Get(key), value)...)
}

// Has reports whether the key has at least one value.
func (hs Headers) Has(key string) bool {
	return len(hs[strings.ToLower(key)]) > 0
}

// Entries returns hs as a slice of Header, sorted by name, so callers that
// need to walk every header get a stable order instead of a map's.
func (hs Headers) Entries() []Header {
	names := make([]string, 0, len(hs))
	for name := range hs {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Header, len(names))
	for i, name := range names {
		entries[i] = Header{Name: name, Values: hs[name]}
	}
	return entries
}
