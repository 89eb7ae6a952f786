package ember

import (
	"io"
	"strings"
)

// BodyKind discriminates how a Request's body is stored.
type BodyKind uint8

// BodyKind values.
const (
	BodyAbsent BodyKind = iota
	BodyMemory
	BodySpooled
)

// Body is a Request's entity body: either absent, held fully in memory, or
// spooled to a temporary file once it exceeded the store-in-file
// threshold.
type Body struct {
	Kind BodyKind
	mem  []byte
	path string
}

// Reader returns a fresh io.ReadCloser over the body's content.
func (b *Body) Reader() (io.ReadCloser, error) {
	switch b.Kind {
	case BodyMemory:
		return io.NopCloser(strings.NewReader(string(b.mem))), nil
	case BodySpooled:
		f, err := openSpoolFile(b.path)
		if err != nil {
			return nil, Wrap(err)
		}
		return f, nil
	default:
		return io.NopCloser(strings.NewReader("")), nil
	}
}

// Bytes returns the body content as a []byte, reading the spool file if
// necessary.
func (b *Body) Bytes() ([]byte, error) {
	if b.Kind == BodyMemory {
		return b.mem, nil
	}
	r, err := b.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Path returns the spool file path, or "" if the body is not spooled.
func (b *Body) Path() string { return b.path }

// Request is an incoming HTTP request.
type Request struct {
	Method  string
	URL     *URL
	Headers Headers
	Body    *Body

	ContentLength int64

	// Uploads holds the parsed multipart/form-data file parts, keyed by
	// form field name. Populated by parseMultipartBody (multipart.go).
	Uploads map[string][]*Upload

	// RemoteAddr is the client's address, set by the connection loop.
	RemoteAddr string

	// form holds the parsed application/x-www-form-urlencoded or
	// multipart/form-data field values, populated by parseForm
	// (multipart.go). Nil until the handler (or Bind) first needs it.
	form *Query

	// originalURL is the URL as received, before any resolver rewrote
	// URL. It survives resolution and is returned by OriginalURL:
	// handlers see the post-rewrite URL, while OriginalURL still reports
	// what the client actually asked for.
	originalURL *URL

	// conn back-references the connection, used by File to reach the
	// server's static-file cache.
	conn *conn

	// cfg is the server Config in effect when the request was read,
	// used by parseForm to decide upload spooling thresholds and temp
	// directory.
	cfg *Config
}

// OriginalURL returns the request URL as the client sent it, unaffected
// by any resolver rewriting.
func (r *Request) OriginalURL() *URL {
	if r.originalURL != nil {
		return r.originalURL
	}
	return r.URL
}

// Cookies parses and returns the request's Cookie header.
func (r *Request) Cookies() []*Cookie {
	return ParseCookies(r.Headers.First("cookie"))
}

// Cookie returns the named cookie, or nil if absent.
func (r *Request) Cookie(name string) *Cookie {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Form returns the request's parsed form values (body fields for
// application/x-www-form-urlencoded and multipart/form-data requests),
// parsing them on first call.
func (r *Request) Form() (*Query, error) {
	if r.form != nil {
		return r.form, nil
	}
	if err := parseForm(r); err != nil {
		return nil, err
	}
	return r.form, nil
}

// FormValue returns the first value of name from the parsed form body,
// falling back to the query string.
func (r *Request) FormValue(name string) string {
	if form, err := r.Form(); err == nil {
		if vs := form.Values(name); len(vs) > 0 {
			return vs[0]
		}
	}
	return r.URL.Query().Get(name)
}
