package ember

import (
	"net/url"
	"strconv"
	"strings"
)

// queryPair is one "key=value" pair in the order it appeared in the
// original query string.
type queryPair struct {
	key   string
	value string
}

// Query is an ordered multi-value query mapping: a key may repeat, and the
// original order of both keys and repeated values is preserved across a
// parse→serialize round trip.
type Query struct {
	pairs []queryPair
}

// ParseQuery parses an HTTP query string (without the leading "?") into a
// Query.
func ParseQuery(raw string) Query {
	q := Query{}
	if raw == "" {
		return q
	}
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		q.pairs = append(q.pairs, queryPair{key: key, value: val})
	}
	return q
}

// Values returns the sequence of values associated with key, in the order
// they appeared in the original query string.
func (q Query) Values(key string) []string {
	var vs []string
	for _, p := range q.pairs {
		if p.key == key {
			vs = append(vs, p.value)
		}
	}
	return vs
}

// Get returns the first value associated with key, or "" if there is none.
func (q Query) Get(key string) string {
	for _, p := range q.pairs {
		if p.key == key {
			return p.value
		}
	}
	return ""
}

// Keys returns the distinct keys in the order each first appeared.
func (q Query) Keys() []string {
	seen := map[string]bool{}
	var ks []string
	for _, p := range q.pairs {
		if !seen[p.key] {
			seen[p.key] = true
			ks = append(ks, p.key)
		}
	}
	return ks
}

// Add appends a value for key, returning the new Query (Query values are
// copy-on-write like the rest of the URL).
func (q Query) Add(key, value string) Query {
	nq := Query{pairs: append(append([]queryPair{}, q.pairs...), queryPair{key, value})}
	return nq
}

// String serializes the Query back into a query string.
func (q Query) String() string {
	b := strings.Builder{}
	for i, p := range q.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// URL is a parsed request URL exposing a secure flag, a host split into a
// current domain and a stack of parent domains consumed by outer
// resolvers, a port, a path split the same way, and an ordered query
// mapping.
//
// Mutating operations return a new URL (copy-on-write); a URL value itself
// is immutable once constructed.
type URL struct {
	Secure bool
	Port   int // 0 means unspecified

	currentDomain string
	parentDomains []string

	currentPath string
	parentPaths []string

	query Query
}

// NewURL builds a URL from its original (unrewritten) host and path plus
// the raw query string. Per scheme convention, Port is 0 when absent.
func NewURL(secure bool, host string, port int, path string, rawQuery string) *URL {
	host = strings.TrimSuffix(host, ".")
	return &URL{
		Secure:        secure,
		Port:          port,
		currentDomain: host,
		currentPath:   path,
		query:         ParseQuery(rawQuery),
	}
}

// Domain returns the current (not-yet-consumed) domain.
func (u *URL) Domain() string { return u.currentDomain }

// ParentDomains returns the stack of domain suffixes consumed by outer
// resolvers, oldest push first.
func (u *URL) ParentDomains() []string {
	return append([]string{}, u.parentDomains...)
}

// OriginalHost reconstructs the original Host header value: the current
// domain followed by every consumed parent domain, most recent push
// first (each push strips a suffix of what the previous one left).
func (u *URL) OriginalHost() string {
	b := strings.Builder{}
	b.WriteString(u.currentDomain)
	for i := len(u.parentDomains) - 1; i >= 0; i-- {
		b.WriteString(u.parentDomains[i])
	}
	return b.String()
}

// Path returns the current (not-yet-consumed) path.
func (u *URL) Path() string { return u.currentPath }

// ParentPaths returns the stack of path prefixes consumed by outer
// resolvers, oldest push first.
func (u *URL) ParentPaths() []string {
	return append([]string{}, u.parentPaths...)
}

// OriginalPath reconstructs the original request path: every consumed
// parent path prefix, in push order, followed by the current path.
func (u *URL) OriginalPath() string {
	b := strings.Builder{}
	for _, p := range u.parentPaths {
		b.WriteString(p)
	}
	b.WriteString(u.currentPath)
	return b.String()
}

// Query returns the URL's query mapping.
func (u *URL) Query() Query { return u.query }

// clone returns a shallow copy of u, ready to be mutated by With*.
func (u *URL) clone() *URL {
	c := *u
	c.parentDomains = append([]string{}, u.parentDomains...)
	c.parentPaths = append([]string{}, u.parentPaths...)
	return &c
}

// WithPath returns a copy of u whose current path is p.
//
// WithPath(p).Path() == p always holds.
func (u *URL) WithPath(p string) *URL {
	c := u.clone()
	c.currentPath = p
	return c
}

// WithParentPath returns a copy of u with consumed pushed onto the parent
// path stack and stripped as a prefix from the current path.
//
// When the current path ends with exactly consumed, the remainder becomes
// "/"; otherwise it is whatever trails after consumed.
func (u *URL) WithParentPath(consumed string) *URL {
	c := u.clone()
	c.parentPaths = append(c.parentPaths, consumed)
	rest := strings.TrimPrefix(c.currentPath, consumed)
	if rest == "" {
		rest = "/"
	}
	c.currentPath = rest
	return c
}

// WithDomain returns a copy of u whose current domain is d.
func (u *URL) WithDomain(d string) *URL {
	c := u.clone()
	c.currentDomain = d
	return c
}

// WithParentDomain returns a copy of u with consumed pushed onto the
// parent domain stack and stripped as a suffix from the current domain.
//
// WithParentDomain(d).Domain() == originalDomain[:len(originalDomain)-len(d)]
// when the domain ends with d.
func (u *URL) WithParentDomain(consumed string) *URL {
	c := u.clone()
	c.parentDomains = append(c.parentDomains, consumed)
	c.currentDomain = strings.TrimSuffix(c.currentDomain, consumed)
	return c
}

// WithQuery returns a copy of u whose query mapping is q.
func (u *URL) WithQuery(q Query) *URL {
	c := u.clone()
	c.query = q
	return c
}

// String serializes the URL back into its original form.
func (u *URL) String() string {
	b := strings.Builder{}
	if u.Secure {
		b.WriteString("https://")
	} else {
		b.WriteString("http://")
	}
	b.WriteString(u.OriginalHost())
	if u.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.OriginalPath())
	if qs := u.query.String(); qs != "" {
		b.WriteByte('?')
		b.WriteString(qs)
	}
	return b.String()
}
