package ember

import (
	"net"
	"strings"
	"time"
)

// SameSite is the SameSite attribute of a cookie.
type SameSite uint8

// SameSite values.
const (
	SameSiteUnset SameSite = iota
	SameSiteNone
	SameSiteLax
	SameSiteStrict
)

// Cookie is an HTTP cookie.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	HTTPOnly bool
	SameSite SameSite
	Secure   bool
}

// String returns the Set-Cookie serialization of c, per RFC 6265. It
// returns "" if c.Name is not a valid cookie token.
func (c *Cookie) String() string {
	if !validCookieName(c.Name) {
		return ""
	}

	b := strings.Builder{}

	n := strings.NewReplacer("\r", "-", "\n", "-").Replace(c.Name)
	v := sanitize(c.Value, validCookieValueByte)
	if strings.IndexByte(v, ' ') >= 0 || strings.IndexByte(v, ',') >= 0 {
		v = `"` + v + `"`
	}

	b.WriteString(n)
	b.WriteByte('=')
	b.WriteString(v)

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(sanitize(c.Path, func(ch byte) bool {
			return ch >= 0x20 && ch < 0x7f && ch != ';'
		}))
	}

	if validCookieDomain(c.Domain) {
		d := c.Domain
		if d[0] == '.' {
			d = d[1:]
		}
		b.WriteString("; Domain=")
		b.WriteString(d)
	}

	if c.Expires.Year() >= 1601 {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(time.RFC1123))
		// RFC 1123 produces a "UTC" zone name; RFC 6265 wants "GMT".
		s := b.String()
		if strings.HasSuffix(s, "UTC") {
			b.Reset()
			b.WriteString(s[:len(s)-3])
			b.WriteString("GMT")
		}
	}

	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	switch c.SameSite {
	case SameSiteLax:
		b.WriteString("; SameSite=Lax")
	case SameSiteStrict:
		b.WriteString("; SameSite=Strict")
	case SameSiteNone:
		b.WriteString("; SameSite=None")
	}

	if c.Secure {
		b.WriteString("; Secure")
	}

	return b.String()
}

// ParseCookies parses the value of a request's Cookie header into a
// sequence of Cookies, tolerating both quoted and unquoted values and the
// legacy "$Version"/"$Path"/"$Domain" syntax.
func ParseCookies(header string) []*Cookie {
	var cookies []*Cookie
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		if strings.HasPrefix(name, "$") {
			// Legacy $Version/$Path/$Domain attribute of the
			// preceding cookie: attach what we can and move on.
			attachLegacyAttr(cookies, name, value)
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) > 1 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if !validCookieName(name) {
			continue
		}

		cookies = append(cookies, &Cookie{Name: name, Value: value})
	}
	return cookies
}

// attachLegacyAttr applies a legacy "$Path"/"$Domain" attribute from the
// old RFC 2109 Cookie header syntax to the most recently parsed cookie.
func attachLegacyAttr(cookies []*Cookie, name, value string) {
	if len(cookies) == 0 {
		return
	}
	last := cookies[len(cookies)-1]
	value = strings.Trim(strings.TrimSpace(value), `"`)
	switch strings.ToLower(name) {
	case "$path":
		last.Path = value
	case "$domain":
		last.Domain = value
	}
}

// validCookieName returns whether n is a valid cookie name.
func validCookieName(n string) bool {
	if n == "" {
		return false
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c <= 0x20 || c >= 0x7f {
			return false
		}
		switch c {
		case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/',
			'[', ']', '?', '=', '{', '}', ' ':
			return false
		}
	}
	return true
}

// validCookieValueByte reports whether b may appear in a serialized
// cookie value. Space and comma are allowed; String quotes a value that
// contains either.
func validCookieValueByte(b byte) bool {
	return b >= 0x20 && b <= 0x7e && b != '"' && b != ';' && b != '\\'
}

// validCookieDomain returns whether d is a valid cookie domain.
func validCookieDomain(d string) bool {
	if l := len(d); l == 0 || l > 255 {
		return false
	}

	if net.ParseIP(d) != nil && !strings.Contains(d, ":") {
		return true
	}

	if d[0] == '.' {
		d = d[1:]
	}

	ok := false
	last := byte('.')
	partLen := 0
	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			ok = true
			partLen++
		case '0' <= c && c <= '9':
			partLen++
		case c == '-':
			if last == '.' {
				return false
			}
			partLen++
		case c == '.':
			if last == '.' || last == '-' {
				return false
			}
			if partLen > 63 || partLen == 0 {
				return false
			}
			partLen = 0
		default:
			return false
		}
		last = c
	}

	if last == '-' || partLen > 63 {
		return false
	}

	return ok
}

// sanitize returns s unchanged if every byte satisfies valid, otherwise a
// copy with invalid bytes dropped.
func sanitize(s string, valid func(byte) bool) string {
	ok := true
	for i := 0; i < len(s); i++ {
		if !valid(s[i]) {
			ok = false
			break
		}
	}
	if ok {
		return s
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if b := s[i]; valid(b) {
			buf = append(buf, b)
		}
	}
	return string(buf)
}

// maxAgeSeconds is a convenience for building an Expires time that is
// seconds in the future.
func maxAgeSeconds(seconds int) time.Time {
	if seconds <= 0 {
		return time.Unix(0, 0)
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}
