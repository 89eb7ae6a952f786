package ember

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryRoundTrip(t *testing.T) {
	q := ParseQuery("foo=bar&foo=baz&a+b=c%20d")
	assert.Equal(t, []string{"bar", "baz"}, q.Values("foo"))
	assert.Equal(t, "c d", q.Get("a b"))
	assert.Equal(t, []string{"foo", "a b"}, q.Keys())

	q2 := ParseQuery(q.String())
	assert.Equal(t, q.Values("foo"), q2.Values("foo"))
	assert.Equal(t, q.Get("a b"), q2.Get("a b"))
}

func TestURLWithPath(t *testing.T) {
	u := NewURL(true, "example.com", 8443, "/a/b", "q=1")
	u2 := u.WithPath("/c")
	assert.Equal(t, "/c", u2.Path())
	assert.Equal(t, "/a/b", u.Path(), "original URL must be unaffected (copy-on-write)")
}

func TestURLWithParentPath(t *testing.T) {
	u := NewURL(false, "example.com", 0, "/api/users/42", "")
	u2 := u.WithParentPath("/api")
	assert.Equal(t, "/users/42", u2.Path())
	assert.Equal(t, []string{"/api"}, u2.ParentPaths())
	assert.Equal(t, "/api/users/42", u2.OriginalPath())
}

func TestURLWithParentPathExactConsumedBecomesRoot(t *testing.T) {
	u := NewURL(false, "example.com", 0, "/api", "")
	u2 := u.WithParentPath("/api")
	assert.Equal(t, "/", u2.Path())
	assert.Equal(t, "/api", u2.OriginalPath())
}

func TestURLWithParentDomain(t *testing.T) {
	u := NewURL(false, "api.example.com", 0, "/", "")
	u2 := u.WithParentDomain("example.com")
	assert.Equal(t, "api.", u2.Domain())
	assert.Equal(t, "api.example.com", u2.OriginalHost())
}

func TestURLStringRoundTrip(t *testing.T) {
	u := NewURL(true, "example.com", 8443, "/foo/bar", "a=1&b=2")
	assert.Equal(t, "https://example.com:8443/foo/bar?a=1&b=2", u.String())
}

func TestURLTrimsTrailingDotHost(t *testing.T) {
	u := NewURL(false, "example.com.", 0, "/", "")
	assert.Equal(t, "example.com", u.Domain())
}
