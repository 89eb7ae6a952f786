package ember

import (
	"strconv"
	"strings"
	"time"
)

// Connection is the value of the Connection response header.
type Connection uint8

// Connection values.
const (
	ConnectionUnset Connection = iota
	ConnectionClose
	ConnectionKeepAlive
)

// ContentEncoding is the value of the Content-Encoding response header.
type ContentEncoding uint8

// ContentEncoding values.
const (
	ContentEncodingIdentity ContentEncoding = iota
	ContentEncodingGzip
	ContentEncodingCompress
	ContentEncodingDeflate
)

func (e ContentEncoding) String() string {
	switch e {
	case ContentEncodingGzip:
		return "gzip"
	case ContentEncodingCompress:
		return "compress"
	case ContentEncodingDeflate:
		return "deflate"
	default:
		return "identity"
	}
}

// TransferEncoding is the value of the Transfer-Encoding response header.
type TransferEncoding uint8

// TransferEncoding values.
const (
	TransferEncodingNone TransferEncoding = iota
	TransferEncodingChunked
)

// CacheDirectiveKind enumerates the Cache-Control directives ember knows
// how to serialize. Each is a discriminated variant; MaxAge/SMaxAge
// additionally carry a Seconds value.
type CacheDirectiveKind uint8

// Cache-Control directive kinds.
const (
	CacheNoCache CacheDirectiveKind = iota
	CacheNoStore
	CacheNoTransform
	CachePublic
	CachePrivate
	CacheMustRevalidate
	CacheProxyRevalidate
	CacheImmutable
	CacheMaxAge
	CacheSMaxAge
)

// CacheDirective is one Cache-Control directive.
type CacheDirective struct {
	Kind    CacheDirectiveKind
	Seconds int // only meaningful for CacheMaxAge / CacheSMaxAge
}

func (d CacheDirective) String() string {
	switch d.Kind {
	case CacheNoCache:
		return "no-cache"
	case CacheNoStore:
		return "no-store"
	case CacheNoTransform:
		return "no-transform"
	case CachePublic:
		return "public"
	case CachePrivate:
		return "private"
	case CacheMustRevalidate:
		return "must-revalidate"
	case CacheProxyRevalidate:
		return "proxy-revalidate"
	case CacheImmutable:
		return "immutable"
	case CacheMaxAge:
		return "max-age=" + strconv.Itoa(d.Seconds)
	case CacheSMaxAge:
		return "s-maxage=" + strconv.Itoa(d.Seconds)
	default:
		return ""
	}
}

// DefaultContentType is the Content-Type used when a Response doesn't set
// one explicitly.
const DefaultContentType = "text/html; charset=utf-8"

// ResponseHeaders is the strongly-typed response header bundle, backed
// by the generic Headers map for any header it has no typed field for.
type ResponseHeaders struct {
	AcceptRanges       string
	Age                *int
	Allow              []string
	CacheControl       []CacheDirective
	Connection         Connection
	ContentEncoding    ContentEncoding
	ContentLength      *int64
	ContentDisposition string
	ContentRange       string
	ContentType        string
	Date               *time.Time
	ETag               string
	Expires            *time.Time
	LastModified       *time.Time
	Location           string
	Pragma             string
	Server             string
	SetCookie          []*Cookie
	TransferEncoding   TransferEncoding

	// Extra carries any header this bundle has no typed field for.
	Extra Headers
}

// NewResponseHeaders returns a ResponseHeaders with ContentType defaulted.
func NewResponseHeaders() *ResponseHeaders {
	return &ResponseHeaders{
		ContentType: DefaultContentType,
		Extra:       Headers{},
	}
}

// AddCookie appends a Set-Cookie directive.
func (h *ResponseHeaders) AddCookie(c *Cookie) {
	h.SetCookie = append(h.SetCookie, c)
}

// AddCacheDirective appends a Cache-Control directive.
func (h *ResponseHeaders) AddCacheDirective(d CacheDirective) {
	h.CacheControl = append(h.CacheControl, d)
}

// writeLines appends each "Name: value" line the bundle represents to w,
// in a stable order, followed by every header held in Extra. The
// connection loop appends the Content-Length/Transfer-Encoding lines
// itself once the framing decision has been made, so those two fields
// are intentionally not serialized here.
func (h *ResponseHeaders) writeLines(w *strings.Builder) {
	writeLine := func(name, value string) {
		if value == "" {
			return
		}
		w.WriteString(name)
		w.WriteString(": ")
		w.WriteString(value)
		w.WriteString("\r\n")
	}

	writeLine("Accept-Ranges", h.AcceptRanges)
	if h.Age != nil {
		writeLine("Age", strconv.Itoa(*h.Age))
	}
	if len(h.Allow) > 0 {
		writeLine("Allow", strings.Join(h.Allow, ", "))
	}
	if len(h.CacheControl) > 0 {
		parts := make([]string, len(h.CacheControl))
		for i, d := range h.CacheControl {
			parts[i] = d.String()
		}
		writeLine("Cache-Control", strings.Join(parts, ", "))
	}
	switch h.Connection {
	case ConnectionClose:
		writeLine("Connection", "close")
	case ConnectionKeepAlive:
		writeLine("Connection", "keep-alive")
	}
	if h.ContentEncoding != ContentEncodingIdentity {
		writeLine("Content-Encoding", h.ContentEncoding.String())
	}
	writeLine("Content-Disposition", h.ContentDisposition)
	writeLine("Content-Range", h.ContentRange)
	ct := h.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	writeLine("Content-Type", ct)
	if h.Date != nil {
		writeLine("Date", h.Date.UTC().Format(time.RFC1123))
	}
	writeLine("ETag", h.ETag)
	if h.Expires != nil {
		writeLine("Expires", h.Expires.UTC().Format(time.RFC1123))
	}
	if h.LastModified != nil {
		writeLine("Last-Modified", h.LastModified.UTC().Format(time.RFC1123))
	}
	writeLine("Location", h.Location)
	writeLine("Pragma", h.Pragma)
	writeLine("Server", h.Server)
	for _, c := range h.SetCookie {
		writeLine("Set-Cookie", c.String())
	}
	for _, entry := range h.Extra.Entries() {
		for _, v := range entry.Values {
			writeLine(entry.Name, v)
		}
	}
}
