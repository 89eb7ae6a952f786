package ember

import (
	"encoding/binary"
	"mime"
	"os"
	"strconv"
	"time"

	"github.com/aofei/mimesniffer"
	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/minify/v2"
	mcss "github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"
	mjs "github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"
	msvg "github.com/tdewolff/minify/v2/svg"
	mxml "github.com/tdewolff/minify/v2/xml"
)

// minifier is the shared minify.M instance, configured once with the
// sub-minifiers the content pipeline recognizes, used as a standalone
// body transform independent of any templating layer.
var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", mhtml.Minify)
	m.AddFunc("text/css", mcss.Minify)
	m.AddFunc("application/javascript", mjs.Minify)
	m.AddFunc("application/json", mjson.Minify)
	m.AddFunc("image/svg+xml", msvg.Minify)
	m.AddFunc("text/xml", mxml.Minify)
	return m
}

// minifyContent passes content through the minifier for mediaType if
// cfg enables minification and mediaType is in its configured list. It
// returns content unchanged if minification is disabled, the type isn't
// configured, or minification fails (a minify error must never break a
// response).
func minifyContent(cfg *Config, mediaType string, content []byte) []byte {
	if cfg == nil || !cfg.MinifierEnabled {
		return content
	}
	base, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		base = mediaType
	}
	if !containsMIME(cfg.MinifierMIMETypes, base) {
		return content
	}
	out, err := minifier.Bytes(base, content)
	if err != nil {
		return content
	}
	return out
}

func containsMIME(list []string, mediaType string) bool {
	for _, m := range list {
		if m == mediaType {
			return true
		}
	}
	return false
}

// mimeTypeByExtension maps a file extension to a Content-Type using
// mime.TypeByExtension.
func mimeTypeByExtension(ext string) string {
	return mime.TypeByExtension(ext)
}

// sniffContentType reads the head of the file at path and sniffs its
// MIME type, for files whose extension is absent or ambiguous.
func sniffContentType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return mimesniffer.Sniff(buf[:n])
}

// fileETag computes a weak ETag from a file's size and modification
// time, using xxhash for speed.
func fileETag(size int64, modTime time.Time) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(size))
	binary.BigEndian.PutUint64(buf[8:], uint64(modTime.Unix()))
	sum := xxhash.Sum64(buf[:])
	return `W/"` + strconv.FormatUint(sum, 16) + `"`
}
