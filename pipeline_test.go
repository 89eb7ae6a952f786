package ember

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinifyContentDisabledByDefault(t *testing.T) {
	cfg := NewConfig()
	out := minifyContent(cfg, "text/html", []byte("<html>   <body>  hi  </body></html>"))
	assert.Equal(t, "<html>   <body>  hi  </body></html>", string(out))
}

func TestMinifyContentEnabledShrinksHTML(t *testing.T) {
	cfg := NewConfig()
	cfg.MinifierEnabled = true
	cfg.MinifierMIMETypes = []string{"text/html"}

	in := []byte("<html>\n  <body>\n    hello\n  </body>\n</html>\n")
	out := minifyContent(cfg, "text/html; charset=utf-8", in)
	assert.Less(t, len(out), len(in))
}

func TestMinifyContentSkipsUnconfiguredType(t *testing.T) {
	cfg := NewConfig()
	cfg.MinifierEnabled = true
	cfg.MinifierMIMETypes = []string{"text/css"}

	in := []byte("<html>   <body>hi</body></html>")
	out := minifyContent(cfg, "text/html", in)
	assert.Equal(t, in, out)
}

func TestFileETagStableForSameInput(t *testing.T) {
	modTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := fileETag(100, modTime)
	b := fileETag(100, modTime)
	assert.Equal(t, a, b)

	c := fileETag(101, modTime)
	assert.NotEqual(t, a, c)
}

func TestMimeTypeByExtension(t *testing.T) {
	assert.Equal(t, "text/css; charset=utf-8", mimeTypeByExtension(".css"))
}
