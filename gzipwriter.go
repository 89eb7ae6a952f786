package ember

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

func getGzipWriter(w io.Writer) *gzip.Writer {
	gw := gzipWriterPool.Get().(*gzip.Writer)
	gw.Reset(w)
	return gw
}

func putGzipWriter(gw *gzip.Writer) {
	gzipWriterPool.Put(gw)
}

// acceptsGzip reports whether an Accept-Encoding header advertises gzip.
func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}

// gzipDesired implements the "gzip desired" predicate: the client must
// advertise gzip AND the response must not opt out.
func gzipDesired(req *Request, res *Response) bool {
	if res.Gzip == GzipNever {
		return false
	}
	if !acceptsGzip(req.Headers.First("accept-encoding")) {
		return false
	}
	if res.Gzip == GzipAlways {
		return true
	}
	if res.Kind == ContentFile && res.fileSize > 0 {
		return fileGzipWorthwhile(res)
	}
	return true
}

// fileGzipWorthwhile implements the Auto-mode autodetect heuristic: for
// a file-backed response bigger than Config.GzipAutodetectThreshold,
// sample a middle chunk, compress it, and require a worthwhile
// compression ratio before committing to gzipping the whole file.
func fileGzipWorthwhile(res *Response) bool {
	threshold := int64(1 << 20)
	if res.Request != nil && res.Request.cfg != nil && res.Request.cfg.GzipAutodetectThreshold > 0 {
		threshold = res.Request.cfg.GzipAutodetectThreshold
	}
	if res.fileSize <= threshold {
		return true
	}

	f, err := os.Open(res.filePath)
	if err != nil {
		return true
	}
	defer f.Close()

	const sampleSize = 64 * 1024
	mid := res.fileSize/2 - sampleSize/2
	if mid < 0 {
		mid = 0
	}
	sample := make([]byte, sampleSize)
	n, err := f.ReadAt(sample, mid)
	if err != nil && n == 0 {
		return true
	}
	sample = sample[:n]

	var buf bytes.Buffer
	gw := getGzipWriter(&buf)
	defer putGzipWriter(gw)
	gw.Write(sample)
	gw.Close()

	if len(sample) == 0 {
		return true
	}
	ratio := float64(buf.Len()) / float64(len(sample))
	return ratio < 0.9
}

// gzipBuffer compresses content fully in memory, for the "small and
// known-length" branch of the framing decision tree.
func gzipBuffer(content []byte) []byte {
	var buf bytes.Buffer
	gw := getGzipWriter(&buf)
	defer putGzipWriter(gw)
	gw.Write(content)
	gw.Close()
	return buf.Bytes()
}

// writeContentLength formats n for a Content-Length header value.
func writeContentLength(n int64) string {
	return strconv.FormatInt(n, 10)
}
