package ember

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// GzipPreference controls whether a response's content should be
// gzip-compressed by the connection loop's framing decision tree.
type GzipPreference uint8

// GzipPreference values.
const (
	GzipAuto GzipPreference = iota
	GzipAlways
	GzipNever
)

// ContentKind discriminates a Response's content source.
type ContentKind uint8

// ContentKind values.
const (
	ContentNone ContentKind = iota
	ContentBuffer
	ContentFile
	ContentStream    // unbounded lazy sequence of chunks
	ContentWebSocket // handler body is a WebSocket endpoint
)

// Chunks is a lazy, unbounded sequence of text chunks, used by the HTML
// streaming constructor. Next returns io.EOF once exhausted.
type Chunks interface {
	Next() (string, error)
}

// ChunkFunc adapts a function to the Chunks interface.
type ChunkFunc func() (string, error)

// Next calls f.
func (f ChunkFunc) Next() (string, error) { return f() }

// Response is an outbound HTTP response.
type Response struct {
	Status  int
	Headers *ResponseHeaders

	Kind        ContentKind
	buffer      []byte
	filePath    string
	fileSize    int64
	fileModTime time.Time
	chunks      Chunks
	wsHandler   func(ws *WebSocket)

	Gzip GzipPreference

	// Request is a back-reference to the originating request, for the
	// connection writer's use.
	Request *Request
}

// NewResponse returns a Response with status 200, default headers, and
// no content.
func NewResponse() *Response {
	return &Response{Status: StatusOK, Headers: NewResponseHeaders()}
}

// ContentLength returns the known length of the response content, and
// whether it is known. A ContentStream response has unknown length.
func (r *Response) ContentLength() (int64, bool) {
	switch r.Kind {
	case ContentBuffer:
		return int64(len(r.buffer)), true
	case ContentFile:
		return r.fileSize, true
	default:
		return 0, false
	}
}

// Reader returns a fresh io.Reader over the response's buffered or
// file-backed content. It is not valid to call for ContentStream;
// use NextChunk instead.
func (r *Response) Reader() (io.ReadCloser, error) {
	switch r.Kind {
	case ContentBuffer:
		return io.NopCloser(bytes.NewReader(r.buffer)), nil
	case ContentFile:
		f, err := os.Open(r.filePath)
		if err != nil {
			return nil, Wrap(err)
		}
		return f, nil
	default:
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
}

// NextChunk pulls the next chunk of a ContentStream response. It returns
// io.EOF when exhausted.
func (r *Response) NextChunk() (string, error) {
	if r.chunks == nil {
		return "", io.EOF
	}
	return r.chunks.Next()
}

// Text returns a 200 response with a plain-text body.
func Text(body string) *Response {
	res := NewResponse()
	res.Kind = ContentBuffer
	res.buffer = []byte(body)
	res.Headers.ContentType = "text/plain; charset=utf-8"
	return res
}

// HTML returns a 200 response whose body streams from chunks, so the
// server starts sending bytes before the whole page is materialized.
func HTML(chunks Chunks) *Response {
	res := NewResponse()
	res.Kind = ContentStream
	res.chunks = chunks
	res.Headers.ContentType = "text/html; charset=utf-8"
	return res
}

// JSONResponse returns a 200 response whose body is the JSON encoding of
// v.
func JSONResponse(v interface{}) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, Wrap(err)
	}
	res := NewResponse()
	res.Kind = ContentBuffer
	res.buffer = b
	res.Headers.ContentType = "application/json"
	return res, nil
}

// MsgPackResponse returns a 200 response whose body is the MessagePack
// encoding of v.
func MsgPackResponse(v interface{}) (*Response, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, Wrap(err)
	}
	res := NewResponse()
	res.Kind = ContentBuffer
	res.buffer = b
	res.Headers.ContentType = "application/msgpack"
	return res, nil
}

// File returns a response serving the file at path, inferring
// Content-Type from its extension and honoring the request's
// If-Modified-Since / If-None-Match headers: if the file's modification
// time (rounded to whole seconds) is at or before the client's
// timestamp, or the client's ETag matches, the result is a 304 with no
// body.
//
// When the owning Server's static-file memory cache is enabled
// (Config.FileCacheMaxMemoryBytes), the file's bytes
// are served from that cache instead of being read from disk on every
// call, and the resulting Response carries the content in memory rather
// than streaming it from a freshly opened *os.File.
func File(req *Request, path string) (*Response, error) {
	if fc := fileCacheForRequest(req); fc != nil {
		content, modTime, err := fc.Get(path)
		if err != nil {
			return nil, err
		}
		return fileResponse(req, path, content, int64(len(content)), modTime)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, Wrap(err)
	}

	modTime := info.ModTime().Truncate(time.Second)
	etag := fileETag(info.Size(), modTime)

	if res := conditionalNotModified(req, modTime, etag); res != nil {
		return res, nil
	}

	res := NewResponse()
	res.Request = req
	res.Kind = ContentFile
	res.filePath = path
	res.fileSize = info.Size()
	res.fileModTime = modTime
	res.Headers.ContentType = contentTypeForFile(path)
	res.Headers.ETag = etag
	res.Headers.LastModified = &modTime
	return res, nil
}

// fileCacheForRequest returns the owning Server's file cache, or nil if
// the request has no connection (e.g. it was built directly in a test)
// or the cache is disabled.
func fileCacheForRequest(req *Request) *fileCache {
	if req == nil || req.conn == nil || req.conn.server == nil {
		return nil
	}
	return req.conn.server.fileCacheFor()
}

// fileResponse builds a cache-backed Response: the content is already in
// memory, but it still carries the file's ETag/Last-Modified and
// participates in conditional-request handling exactly like the
// disk-streamed path.
func fileResponse(req *Request, path string, content []byte, size int64, modTime time.Time) (*Response, error) {
	modTime = modTime.Truncate(time.Second)
	etag := fileETag(size, modTime)

	if res := conditionalNotModified(req, modTime, etag); res != nil {
		return res, nil
	}

	res := NewResponse()
	res.Request = req
	res.Kind = ContentBuffer
	res.buffer = content
	res.Headers.ContentType = contentTypeForFile(path)
	res.Headers.ETag = etag
	res.Headers.LastModified = &modTime
	return res, nil
}

// conditionalNotModified returns a 304 Response if req's If-None-Match or
// If-Modified-Since headers are satisfied by modTime/etag, or nil if the
// caller should serve the full content.
func conditionalNotModified(req *Request, modTime time.Time, etag string) *Response {
	if ifNoneMatch := req.Headers.First("if-none-match"); ifNoneMatch != "" && ifNoneMatch == etag {
		return notModified(modTime, etag)
	}
	if ims := req.Headers.First("if-modified-since"); ims != "" {
		if t, err := time.Parse(time.RFC1123, ims); err == nil && !modTime.After(t) {
			return notModified(modTime, etag)
		}
	}
	return nil
}

func notModified(modTime time.Time, etag string) *Response {
	res := NewResponse()
	res.Status = StatusNotModified
	res.Headers.ETag = etag
	res.Headers.LastModified = &modTime
	return res
}

// contentTypeForFile infers a Content-Type from path's extension,
// falling back to sniffing the file's head when the extension is
// missing or unrecognized.
func contentTypeForFile(path string) string {
	if ct := mimeTypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return sniffContentType(path)
}

// Upgrade returns a 101 response that hands the raw connection to a
// WebSocket endpoint once the handshake completes. handler is invoked
// with the live *WebSocket once the 101 handshake has
// been written and before any frame is read; it installs the
// WebSocket's handler fields and returns, after which the connection
// loop runs the frame loop until the connection closes.
func Upgrade(handler func(ws *WebSocket)) *Response {
	res := NewResponse()
	res.Status = StatusSwitchingProtocols
	res.Kind = ContentWebSocket
	res.wsHandler = handler
	return res
}

// Redirect returns a 3xx response with the given Location.
func Redirect(status int, location string) *Response {
	res := NewResponse()
	res.Status = status
	res.Headers.Location = location
	return res
}

// StatusResponse returns a raw response with the given status and no body.
func StatusResponse(status int) *Response {
	res := NewResponse()
	res.Status = status
	return res
}

// SetCookie appends a Set-Cookie header.
func (r *Response) SetCookie(c *Cookie) *Response {
	r.Headers.AddCookie(c)
	return r
}

// WithStatus sets the response status and returns r for chaining.
func (r *Response) WithStatus(status int) *Response {
	r.Status = status
	return r
}
