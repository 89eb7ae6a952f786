package ember

import (
	"io"
	"strconv"
)

// chunkedWriter frames writes using HTTP/1.1 chunked transfer-encoding:
// each call to Write emits "<len-in-hex>\r\n<data>\r\n"; Close emits the
// terminating "0\r\n\r\n".
type chunkedWriter struct {
	w io.Writer
}

func newChunkedWriter(w io.Writer) *chunkedWriter {
	return &chunkedWriter{w: w}
}

func (c *chunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := io.WriteString(c.w, strconv.FormatInt(int64(len(p)), 16)+"\r\n"); err != nil {
		return 0, err
	}
	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := io.WriteString(c.w, "\r\n"); err != nil {
		return n, err
	}
	return n, nil
}

// Close writes the terminating zero-length chunk.
func (c *chunkedWriter) Close() error {
	_, err := io.WriteString(c.w, "0\r\n\r\n")
	return err
}
