package ember

import (
	"bytes"
	"io"
	"os"
)

// Upload is one file part of a multipart/form-data request body. Parts
// of at most Config.StoreUploadInFileSize bytes are held in memory;
// larger parts are spooled to a temp file.
type Upload struct {
	FieldName   string
	FileName    string
	ContentType string
	Size        int64

	mem   []byte
	path  string
	spool bool
	moved bool
}

// Open returns a fresh reader over the upload's content.
func (u *Upload) Open() (io.ReadCloser, error) {
	if !u.spool {
		return io.NopCloser(bytes.NewReader(u.mem)), nil
	}
	f, err := openSpoolFile(u.path)
	if err != nil {
		return nil, Wrap(err)
	}
	return f, nil
}

// MoveTo moves a spooled upload's temp file to dst, taking ownership of
// it so the connection loop's post-response cleanup leaves it alone
// instead of deleting it. For an in-memory upload, it simply writes the
// bytes to dst.
func (u *Upload) MoveTo(dst string) error {
	u.moved = true
	if !u.spool {
		if err := os.WriteFile(dst, u.mem, 0o644); err != nil {
			return Wrap(err)
		}
		return nil
	}
	if err := os.Rename(u.path, dst); err != nil {
		return Wrap(err)
	}
	return nil
}
