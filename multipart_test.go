package ember

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildMultipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileContent []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		assert.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		assert.NoError(t, err)
		_, err = fw.Write(fileContent)
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())
	return buf.Bytes(), w.Boundary()
}

func TestParseFormURLEncoded(t *testing.T) {
	req := &Request{
		Headers: Headers{"content-type": {"application/x-www-form-urlencoded"}},
		Body:    &Body{Kind: BodyMemory, mem: []byte("name=ada&name=bob")},
		cfg:     NewConfig(),
	}
	form, err := req.Form()
	assert.NoError(t, err)
	assert.Equal(t, []string{"ada", "bob"}, form.Values("name"))
}

func TestParseFormMultipartInMemoryUpload(t *testing.T) {
	content, boundary := buildMultipartBody(t, map[string]string{"title": "report"}, "file", "small.txt", []byte("small file"))

	req := &Request{
		Headers: Headers{"content-type": {"multipart/form-data; boundary=" + boundary}},
		Body:    &Body{Kind: BodyMemory, mem: content},
		cfg:     NewConfig(),
	}

	form, err := req.Form()
	assert.NoError(t, err)
	assert.Equal(t, "report", form.Get("title"))

	ups := req.Uploads["file"]
	assert.Len(t, ups, 1)
	assert.Equal(t, "small.txt", ups[0].FileName)
	assert.False(t, ups[0].spool)

	r, err := ups[0].Open()
	assert.NoError(t, err)
	defer r.Close()
}

func TestParseFormMultipartSpoolsLargeUpload(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 1024)
	content, boundary := buildMultipartBody(t, nil, "file", "big.bin", big)

	cfg := NewConfig()
	cfg.StoreUploadInFileSize = 16
	cfg.TempDir = t.TempDir()

	req := &Request{
		Headers: Headers{"content-type": {"multipart/form-data; boundary=" + boundary}},
		Body:    &Body{Kind: BodyMemory, mem: content},
		cfg:     cfg,
	}

	_, err := req.Form()
	assert.NoError(t, err)

	ups := req.Uploads["file"]
	assert.Len(t, ups, 1)
	up := ups[0]
	assert.True(t, up.spool)
	assert.EqualValues(t, len(big), up.Size)

	r, err := up.Open()
	assert.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, big, got)
}

func TestUploadMoveToRenamesSpoolFile(t *testing.T) {
	cfg := NewConfig()
	cfg.TempDir = t.TempDir()

	f, err := os.CreateTemp(cfg.TempDir, "ember-upload-*")
	assert.NoError(t, err)
	_, err = f.WriteString("payload")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	up := &Upload{ContentType: "application/octet-stream", Size: 7, path: f.Name(), spool: true}
	dst := filepath.Join(cfg.TempDir, "final.bin")
	assert.NoError(t, up.MoveTo(dst))
	assert.True(t, up.moved)

	_, err = os.Stat(f.Name())
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestUploadMoveToWritesInMemoryContent(t *testing.T) {
	dir := t.TempDir()
	up := &Upload{ContentType: "text/plain", Size: 5, mem: []byte("hello")}
	dst := filepath.Join(dir, "out.txt")
	assert.NoError(t, up.MoveTo(dst))

	got, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
