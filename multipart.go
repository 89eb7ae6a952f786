package ember

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"strings"
)

// openSpoolFile opens a spooled body/upload temp file for reading.
func openSpoolFile(path string) (*os.File, error) {
	return os.Open(path)
}

// parseForm populates req.form (and req.Uploads, for multipart bodies)
// from the request body, dispatching on Content-Type.
//
// application/x-www-form-urlencoded bodies are parsed entirely in memory.
// multipart/form-data bodies are parsed incrementally via mime/multipart;
// each file part larger than cfg.StoreUploadInFileSize bytes is spooled
// to a temp file in cfg.TempDir rather than buffered.
func parseForm(req *Request) error {
	req.form = &Query{}

	ct := req.Headers.First("content-type")
	if ct == "" || req.Body == nil {
		return nil
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return Wrap(err)
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		body, err := req.Body.Bytes()
		if err != nil {
			return err
		}
		q := ParseQuery(string(body))
		req.form = &q
		return nil

	case strings.HasPrefix(mediaType, "multipart/"):
		boundary, ok := params["boundary"]
		if !ok {
			return NewError(ErrKindMalformedRequest, "multipart body missing boundary")
		}
		r, err := req.Body.Reader()
		if err != nil {
			return err
		}
		defer r.Close()
		return parseMultipartBody(req, multipart.NewReader(r, boundary))

	default:
		return nil
	}
}

// parseMultipartBody walks every part of mr, routing it to either the
// form-value query or req.Uploads based on the presence of a filename.
func parseMultipartBody(req *Request, mr *multipart.Reader) error {
	cfg := req.cfg
	if cfg == nil {
		cfg = NewConfig()
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return Wrap(err)
		}

		fileName := part.FileName()
		if fileName == "" {
			value, err := io.ReadAll(io.LimitReader(part, cfg.MaxSizePostContent))
			part.Close()
			if err != nil {
				return Wrap(err)
			}
			*req.form = req.form.Add(part.FormName(), string(value))
			continue
		}

		up, err := spoolUploadPart(part, cfg)
		part.Close()
		if err != nil {
			return err
		}
		up.FieldName = part.FormName()
		up.FileName = fileName
		if req.Uploads == nil {
			req.Uploads = map[string][]*Upload{}
		}
		req.Uploads[up.FieldName] = append(req.Uploads[up.FieldName], up)
	}
}

// spoolUploadPart reads one file part, buffering it in memory unless and
// until it crosses cfg.StoreUploadInFileSize, at which point the
// remainder (and everything already buffered) is flushed to a temp file.
func spoolUploadPart(part *multipart.Part, cfg *Config) (*Upload, error) {
	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	threshold := cfg.StoreUploadInFileSize
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 32*1024)

	for {
		n, err := part.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			if int64(len(buf)) <= threshold {
				return &Upload{ContentType: contentType, Size: int64(len(buf)), mem: buf}, nil
			}
			break
		}
		if err != nil {
			return nil, Wrap(err)
		}
		if int64(len(buf)) > threshold {
			break
		}
	}

	f, err := os.CreateTemp(cfg.TempDir, "ember-upload-*")
	if err != nil {
		return nil, Wrap(err)
	}
	defer f.Close()

	size := int64(0)
	if n, err := f.Write(buf); err != nil {
		return nil, Wrap(err)
	} else {
		size += int64(n)
	}
	n, err := io.Copy(f, part)
	size += n
	if err != nil {
		return nil, Wrap(err)
	}

	return &Upload{ContentType: contentType, Size: size, path: f.Name(), spool: true}, nil
}
