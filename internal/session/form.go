package session

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxFormMemory bounds the in-memory portion of a parsed
// multipart/form-data request; anything larger spills to a temp file
// via mime/multipart's own ReadForm, same as net/http.Request.ParseMultipartForm.
const MaxFormMemory = 2 << 20 // 2 MiB

// ErrFormTooLarge is returned when a parsed attachment exceeds the cap.
var ErrFormTooLarge = errors.New("session: form attachment exceeds size cap")

// ParsedForm holds the decoded fields and file parts of an admin web
// submission (printer add/modify, driver upload, password change).
type ParsedForm struct {
	Values map[string][]string
	Files  map[string]*multipart.FileHeader
}

// ParseForm decodes a multipart/form-data or
// application/x-www-form-urlencoded request body through the stdlib
// net/http.Request.ParseMultipartForm (with MaxFormMemory) and
// Request.ParseForm, so callers get one entry point for both
// encodings.
func ParseForm(r *http.Request) (*ParsedForm, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return nil, errors.New("session: missing Content-Type")
	}

	pf := &ParsedForm{Values: make(map[string][]string), Files: make(map[string]*multipart.FileHeader)}

	if !isMultipart(ct) {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for k, v := range r.PostForm {
			pf.Values[k] = v
		}
		return pf, nil
	}

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, ErrFormTooLarge
		}
		return nil, err
	}
	for k, v := range r.MultipartForm.Value {
		pf.Values[k] = v
	}
	for k, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		pf.Files[k] = headers[0]
	}
	return pf, nil
}

func isMultipart(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "multipart/form-data")
}

// Get returns the first value for key, or "".
func (f *ParsedForm) Get(key string) string {
	v := f.Values[key]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// OpenFile opens the named uploaded file part, enforcing the 2 MiB
// per-attachment cap by returning ErrFormTooLarge for a larger part.
func (f *ParsedForm) OpenFile(key string) (io.ReadCloser, *multipart.FileHeader, error) {
	fh, ok := f.Files[key]
	if !ok {
		return nil, nil, errors.New("session: no such file field " + key)
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	if fh.Size > MaxFormMemory {
		file.Close()
		return nil, nil, ErrFormTooLarge
	}
	return file, fh, nil
}
