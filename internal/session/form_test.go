package session

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseForm_URLEncoded(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/admin/printers", bytes.NewBufferString("name=lp0&location=lab"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := ParseForm(r)
	require.NoError(t, err)
	require.Equal(t, "lp0", f.Get("name"))
	require.Equal(t, "lab", f.Get("location"))
}

func TestParseForm_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "lp0"))
	part, err := mw.CreateFormFile("driver", "driver.bin")
	require.NoError(t, err)
	_, err = part.Write([]byte("binary-driver-payload"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/admin/printers", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	f, err := ParseForm(r)
	require.NoError(t, err)
	require.Equal(t, "lp0", f.Get("name"))

	file, fh, err := f.OpenFile("driver")
	require.NoError(t, err)
	defer file.Close()
	require.Equal(t, "driver.bin", fh.Filename)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "binary-driver-payload", string(data))
}

func TestParseForm_MissingContentType(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/admin/printers", bytes.NewBufferString("x=1"))
	r.Header.Del("Content-Type")
	_, err := ParseForm(r)
	require.Error(t, err)
}
