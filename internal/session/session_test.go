package session

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/ipp"
	"github.com/printcore/ippd/internal/model"
)

func newTestServer(t *testing.T) (*Server, *model.System) {
	t.Helper()
	sys := model.NewSystem()
	_, err := sys.CreatePrinter("lp0", "Generic/Label", "test printer", "usb://test", model.NewNullDriver(), "http://localhost")
	require.NoError(t, err)

	disp := ipp.NewDispatcher("http://localhost", sys)
	s, err := New(sys, disp)
	require.NoError(t, err)
	return s, sys
}

func encodeRequest(t *testing.T, op goipp.Op, printerURI string) []byte {
	t.Helper()
	msg := goipp.NewRequest(goipp.MakeVersion(2, 0), op, 1)
	msg.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	msg.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en")))
	if printerURI != "" {
		msg.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(printerURI)))
	}
	var buf bytes.Buffer
	require.NoError(t, msg.Encode(&buf))
	return buf.Bytes()
}

func TestServer_HandleIPP_GetPrinterAttributes(t *testing.T) {
	s, _ := newTestServer(t)

	body := encodeRequest(t, goipp.OpGetPrinterAttributes, "ipp://localhost/ipp/print/lp0")
	r := httptest.NewRequest(http.MethodPost, "/ipp/print/lp0", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleIPP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, ippMIMEType, w.Header().Get(hdrContentType))

	var resp goipp.Message
	require.NoError(t, resp.Decode(w.Body))
	require.Equal(t, goipp.Code(goipp.StatusOk), resp.Code)
}

func TestServer_HandleIPP_UnknownPrinter(t *testing.T) {
	s, _ := newTestServer(t)

	body := encodeRequest(t, goipp.OpGetPrinterAttributes, "ipp://localhost/ipp/print/missing")
	r := httptest.NewRequest(http.MethodPost, "/ipp/print/missing", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.handleIPP(w, r)

	var resp goipp.Message
	require.NoError(t, resp.Decode(w.Body))
	require.Equal(t, goipp.Code(goipp.StatusErrorNotFound), resp.Code)
}

func TestServer_AdminRequiresAuth(t *testing.T) {
	sys := model.NewSystem()
	disp := ipp.NewDispatcher("http://localhost", sys)
	admin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s, err := New(sys, disp,
		WithAuthPolicy(Policy{Mode: AuthExternalBasic, VerifyExternal: func(u, p string) bool { return u == "a" && p == "b" }}),
		WithAdmin(admin),
	)
	require.NoError(t, err)

	h := s.withAuth(admin)

	r := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	r.SetBasicAuth("a", "b")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}
