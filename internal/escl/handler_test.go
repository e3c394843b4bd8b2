package escl

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/model"
)

func newTestSystem(t *testing.T) *model.System {
	t.Helper()
	sys := model.NewSystem()
	_, err := sys.CreatePrinter("scan0", "Generic/Flatbed", "test scanner", "usb://test", model.NewNullDriver(), "http://localhost")
	require.NoError(t, err)
	return sys
}

func TestHandler_Capabilities(t *testing.T) {
	h := NewHandler(newTestSystem(t))

	r := httptest.NewRequest(http.MethodGet, "/scan0/ScannerCapabilities", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ScannerCapabilities")
}

func TestHandler_Capabilities_UnknownPrinter(t *testing.T) {
	h := NewHandler(newTestSystem(t))

	r := httptest.NewRequest(http.MethodGet, "/missing/ScannerCapabilities", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ScanJobs(t *testing.T) {
	h := NewHandler(newTestSystem(t))

	r := httptest.NewRequest(http.MethodPost, "/scan0/ScanJobs", strings.NewReader(sampleScanSettings))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, w.Header().Get("Location"))
}

func TestHandler_ScanJobs_BadSettings(t *testing.T) {
	h := NewHandler(newTestSystem(t))

	r := httptest.NewRequest(http.MethodPost, "/scan0/ScanJobs", strings.NewReader(`<scan:ScanSettings></scan:ScanSettings>`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
