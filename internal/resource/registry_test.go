package resource

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_StaticLookupAndServe(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterBytes("/icon.png", "image/png", []byte("pngdata")))

	res, ok := reg.Lookup("/icon.png")
	require.True(t, ok)
	require.Equal(t, "image/png", res.ContentType())

	r := httptest.NewRequest(http.MethodGet, "/icon.png", nil)
	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pngdata", w.Body.String())
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestRegistry_CallbackServedFresh(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	require.NoError(t, reg.RegisterFunc("/status", "text/plain", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("ok"))
	}))

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()
		reg.Handler().ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "ok", w.Body.String())
	}
	require.Equal(t, 2, calls)
}

func TestRegistry_LookupMiss(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("/missing")
	require.False(t, ok)

	r := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterBytes("/x", "text/plain", []byte("x")))
	reg.Unregister("/x")
	_, ok := reg.Lookup("/x")
	require.False(t, ok)
}

func TestRegistry_RegisterRejectsEmptyPathOrNil(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register("", &Static{}))
	require.Error(t, reg.Register("/x", nil))
}

func TestRegistry_Paths(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterBytes("/a", "text/plain", []byte("a")))
	require.NoError(t, reg.RegisterBytes("/b", "text/plain", []byte("b")))

	paths := reg.Paths()
	require.Len(t, paths, 2)
	require.ElementsMatch(t, []string{"/a", "/b"}, paths)
}
