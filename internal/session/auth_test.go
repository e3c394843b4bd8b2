package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthenticator_NoneAlwaysOK(t *testing.T) {
	a := New(Policy{Mode: AuthNone})
	r := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	_, ok := a.Authenticate(r)
	require.True(t, ok)
}

func TestAuthenticator_ExternalBasic(t *testing.T) {
	a := New(Policy{
		Mode: AuthExternalBasic,
		VerifyExternal: func(user, pass string) bool {
			return user == "alice" && pass == "s3cret"
		},
	})

	r := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	r.SetBasicAuth("alice", "s3cret")
	user, ok := a.Authenticate(r)
	require.True(t, ok)
	require.Equal(t, "alice", user)

	bad := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	bad.SetBasicAuth("alice", "wrong")
	_, ok = a.Authenticate(bad)
	require.False(t, ok)
}

func TestAuthenticator_LocalPasswordLoginAndCookie(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	a := New(Policy{Mode: AuthLocalPassword, PasswordHash: hash})

	w := httptest.NewRecorder()
	require.True(t, a.Login(w, "hunter2", false))
	resp := w.Result()
	require.Len(t, resp.Cookies(), 1)

	r := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	r.AddCookie(resp.Cookies()[0])
	user, ok := a.Authenticate(r)
	require.True(t, ok)
	require.Equal(t, "admin", user)
}

func TestAuthenticator_LocalPasswordWrongPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	a := New(Policy{Mode: AuthLocalPassword, PasswordHash: hash})

	w := httptest.NewRecorder()
	require.False(t, a.Login(w, "wrong", false))
}

func TestAuthenticator_CSRF(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	a := New(Policy{Mode: AuthLocalPassword, PasswordHash: hash})

	require.True(t, a.CheckCSRF(a.CSRFToken()))
	require.False(t, a.CheckCSRF("bogus"))
}

func TestAuthenticator_Logout(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	a := New(Policy{Mode: AuthLocalPassword, PasswordHash: hash})

	w := httptest.NewRecorder()
	a.Logout(w)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].MaxAge < 0)
}
