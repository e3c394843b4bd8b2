package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/base32"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Mode selects one of the three authentication strategies the admin
// web surface and IPP/eSCL endpoints can be guarded by.
type Mode int

const (
	// AuthNone disables authentication entirely.
	AuthNone Mode = iota
	// AuthExternalBasic delegates credential checks to an external
	// verifier (an LDAP bind, a reverse-proxy-injected header check,
	// etc.) via HTTP Basic, modeled on the Alex4386-zikzi reference's
	// authenticateRequest/authenticateBasic split.
	AuthExternalBasic
	// AuthLocalPassword is a single admin password verified against a
	// bcrypt hash, with a derived session cookie and CSRF token.
	AuthLocalPassword
)

const cookieName = "ippd_session"

// Policy configures an Authenticator. It is the shape persisted as
// config.AuthPolicy.
type Policy struct {
	Mode Mode

	Realm string

	// PasswordHash is the bcrypt hash of the single admin password,
	// used only in AuthLocalPassword mode.
	PasswordHash string

	// SessionKey seeds the session cookie and CSRF token derivation.
	// Generated once and persisted if left empty.
	SessionKey string

	// VerifyExternal validates username/password against whatever
	// external service governs them, used only in AuthExternalBasic
	// mode. Required in that mode.
	VerifyExternal func(username, password string) bool
}

// Authenticator enforces a Policy against incoming requests. Its
// AuthLocalPassword state is intentionally stateless across requests:
// the cookie value is a deterministic hash of session-key and
// password-hash, so validating a presented cookie never requires a
// server-side session table, the same "derive, don't store" approach
// the teacher takes with its UUID-from-name printer identifiers.
type Authenticator struct {
	policy Policy

	cookieValue string // precomputed for AuthLocalPassword
	csrfToken   string // precomputed for AuthLocalPassword
}

// New builds an Authenticator from policy, generating a random session
// key when the policy didn't supply one.
func New(policy Policy) *Authenticator {
	a := &Authenticator{policy: policy}
	if policy.Mode == AuthLocalPassword {
		if a.policy.SessionKey == "" {
			a.policy.SessionKey = randomToken(32)
		}
		a.cookieValue = derive(a.policy.SessionKey, ":", a.policy.PasswordHash)
		a.csrfToken = derive(a.policy.SessionKey)
	}
	return a
}

// SessionKey returns the key in effect, so callers can persist a
// freshly generated one.
func (a *Authenticator) SessionKey() string { return a.policy.SessionKey }

// HashPassword returns the bcrypt hash to store for a chosen admin
// password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failing means the platform is unusable
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
}

func derive(parts ...string) string {
	mac := hmac.New(sha256.New, []byte("ippd-session"))
	for _, p := range parts {
		mac.Write([]byte(p))
	}
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Authenticate reports whether r carries valid credentials under the
// configured policy, and the user name to attribute the request to.
func (a *Authenticator) Authenticate(r *http.Request) (user string, ok bool) {
	switch a.policy.Mode {
	case AuthNone:
		return "", true
	case AuthExternalBasic:
		u, p, hasBasic := r.BasicAuth()
		if !hasBasic || a.policy.VerifyExternal == nil {
			return "", false
		}
		if !a.policy.VerifyExternal(u, p) {
			return "", false
		}
		return u, true
	case AuthLocalPassword:
		c, err := r.Cookie(cookieName)
		if err != nil {
			return "", false
		}
		if !hmac.Equal([]byte(c.Value), []byte(a.cookieValue)) {
			return "", false
		}
		return "admin", true
	default:
		return "", false
	}
}

// Login verifies password against the configured admin password hash
// and, on success, sets the session cookie. It is only meaningful in
// AuthLocalPassword mode.
func (a *Authenticator) Login(w http.ResponseWriter, password string, secure bool) bool {
	if a.policy.Mode != AuthLocalPassword {
		return false
	}
	if bcrypt.CompareHashAndPassword([]byte(a.policy.PasswordHash), []byte(password)) != nil {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    a.cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

// Logout clears the session cookie.
func (a *Authenticator) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// CSRFToken returns the token forms must embed and POST handlers must
// check, derived from the session key so it rotates with it.
func (a *Authenticator) CSRFToken() string { return a.csrfToken }

// CheckCSRF compares a submitted token against the expected one using
// a constant-time comparison.
func (a *Authenticator) CheckCSRF(token string) bool {
	if a.policy.Mode == AuthNone {
		return true
	}
	token = strings.TrimSpace(token)
	return hmac.Equal([]byte(token), []byte(a.csrfToken))
}

// Challenge writes a 401 Unauthorized response, adding a Basic
// WWW-Authenticate header in AuthExternalBasic mode; callers use it
// when Authenticate fails.
func (a *Authenticator) Challenge(w http.ResponseWriter) {
	switch a.policy.Mode {
	case AuthExternalBasic:
		w.Header().Set("WWW-Authenticate", `Basic realm="`+a.policy.Realm+`"`)
	}
	w.WriteHeader(http.StatusUnauthorized)
}
