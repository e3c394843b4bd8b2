// Package session owns the HTTP listener, per-connection routing
// across IPP/eSCL/admin-web traffic, authentication, and form parsing
// shared by the admin surface. It generalizes the teacher's
// single-printer ippsrv.Server into a multi-protocol front door while
// keeping the same Option-configured http.Server-plus-ServeMux shape.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/rusq/httpex"

	"github.com/printcore/ippd/internal/ipp"
	"github.com/printcore/ippd/internal/model"
	"github.com/printcore/ippd/internal/resource"
)

// MaxDocumentSize bounds a single print document body, mirroring the
// teacher's package-level ippsrv.MaxDocumentSize knob.
var MaxDocumentSize int64 = 104857600

const (
	hdrContentType = "Content-Type"
	ippMIMEType    = "application/ipp"
)

// Server is the front door: one http.Server fronting IPP, eSCL, and
// the admin web surface, each routed by method+path on a single mux.
type Server struct {
	sys  *model.System
	disp *ipp.Dispatcher
	auth *Authenticator

	escl      http.Handler      // optional, set via WithESCL
	admin     http.Handler      // optional, set via WithAdmin
	resources *resource.Registry // optional, set via WithResources

	srv *http.Server

	debug   bool
	dumpdir string
	secure  bool
}

// Option configures a Server the way ippsrv.Option configures the
// teacher's Server.
type Option func(*Server)

// WithDebug enables protocol dumping to disk, as the teacher's
// WithDebug does.
func WithDebug(b bool) Option {
	return func(s *Server) { s.debug = b }
}

// WithDumpDir sets the protocol dump directory; a temp dir is used
// when debug is on and this is left unset, as in the teacher.
func WithDumpDir(dir string) Option {
	return func(s *Server) { s.dumpdir = dir }
}

// WithAuthPolicy installs the authentication policy guarding the admin
// surface. IPP and eSCL requests are not authenticated in any mode.
func WithAuthPolicy(p Policy) Option {
	return func(s *Server) { s.auth = New(p) }
}

// WithESCL attaches the eSCL scanner surface's handler, mounted under
// /eSCL/.
func WithESCL(h http.Handler) Option {
	return func(s *Server) { s.escl = h }
}

// WithAdmin attaches the admin web surface's handler, mounted under
// /admin/ and gated by the configured auth policy.
func WithAdmin(h http.Handler) Option {
	return func(s *Server) { s.admin = h }
}

// WithSecureCookies marks session cookies Secure, for TLS deployments.
func WithSecureCookies(b bool) Option {
	return func(s *Server) { s.secure = b }
}

// WithResources mounts reg's static/callback resources (printer icons,
// driver-supplied assets) under /resources/, unauthenticated since IPP
// and eSCL clients fetch printer-icons URLs without logging in.
func WithResources(reg *resource.Registry) Option {
	return func(s *Server) { s.resources = reg }
}

// New builds a Server dispatching IPP traffic to disp and backed by
// sys for the system-wide printer registry.
func New(sys *model.System, disp *ipp.Dispatcher, opts ...Option) (*Server, error) {
	s := &Server{sys: sys, disp: disp, auth: New(Policy{Mode: AuthNone})}
	for _, opt := range opts {
		opt(s)
	}
	if s.debug {
		if s.dumpdir != "" {
			if err := os.MkdirAll(s.dumpdir, 0700); err != nil {
				return nil, fmt.Errorf("error creating requested dump directory: %w", err)
			}
		} else {
			d, err := os.MkdirTemp("", "ippd-dump-*")
			if err != nil {
				return nil, fmt.Errorf("error creating temporary dump directory: %w", err)
			}
			s.dumpdir = d
		}
		slog.Info("protocol dump", "directory", s.dumpdir)
	}

	m := http.NewServeMux()
	m.HandleFunc("POST /ipp/print/{name}", s.handleIPP)
	m.HandleFunc("POST /ipp/print/{name}/{job}", s.handleIPP)
	m.HandleFunc("POST /ipp/system", s.handleIPP)
	m.HandleFunc("/", s.handleIPP)
	if s.escl != nil {
		m.Handle("/eSCL/", http.StripPrefix("/eSCL", s.escl))
	}
	if s.admin != nil {
		m.Handle("/admin/", s.withAuth(s.admin))
	}
	if s.resources != nil {
		m.Handle("/resources/", http.StripPrefix("/resources", s.resources.Handler()))
	}

	srv := &http.Server{
		Handler: httpex.LogMiddleware(m, log.Default()),
	}
	s.srv = srv
	return s, nil
}

// withAuth gates h behind the configured Policy, challenging on
// failure and checking the CSRF token on POST requests.
func (s *Server) withAuth(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.auth.Authenticate(r)
		if !ok {
			s.auth.Challenge(w)
			return
		}
		if r.Method == http.MethodPost {
			if !s.auth.CheckCSRF(r.Header.Get("X-CSRF-Token")) && !s.auth.CheckCSRF(r.FormValue("csrf_token")) {
				httpError(w, http.StatusForbidden)
				return
			}
		}
		slog.DebugContext(r.Context(), "admin request authenticated", "user", user, "path", r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

func httpError(w http.ResponseWriter, code int) {
	http.Error(w, fmt.Sprintf("%d %s", code, http.StatusText(code)), code)
}

// handleIPP decodes one IPP message and its trailing document data,
// routes it through the dispatcher, and encodes the response, the
// same three-step shape as the teacher's handlePrint.
func (s *Server) handleIPP(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		httpError(w, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var msg goipp.Message
	if err := msg.Decode(r.Body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize))
	if err != nil {
		slog.Warn("failed to read the payload", "error", err)
	}

	if s.debug {
		s.dumpRequest(&msg)
	}

	w.Header().Set(hdrContentType, ippMIMEType)
	resp, err := s.disp.Serve(r.Context(), &msg, payload, r.URL.Path)
	if err != nil {
		slog.Error("failed to handle IPP request", "error", err)
		httpError(w, http.StatusInternalServerError)
		return
	}
	if err := resp.Encode(w); err != nil {
		slog.Error("failed to encode response", "error", err)
		httpError(w, http.StatusInternalServerError)
		return
	}
}

func (s *Server) dumpRequest(msg *goipp.Message) {
	t := time.Now()
	path := filepath.Join(s.dumpdir, fmt.Sprintf("request_%d_%04x.ipp", t.Unix(), msg.Code))
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("failed to create protocol dump", "error", err)
		return
	}
	defer f.Close()
	if err := msg.Encode(f); err != nil {
		slog.Warn("failed to write protocol dump", "error", err)
	}
}

// ListenAndServe starts the HTTP listener, the same Addr-then-serve
// call as the teacher's Server.ListenAndServe.
func (s *Server) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	return s.srv.ListenAndServe()
}

// Shutdown records a shutdown request on the printer system, then
// drains in-flight connections, waiting at most 5 seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.sys.RequestShutdown()
	return s.srv.Shutdown(sctx)
}
