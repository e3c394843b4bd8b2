// Package resource implements the path-keyed registry of static and
// callback-backed resources exposed to the administrative web surface
// (icons, CSS, generated status snippets, and similar small assets
// that sit outside the IPP and eSCL protocol surfaces).
package resource

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Resource is anything the registry can serve: either a fixed byte
// slice or a callback invoked on every request.
type Resource interface {
	ContentType() string
	ServeContent(w http.ResponseWriter, r *http.Request)
}

// Static is a Resource backed by an immutable byte slice, such as an
// embedded icon or stylesheet.
type Static struct {
	Type    string
	Data    []byte
	ModTime time.Time
}

func (s *Static) ContentType() string { return s.Type }

func (s *Static) ServeContent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", s.Type)
	http.ServeContent(w, r, "", s.ModTime, bytes.NewReader(s.Data))
}

// Callback is a Resource whose body is produced fresh on every
// request, such as a generated status page fragment.
type Callback struct {
	Type string
	Func func(w http.ResponseWriter, r *http.Request)
}

func (c *Callback) ContentType() string { return c.Type }

func (c *Callback) ServeContent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", c.Type)
	c.Func(w, r)
}

// Registry is a read-mostly, path-keyed collection of resources.
// Additions take a write lock; lookups take a read lock.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Resource
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Resource)}
}

// Register binds path to a Resource, replacing any prior binding.
func (reg *Registry) Register(path string, res Resource) error {
	if path == "" {
		return fmt.Errorf("resource: path cannot be empty")
	}
	if res == nil {
		return fmt.Errorf("resource: resource cannot be nil")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.items[path] = res
	return nil
}

// RegisterBytes is a convenience wrapper around Register for static
// content.
func (reg *Registry) RegisterBytes(path, contentType string, data []byte) error {
	return reg.Register(path, &Static{Type: contentType, Data: data, ModTime: time.Now()})
}

// RegisterFunc is a convenience wrapper around Register for
// callback-backed content.
func (reg *Registry) RegisterFunc(path, contentType string, fn func(w http.ResponseWriter, r *http.Request)) error {
	return reg.Register(path, &Callback{Type: contentType, Func: fn})
}

// Unregister removes path, if present.
func (reg *Registry) Unregister(path string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.items, path)
}

// Lookup returns the Resource bound to path, if any.
func (reg *Registry) Lookup(path string) (Resource, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	res, ok := reg.items[path]
	return res, ok
}

// Paths returns the currently registered paths, in no particular
// order.
func (reg *Registry) Paths() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	paths := make([]string, 0, len(reg.items))
	for p := range reg.items {
		paths = append(paths, p)
	}
	return paths
}

// Handler returns an http.Handler that serves resources from reg by
// request path, suitable for mounting under the admin mux.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := reg.Lookup(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		res.ServeContent(w, r)
	})
}
