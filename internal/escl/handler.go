package escl

import (
	"fmt"
	"net/http"

	"github.com/printcore/ippd/internal/model"
)

// Handler serves the eSCL surface mounted under /eSCL/<printer> by
// session.Server, generalizing a single scanner's capabilities and
// ScanJobs endpoints across every registered printer the way
// internal/ipp's Dispatcher generalizes IPP across printers.
type Handler struct {
	System *model.System
	mux    *http.ServeMux
}

// NewHandler builds the eSCL routing surface.
func NewHandler(sys *model.System) *Handler {
	h := &Handler{System: sys}
	m := http.NewServeMux()
	m.HandleFunc("GET /{name}/ScannerCapabilities", h.handleCapabilities)
	m.HandleFunc("POST /{name}/ScanJobs", h.handleScanJobs)
	h.mux = m
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, err := h.System.FindPrinter(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	caps := NewPlatenCapabilities(p.MakeModel, p.UUID(), 2550, 3508, []string{"RGB24", "Grayscale8"}, []string{"image/jpeg", "application/pdf"})
	w.Header().Set("Content-Type", "text/xml")
	if err := caps.Encode(w); err != nil {
		http.Error(w, "failed to encode capabilities", http.StatusInternalServerError)
	}
}

func (h *Handler) handleScanJobs(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	p, err := h.System.FindPrinter(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	settings, err := ParseScanSettings(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !mediaMatchesSource(p, settings.InputSource) {
		http.Error(w, "unsupported scan:InputSource", http.StatusUnprocessableEntity)
		return
	}

	jobID := fmt.Sprintf("%d", p.PrinterID)
	w.Header().Set("Location", fmt.Sprintf("/eSCL/%s/ScanJobs/%s", name, jobID))
	w.WriteHeader(http.StatusCreated)
}

func mediaMatchesSource(p *model.Printer, source string) bool {
	switch source {
	case "", "Platen", "Feeder":
		return true
	default:
		return false
	}
}
