package ipp

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/events"
	"github.com/printcore/ippd/internal/model"
)

// Handler serves one already-validated IPP request and returns the
// response to send back, generalizing ippsrv.IPPHandlerFunc to the
// full operation set.
type Handler func(ctx context.Context, req *goipp.Message, body []byte, route Route) (*goipp.Message, error)

// Route is the result of resolving a request's target URI to a
// concrete system/printer/job, step 8 of the validation pipeline.
type Route struct {
	System  *model.System
	Printer *model.Printer
	JobID   model.JobID
	HasJob  bool
}

// Dispatcher routes validated IPP requests to operation handlers,
// generalizing basicIPPServer.ServeIPP's 7-entry map to the complete
// operation list named in SPEC_FULL.md §4.1.
type Dispatcher struct {
	BaseURL string
	System  *model.System
	Bus     *events.Bus

	handlers map[goipp.Op]Handler
}

// Option configures a Dispatcher, matching session.Option's idiom.
type Option func(*Dispatcher)

// WithBus attaches the subscription engine's event bus, enabling the
// Create/Get-Notifications/Cancel/Renew-Subscription operations. A
// Dispatcher built without one rejects those operations as
// server-error-internal, since there is nowhere to route them.
func WithBus(b *events.Bus) Option {
	return func(d *Dispatcher) { d.Bus = b }
}

// NewDispatcher wires every supported operation to its handler.
func NewDispatcher(baseURL string, sys *model.System, opts ...Option) *Dispatcher {
	d := &Dispatcher{BaseURL: baseURL, System: sys}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[goipp.Op]Handler{
		goipp.OpPrintJob:             d.handlePrintJob,
		goipp.OpValidateJob:          d.handleValidateJob,
		goipp.OpCreateJob:            d.handleCreateJob,
		goipp.OpSendDocument:         d.handleSendDocument,
		goipp.OpCancelJob:            d.handleCancelJob,
		goipp.OpCancelCurrentJob:     d.handleCancelCurrentJob,
		goipp.OpCancelJobs:           d.handleCancelJobs,
		goipp.OpCancelMyJobs:         d.handleCancelJobs,
		goipp.OpGetJobAttributes:     d.handleGetJobAttributes,
		goipp.OpGetJobs:              d.handleGetJobs,
		goipp.OpGetPrinterAttributes: d.handleGetPrinterAttributes,
		goipp.OpSetPrinterAttributes: d.handleSetPrinterAttributes,
		goipp.OpCloseJob:             d.handleCloseJob,
		goipp.OpIdentifyPrinter:      d.handleIdentifyPrinter,
		goipp.OpPausePrinter:         d.handlePausePrinter,
		goipp.OpResumePrinter:        d.handleResumePrinter,
		goipp.OpHoldJob:              d.handleHoldJob,
		goipp.OpReleaseJob:           d.handleReleaseJob,
		goipp.OpGetDocumentAttributes: d.handleGetDocumentAttributes,
		goipp.OpGetDocuments:         d.handleGetDocuments,
		goipp.OpCancelDocument:       d.handleCancelDocument,

		goipp.OpAcknowledgeJob:           d.handleAcknowledgeJob,
		goipp.OpAcknowledgeDocument:      d.handleAcknowledgeDocument,
		goipp.OpFetchJob:                 d.handleFetchJob,
		goipp.OpFetchDocument:            d.handleFetchDocument,
		goipp.OpUpdateJobStatus:          d.handleUpdateJobStatus,
		goipp.OpUpdateDocumentStatus:     d.handleUpdateDocumentStatus,

		goipp.OpCreatePrinter:          d.handleCreatePrinter,
		goipp.OpDeletePrinter:          d.handleDeletePrinter,
		goipp.OpGetPrinters:            d.handleGetPrinters,
		goipp.OpGetSystemAttributes:    d.handleGetSystemAttributes,
		goipp.OpSetSystemAttributes:    d.handleSetSystemAttributes,
		goipp.OpShutdownAllPrinters:    d.handleShutdownAllPrinters,

		goipp.OpCupsGetDefault:  d.handleGetPrinterAttributes,
		goipp.OpCupsGetPrinters: d.handleGetPrinters,

		goipp.OpCreatePrinterSubscriptions: d.handleCreateSubscriptions,
		goipp.OpCreateJobSubscriptions:     d.handleCreateSubscriptions,
		goipp.OpGetNotifications:           d.handleGetNotifications,
		goipp.OpCancelSubscription:         d.handleCancelSubscription,
		goipp.OpRenewSubscription:          d.handleRenewSubscription,
	}
	return d
}

// Serve validates req, resolves its target, and dispatches it,
// mirroring basicIPPServer.ServeIPP generalized with the full
// validation pipeline of SPEC_FULL.md §4.1.
func (d *Dispatcher) Serve(ctx context.Context, req *goipp.Message, body []byte, requestPath string) (resp *goipp.Message, err error) {
	lg := slog.With("code", req.Code, "request_id", req.RequestID)
	lg.Info("ipp request received")

	if f := d.validate(req); f != nil {
		lg.Warn("request failed validation", "status", f.Status, "message", f.Message)
		return f.Response(req.RequestID), nil
	}

	route, f := d.route(req, requestPath)
	if f != nil {
		lg.Warn("request failed routing", "status", f.Status, "message", f.Message)
		return f.Response(req.RequestID), nil
	}

	h, ok := d.handlers[goipp.Op(req.Code)]
	if !ok {
		return fault(goipp.StatusErrorOperationNotSupported, "unsupported operation").Response(req.RequestID), nil
	}
	resp, err = h(ctx, req, body, route)
	if err != nil {
		var f *Fault
		if asFault(err, &f) {
			return f.Response(req.RequestID), nil
		}
		lg.Error("handler failed", "error", err)
		return fault(goipp.StatusErrorInternal, err.Error()).Response(req.RequestID), nil
	}
	return resp, nil
}

func asFault(err error, out **Fault) bool {
	f, ok := err.(*Fault)
	if ok {
		*out = f
	}
	return ok
}

// validate runs the 9-step pipeline's steps 1-6 (steps 7-9 are target
// resolution, handled by route). Short-circuits on the first failure,
// always taking the strictest interpretation available.
func (d *Dispatcher) validate(req *goipp.Message) *Fault {
	if req.Version.Major != 1 && req.Version.Major != 2 {
		return fault(goipp.StatusErrorVersionNotSupported, "unsupported IPP version")
	}
	if req.RequestID == 0 {
		return fault(goipp.StatusErrorBadRequest, "request-id must be positive")
	}
	if len(req.Operation) == 0 {
		return fault(goipp.StatusErrorBadRequest, "no operation attributes present")
	}

	// Step 4 of the validation pipeline (non-decreasing group-tag order)
	// is enforced by goipp.Message.Decode itself: malformed group
	// ordering on the wire fails there, before a Message ever reaches
	// Serve, so there is nothing left to check against the
	// already-grouped Operation/Job/Printer/... fields here.

	first := req.Operation[0]
	charset, ok := AsString(first.Values, first.Name == "attributes-charset")
	if !ok || (charset != "us-ascii" && charset != "utf-8") {
		return fault(goipp.StatusErrorBadRequest, "attributes-charset missing or unsupported")
	}
	if len(req.Operation) < 2 || req.Operation[1].Name != "attributes-natural-language" {
		return fault(goipp.StatusErrorBadRequest, "attributes-natural-language missing")
	}
	return nil
}

// route resolves steps 7-9: target-URI presence, path-based routing to
// a printer or system scope, and job-id extraction when present.
func (d *Dispatcher) route(req *goipp.Message, requestPath string) (Route, *Fault) {
	route := Route{System: d.System}

	switch goipp.Op(req.Code) {
	case goipp.OpCupsGetDefault, goipp.OpCupsGetPrinters, goipp.OpGetPrinters,
		goipp.OpCreatePrinter, goipp.OpGetSystemAttributes, goipp.OpSetSystemAttributes,
		goipp.OpShutdownAllPrinters:
		return route, nil
	}

	printerURI, hasPrinterURI := AsString(FindAttr(req.Operation, "printer-uri"))
	jobURIStr, hasJobURI := AsString(FindAttr(req.Operation, "job-uri"))
	systemURI, hasSystemURI := AsString(FindAttr(req.Operation, "system-uri"))

	if !hasPrinterURI && !hasJobURI && !hasSystemURI {
		return route, fault(goipp.StatusErrorBadRequest, "no target URI present")
	}

	if hasSystemURI && systemURI != "" {
		return route, nil
	}

	var name string
	var jobID model.JobID

	if hasJobURI {
		u, err := url.Parse(jobURIStr)
		if err != nil {
			return route, fault(goipp.StatusErrorBadRequest, "malformed job-uri")
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) < 2 {
			return route, fault(goipp.StatusErrorNotFound, "job-uri does not name a job")
		}
		name = segs[len(segs)-2]
		id, err := strconv.Atoi(segs[len(segs)-1])
		if err != nil {
			return route, fault(goipp.StatusErrorBadRequest, "malformed job-id in job-uri")
		}
		jobID = model.JobID(id)
		route.HasJob = true
	} else {
		u, err := url.Parse(printerURI)
		if err != nil || (u.Scheme != "ipp" && u.Scheme != "ipps") {
			return route, fault(goipp.StatusErrorBadRequest, "printer-uri missing or unsupported scheme")
		}
		name = strings.TrimPrefix(strings.TrimPrefix(u.Path, d.BaseURL), "/")
		name = strings.TrimPrefix(strings.TrimPrefix(name, "ipp/print/"), "/")
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[:i]
		}
	}
	if name == "" {
		return route, fault(goipp.StatusErrorBadRequest, "target URI names no printer")
	}
	if jobIDAttr, err := ExtractValue[goipp.Integer](req.Operation, "job-id"); err == nil {
		jobID = model.JobID(jobIDAttr)
		route.HasJob = true
	}

	p, err := d.System.FindPrinter(name)
	if err != nil {
		return route, fault(goipp.StatusErrorNotFound, "printer not found: "+name)
	}
	route.Printer = p
	route.JobID = jobID
	return route, nil
}
