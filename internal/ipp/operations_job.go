package ipp

import (
	"context"
	"fmt"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// jobAttributes renders a job snapshot as a Get-Job-Attributes /
// Get-Jobs response group, generalizing the teacher's job.attributes()
// to the wire layer living in this package rather than in model.
func jobAttributes(snap model.Snapshot) goipp.Attributes {
	var attrs goipp.Attributes
	a := Adder(&attrs)
	a("job-id", goipp.TagInteger, goipp.Integer(snap.ID))
	a("job-uri", goipp.TagURI, goipp.String(snap.JobURI))
	a("job-printer-uri", goipp.TagURI, goipp.String(snap.PrinterURI))
	a("job-name", goipp.TagName, goipp.String(snap.Name))
	a("job-originating-user-name", goipp.TagName, goipp.String(snap.Username))
	a("job-state", goipp.TagEnum, goipp.Integer(snap.State))
	reasons := make([]string, 0, len(snap.StateReasons))
	for _, r := range snap.StateReasons {
		reasons = append(reasons, string(r))
	}
	if len(reasons) == 0 {
		reasons = []string{"none"}
	}
	a("job-state-reasons", goipp.TagKeyword, StringsToValues(reasons)...)
	a("time-at-creation", goipp.TagInteger, goipp.Integer(snap.Created.Unix()))
	if !snap.Processing.IsZero() {
		a("time-at-processing", goipp.TagInteger, goipp.Integer(snap.Processing.Unix()))
	}
	if !snap.Completed.IsZero() {
		a("time-at-completed", goipp.TagInteger, goipp.Integer(snap.Completed.Unix()))
	}
	a("number-of-documents", goipp.TagInteger, goipp.Integer(snap.NumDocuments))
	return attrs
}

func (d *Dispatcher) handlePrintJob(ctx context.Context, req *goipp.Message, body []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	name, _ := AsString(FindAttr(req.Operation, "job-name"))
	username, _ := AsString(FindAttr(req.Operation, "requesting-user-name"))

	job, err := route.Printer.CreateJob(name, username)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotAcceptingJobs, err.Error())
	}
	format, _ := AsString(FindAttr(req.Operation, "document-format"))
	if format == "" || format == string(OctetStream) {
		if detected, ok := DetectFormat(body, nil); ok {
			format = detected
		}
	}
	if _, err := job.AppendDocument(format, body, true); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}

	m := BaseResponse(goipp.StatusOk, req.RequestID)
	a := Adder(&m.Job)
	snap := job.Snapshot()
	a("job-id", goipp.TagInteger, goipp.Integer(snap.ID))
	a("job-uri", goipp.TagURI, goipp.String(snap.JobURI))
	a("job-state", goipp.TagEnum, goipp.Integer(snap.State))
	a("job-state-reasons", goipp.TagKeyword, None)
	return m, nil
}

func (d *Dispatcher) handleValidateJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	if f := ValidateJobAttributes(req.Job, route.Printer); f != nil {
		return f.Response(req.RequestID), nil
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleCreateJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	name, _ := AsString(FindAttr(req.Operation, "job-name"))
	username, _ := AsString(FindAttr(req.Operation, "requesting-user-name"))
	job, err := route.Printer.CreateJob(name, username)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotAcceptingJobs, err.Error())
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	a := Adder(&m.Job)
	snap := job.Snapshot()
	a("job-id", goipp.TagInteger, goipp.Integer(snap.ID))
	a("job-uri", goipp.TagURI, goipp.String(snap.JobURI))
	a("job-state", goipp.TagEnum, goipp.Integer(snap.State))
	a("job-state-reasons", goipp.TagKeyword, goipp.String("job-incoming"))
	return m, nil
}

func (d *Dispatcher) handleSendDocument(ctx context.Context, req *goipp.Message, body []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	last, _ := ExtractValue[goipp.Boolean](req.Operation, "last-document")
	format, _ := AsString(FindAttr(req.Operation, "document-format"))
	if _, err := job.AppendDocument(format, body, bool(last)); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	a := Adder(&m.Job)
	snap := job.Snapshot()
	a("job-id", goipp.TagInteger, goipp.Integer(snap.ID))
	a("job-state", goipp.TagEnum, goipp.Integer(snap.State))
	a("job-state-reasons", goipp.TagKeyword, None)
	return m, nil
}

func (d *Dispatcher) handleCloseJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	_ = job // multi-document close is a no-op beyond marking lastSent, already done by AppendDocument(last=true)
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleGetJobAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, fmt.Sprintf("job %d not found", route.JobID))
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	m.Job = jobAttributes(job.Snapshot())
	return m, nil
}

func (d *Dispatcher) handleGetJobs(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	username, _ := AsString(FindAttr(req.Operation, "requesting-user-name"))
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	var groups []goipp.Attributes
	for _, j := range route.Printer.Jobs() {
		snap := j.Snapshot()
		if username != "" && snap.Username != username {
			continue
		}
		groups = append(groups, jobAttributes(snap))
	}
	WithGroups(m, goipp.TagJobGroup, groups)
	return m, nil
}

func (d *Dispatcher) handleCancelJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	job.Latch()
	if err := job.Event(ctx, model.EventCancel, model.JSRJobCancelledByUser); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleCancelCurrentJob(ctx context.Context, req *goipp.Message, body []byte, route Route) (*goipp.Message, error) {
	return d.handleCancelJob(ctx, req, body, route)
}

func (d *Dispatcher) handleCancelJobs(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	username, _ := AsString(FindAttr(req.Operation, "requesting-user-name"))
	route.Printer.CancelAllJobs(ctx, username)
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleHoldJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	if err := job.Event(ctx, model.EventHold, model.JSRJobHeldUntilSpecified); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleReleaseJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	if err := job.Event(ctx, model.EventRelease); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleGetDocumentAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	num, err := ExtractValue[goipp.Integer](req.Operation, "document-number")
	if err != nil {
		return nil, fault(goipp.StatusErrorBadRequest, "document-number required")
	}
	docs := job.DocumentsSnapshot()
	idx := int(num) - 1
	if idx < 0 || idx >= len(docs) {
		return nil, fault(goipp.StatusErrorNotFound, "document not found")
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	da := docs[idx].Attributes()
	a := Adder(&m.Document)
	a("document-number", goipp.TagInteger, goipp.Integer(da.Number))
	a("document-format", goipp.TagMimeType, goipp.String(da.Format))
	a("document-state", goipp.TagEnum, goipp.Integer(da.State))
	a("k-octets", goipp.TagInteger, goipp.Integer(da.KOctets))
	return m, nil
}

func (d *Dispatcher) handleGetDocuments(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	var groups []goipp.Attributes
	for _, d := range job.DocumentsSnapshot() {
		da := d.Attributes()
		var attrs goipp.Attributes
		a := Adder(&attrs)
		a("document-number", goipp.TagInteger, goipp.Integer(da.Number))
		a("document-format", goipp.TagMimeType, goipp.String(da.Format))
		a("document-state", goipp.TagEnum, goipp.Integer(da.State))
		groups = append(groups, attrs)
	}
	WithGroups(m, goipp.TagDocumentGroup, groups)
	return m, nil
}

func (d *Dispatcher) handleCancelDocument(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	job.Latch()
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}
