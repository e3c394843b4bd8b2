package ipp

import (
	"context"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// Infrastructure-printer operations (Acknowledge-*/Fetch-*/Update-*)
// support the proxy model where an output device pulls jobs from this
// server rather than having them pushed via Print-Job. This server
// plays the infrastructure-printer role; these handlers let a proxy
// client drive a job's lifecycle on its behalf.

func (d *Dispatcher) handleFetchJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	for _, j := range route.Printer.Jobs() {
		snap := j.Snapshot()
		if snap.State != model.JobPending {
			continue
		}
		m := BaseResponse(goipp.StatusOk, req.RequestID)
		m.Job = jobAttributes(snap)
		return m, nil
	}
	return nil, fault(goipp.StatusErrorNotFound, "no fetchable job available")
}

func (d *Dispatcher) handleFetchDocument(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	docs := job.DocumentsSnapshot()
	if len(docs) == 0 {
		return nil, fault(goipp.StatusErrorNotFound, "job has no documents")
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	da := docs[len(docs)-1].Attributes()
	a := Adder(&m.Document)
	a("document-number", goipp.TagInteger, goipp.Integer(da.Number))
	a("document-format", goipp.TagMimeType, goipp.String(da.Format))
	return m, nil
}

func (d *Dispatcher) handleAcknowledgeJob(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	if err := job.Event(ctx, model.EventProcess, []byte{}); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleAcknowledgeDocument(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleUpdateJobStatus(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	job, err := route.Printer.Job(route.JobID)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	if state, err := ExtractValue[goipp.Integer](req.Job, "job-state"); err == nil {
		switch model.JobState(state) {
		case model.JobCompleted:
			_ = job.Event(ctx, model.EventComplete)
		case model.JobAborted:
			_ = job.Event(ctx, model.EventAbort, model.JSRAbortedBySystem)
		case model.JobCancelled:
			job.Latch()
			_ = job.Event(ctx, model.EventCancel, model.JSRJobCancelledByOperator)
		}
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleUpdateDocumentStatus(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil || !route.HasJob {
		return nil, fault(goipp.StatusErrorNotFound, "no job resolved for request")
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}
