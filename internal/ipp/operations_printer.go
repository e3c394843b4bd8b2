package ipp

import (
	"context"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// printerAttributes renders a printer's Get-Printer-Attributes
// response, generalizing basicIPPServer.printerAttributes to a
// System-owned, multi-printer registry.
func (d *Dispatcher) printerAttributes(p *model.Printer) *goipp.Message {
	m := BaseResponse(goipp.StatusOk, RequestNum)
	m.Printer = d.printerAttrs(p)
	return m
}

// printerAttrs renders just the printer-group attribute set, shared by
// printerAttributes (single printer) and handleGetPrinters (one group
// per printer via Message.Groups).
func (d *Dispatcher) printerAttrs(p *model.Printer) goipp.Attributes {
	var attrs goipp.Attributes
	a := Adder(&attrs)
	uri := d.BaseURL + "/ipp/print/" + p.Name
	a("printer-uri-supported", goipp.TagURI, goipp.String(uri))
	a("uri-authentication-supported", goipp.TagKeyword, None)
	a("uri-security-supported", goipp.TagKeyword, None)
	a("printer-name", goipp.TagName, goipp.String(p.Name))
	a("printer-info", goipp.TagText, goipp.String(p.Info))
	a("printer-make-and-model", goipp.TagText, goipp.String(p.MakeModel))
	a("printer-state", goipp.TagEnum, goipp.Integer(p.State()))
	reasons := []string{"none"}
	if p.IsStopped {
		reasons = []string{"paused"}
	}
	a("printer-state-reasons", goipp.TagKeyword, StringsToValues(reasons)...)
	a("ipp-versions-supported", goipp.TagKeyword, goipp.String("1.1"), goipp.String("2.0"))
	a("operations-supported", goipp.TagEnum, supportedOps()...)
	a("multiple-document-jobs-supported", goipp.TagBoolean, goipp.Boolean(true))
	a("multiple-operation-time-out", goipp.TagInteger, goipp.Integer(120))
	a("charset-configured", goipp.TagCharset, UTF8)
	a("charset-supported", goipp.TagCharset, UTF8)
	a("natural-language-configured", goipp.TagLanguage, EnUS)
	a("generated-natural-language-supported", goipp.TagLanguage, EnUS)
	a("document-format-default", goipp.TagMimeType, ApplicationPDF)
	a("document-format-supported", goipp.TagMimeType, ApplicationPDF, ImageURF, OctetStream)
	a("printer-is-accepting-jobs", goipp.TagBoolean, goipp.Boolean(p.Ready()))
	a("queued-job-count", goipp.TagInteger, goipp.Integer(p.GetJobCount()))
	a("pdl-override-supported", goipp.TagKeyword, goipp.String("not-attempted"))
	a("printer-up-time", goipp.TagInteger, goipp.Integer(p.UpTime()))
	a("compression-supported", goipp.TagKeyword, None)
	a("media-supported", goipp.TagKeyword, StringsToValues(p.MediaSupported())...)
	a("media-default", goipp.TagKeyword, goipp.String(p.DefaultMedia))
	a("printer-uuid", goipp.TagURI, goipp.String("urn:uuid:"+p.UUID()))
	a("job-hold-until-supported", goipp.TagKeyword, goipp.String("no-hold"), goipp.String("indefinite"))
	a("job-hold-until-default", goipp.TagKeyword, goipp.String("no-hold"))
	return attrs
}

func supportedOps() []goipp.Value {
	ops := []goipp.Op{
		goipp.OpPrintJob, goipp.OpValidateJob, goipp.OpCreateJob, goipp.OpSendDocument,
		goipp.OpCancelJob, goipp.OpCancelCurrentJob, goipp.OpCancelJobs, goipp.OpCancelMyJobs,
		goipp.OpGetJobAttributes, goipp.OpGetJobs, goipp.OpGetPrinterAttributes,
		goipp.OpSetPrinterAttributes, goipp.OpCloseJob, goipp.OpIdentifyPrinter,
		goipp.OpPausePrinter, goipp.OpResumePrinter, goipp.OpHoldJob, goipp.OpReleaseJob,
		goipp.OpGetDocumentAttributes, goipp.OpGetDocuments, goipp.OpCancelDocument,
	}
	vv := make([]goipp.Value, len(ops))
	for i, op := range ops {
		vv[i] = goipp.Integer(op)
	}
	return vv
}

func (d *Dispatcher) handleGetPrinterAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	m := d.printerAttributes(route.Printer)
	m.RequestID = req.RequestID
	return m, nil
}

func (d *Dispatcher) handleSetPrinterAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	if v, err := ExtractValue[goipp.Boolean](req.Printer, "printer-is-accepting-jobs"); err == nil {
		route.Printer.HoldNewJobs = !bool(v)
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleIdentifyPrinter(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	msg, _ := AsString(FindAttr(req.Operation, "message"))
	if err := route.Printer.Drv.Identify(ctx, msg); err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, "identify failed: "+err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handlePausePrinter(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	route.Printer.Pause()
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleResumePrinter(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	if route.Printer == nil {
		return nil, fault(goipp.StatusErrorNotFound, "no printer resolved for request")
	}
	route.Printer.Resume()
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}
