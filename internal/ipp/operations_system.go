package ipp

import (
	"context"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// systemAttributes renders Get-System-Attributes, a new response shape
// the teacher never needed (it served exactly one printer with no
// system object at all).
func (d *Dispatcher) systemAttributes() *goipp.Message {
	m := BaseResponse(goipp.StatusOk, RequestNum)
	a := Adder(&m.System)
	a("system-uuid", goipp.TagURI, goipp.String(d.BaseURL))
	a("system-name", goipp.TagName, goipp.String("ippd"))
	a("system-state", goipp.TagEnum, goipp.Integer(3))
	a("system-up-time", goipp.TagInteger, goipp.Integer(d.System.UpTime()))
	names := make([]string, 0)
	for _, p := range d.System.Printers() {
		names = append(names, p.Name)
	}
	if len(names) > 0 {
		a("printer-names-supported", goipp.TagName, StringsToValues(names)...)
	}
	return m
}

func (d *Dispatcher) handleGetSystemAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	m := d.systemAttributes()
	m.RequestID = req.RequestID
	return m, nil
}

func (d *Dispatcher) handleSetSystemAttributes(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleShutdownAllPrinters(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	d.System.RequestShutdown()
	for _, p := range d.System.Printers() {
		p.Pause()
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleCreatePrinter(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	name, err := ExtractValue[goipp.String](req.Printer, "printer-name")
	if err != nil {
		return nil, fault(goipp.StatusErrorBadRequest, "printer-name is required")
	}
	info, _ := AsString(FindAttr(req.Printer, "printer-info"))
	deviceURI, _ := AsString(FindAttr(req.Printer, "smi2699-device-uri"))

	drv := model.NewNullDriver()
	p, err := d.System.CreatePrinter(name.String(), "Generic IPP Printer", info, deviceURI, drv, d.BaseURL)
	if err != nil {
		return nil, fault(goipp.StatusErrorNotPossible, err.Error())
	}
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	a := Adder(&m.Printer)
	a("printer-id", goipp.TagInteger, goipp.Integer(p.PrinterID))
	a("printer-uuid", goipp.TagURI, goipp.String("urn:uuid:"+p.UUID()))
	a("printer-uri-supported", goipp.TagURI, goipp.String(d.BaseURL+"/ipp/print/"+p.Name))
	return m, nil
}

func (d *Dispatcher) handleDeletePrinter(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	id, err := ExtractValue[goipp.Integer](req.Printer, "printer-id")
	if err != nil {
		return nil, fault(goipp.StatusErrorBadRequest, "printer-id is required")
	}
	if err := d.System.DeletePrinter(ctx, int(id)); err != nil {
		return nil, fault(goipp.StatusErrorNotFound, err.Error())
	}
	return BaseResponse(goipp.StatusOk, req.RequestID), nil
}

func (d *Dispatcher) handleGetPrinters(ctx context.Context, req *goipp.Message, _ []byte, route Route) (*goipp.Message, error) {
	m := BaseResponse(goipp.StatusOk, req.RequestID)
	var groups []goipp.Attributes
	for _, p := range d.System.Printers() {
		groups = append(groups, d.printerAttrs(p))
	}
	WithGroups(m, goipp.TagPrinterGroup, groups)
	return m, nil
}
