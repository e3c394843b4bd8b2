package ipp

import "github.com/OpenPrinting/goipp"

// Fault represents a validation or operation failure that maps onto an
// IPP status code plus an optional human-readable message. Attr, when
// set, is the offending attribute (name and rejected value) to copy
// into the response's Unsupported group, per spec.md §4.1.
type Fault struct {
	Status  goipp.Status
	Message string
	Attr    *goipp.Attribute
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return f.Status.String()
	}
	return f.Status.String() + ": " + f.Message
}

func fault(status goipp.Status, msg string) *Fault {
	return &Fault{Status: status, Message: msg}
}

// Response renders the fault as a complete response message, copying
// Attr into the Unsupported group when the failure names one.
func (f *Fault) Response(requestID uint32) *goipp.Message {
	m := BaseResponse(f.Status, requestID)
	if f.Message != "" {
		Adder(&m.Operation)("status-message", goipp.TagText, goipp.String(f.Message))
	}
	if f.Attr != nil {
		m.Unsupported.Add(*f.Attr)
	}
	return m
}
