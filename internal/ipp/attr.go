// Package ipp implements the IPP request dispatcher and the typed
// attribute helpers the operation handlers are built on.
//
// References:
//   - https://datatracker.ietf.org/doc/html/rfc8011
//   - https://datatracker.ietf.org/doc/html/rfc2911
package ipp

import (
	"fmt"

	"github.com/OpenPrinting/goipp"
)

// Well-known string constants reused across responses.
const (
	None           goipp.String = "none"
	UTF8           goipp.String = "utf-8"
	EnUS           goipp.String = "en-us"
	ApplicationPDF goipp.String = "application/pdf"
	ImageURF       goipp.String = "image/urf"
	OctetStream    goipp.String = "application/octet-stream"
)

// StatusClass is the RFC 8011 appendix B status-code class, kept as a
// string for status-message construction.
type StatusClass string

const (
	ClassInformational StatusClass = "informational"
	ClassSuccessful    StatusClass = "successful"
	ClassRedirection   StatusClass = "redirection"
	ClassClientError   StatusClass = "client-error"
	ClassServerError   StatusClass = "server-error"
)

// RequestNum is the default response request-id used when the
// original request-id cannot be recovered (should not normally happen,
// since the dispatcher always echoes the request's own id).
const RequestNum = 1

// Adder returns a closure that appends one attribute (with one or more
// values sharing the same tag) to an attribute group, mutating *group
// directly so callers never need to reassign the accumulated slice
// back onto a message field themselves.
func Adder(group *goipp.Attributes) func(name string, tag goipp.Tag, values ...goipp.Value) {
	return func(name string, tag goipp.Tag, values ...goipp.Value) {
		if len(values) == 0 {
			values = []goipp.Value{goipp.String("")}
		}
		attr := goipp.MakeAttribute(name, tag, values[0])
		for _, v := range values[1:] {
			attr.Values.Add(tag, v)
		}
		group.Add(attr)
	}
}

// StringsToValues converts a slice of string-like values into
// goipp.Value, preserving element order.
func StringsToValues[S ~[]E, E ~string](strs S) []goipp.Value {
	values := make([]goipp.Value, len(strs))
	for i, s := range strs {
		values[i] = goipp.String(s)
	}
	return values
}

// FindAttr returns the first attribute matching name within attrs.
func FindAttr(attrs goipp.Attributes, name string) (goipp.Values, bool) {
	for _, attr := range attrs {
		if attr.Name == name && len(attr.Values) > 0 {
			return attr.Values, true
		}
	}
	return nil, false
}

// ExtractValue returns the single value of the named attribute, typed
// as T. It errors if the attribute is missing, repeated, or of the
// wrong underlying type.
func ExtractValue[T any](attrs goipp.Attributes, name string) (T, error) {
	var zero T
	vv, ok := FindAttr(attrs, name)
	if !ok {
		return zero, fmt.Errorf("attribute %q not found", name)
	}
	if len(vv) > 1 {
		return zero, fmt.Errorf("attribute %q has multiple values: %d", name, len(vv))
	}
	v := vv[0].V
	if val, ok := v.(T); ok {
		return val, nil
	}
	return zero, fmt.Errorf("attribute %q is not of type %T: %T", name, zero, v)
}

// ExtractValues returns all values of the named attribute, typed as T.
func ExtractValues[T any](attrs goipp.Attributes, name string) ([]T, error) {
	vv, ok := FindAttr(attrs, name)
	if !ok {
		return nil, fmt.Errorf("attribute %q not found", name)
	}
	out := make([]T, 0, len(vv))
	for _, v := range vv {
		t, ok := v.V.(T)
		if !ok {
			return nil, fmt.Errorf("attribute %q has a value not of type %T: %T", name, *new(T), v.V)
		}
		out = append(out, t)
	}
	return out, nil
}

// AsString extracts a plain string from an (attribute-values, ok) pair
// as returned by FindAttr, for optional/loosely-typed lookups.
func AsString(vv goipp.Values, ok bool) (string, bool) {
	if !ok || len(vv) == 0 {
		return "", false
	}
	v := vv[0].V
	if v.Type() != goipp.TypeString {
		return "", false
	}
	return v.String(), true
}

// WithGroups sets m.Groups to one group per element of attrs, each
// tagged group, preceded by m's own operation-attributes group. Used
// by responses carrying a repeated collection (Get-Jobs, Get-Printers,
// Get-Documents) where goipp's named Message fields can only represent
// a single group and would otherwise collapse every item's attributes
// into one indistinguishable run on the wire.
func WithGroups(m *goipp.Message, group goipp.Tag, attrs []goipp.Attributes) {
	groups := goipp.Groups{{Tag: goipp.TagOperationGroup, Attrs: m.Operation}}
	for _, a := range attrs {
		groups.Add(goipp.Group{Tag: group, Attrs: a})
	}
	m.Groups = groups
}

// GroupsOf returns the Attrs of every group tagged tag, in order,
// reading from m.Groups when the decoder populated it and falling back
// to the single matching named field otherwise (a message built by
// this package but never round-tripped through Encode/Decode).
func GroupsOf(m *goipp.Message, tag goipp.Tag) []goipp.Attributes {
	if m.Groups != nil {
		var out []goipp.Attributes
		for _, g := range m.Groups {
			if g.Tag == tag {
				out = append(out, g.Attrs)
			}
		}
		return out
	}
	switch tag {
	case goipp.TagJobGroup:
		return []goipp.Attributes{m.Job}
	case goipp.TagPrinterGroup:
		return []goipp.Attributes{m.Printer}
	case goipp.TagDocumentGroup:
		return []goipp.Attributes{m.Document}
	default:
		return nil
	}
}

// BaseResponse builds a response message pre-populated with the
// mandatory charset/language operation attributes and the given
// status code, echoing requestID.
func BaseResponse(status goipp.Status, requestID uint32) *goipp.Message {
	m := goipp.NewResponse(goipp.DefaultVersion, status, requestID)
	a := Adder(&m.Operation)
	a("attributes-charset", goipp.TagCharset, UTF8)
	a("attributes-natural-language", goipp.TagLanguage, EnUS)
	return m
}
