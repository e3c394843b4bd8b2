package ipp

import (
	"fmt"

	"github.com/OpenPrinting/goipp"

	"github.com/printcore/ippd/internal/model"
)

// sidesSupported lists the fixed RFC 8011 §5.2-2 keyword values for
// "sides"; unlike "media" these are not a per-printer supported-values
// set, so any value outside this fixed set is simply malformed.
var sidesSupported = []string{"one-sided", "two-sided-long-edge", "two-sided-short-edge"}

// ValidateJobAttributes checks the job-template attributes of a
// submission against p's supported values, returning a Fault with the
// unsupported attribute copied into it if any are rejected. Unlike the
// teacher (which performs no template validation at all), this checks
// every job-template attribute the printer model can actually have an
// opinion on: "media" against the driver's media-supported list (plus
// recursive media-col checking via goipp.Collection), "copies" for a
// positive count, "sides" against the fixed IPP keyword set, and
// "orientation-requested" against the fixed IPP enum range. The
// remaining job-template attributes (print-quality, print-color-mode,
// printer-resolution, and so on) have no supported-values
// representation in model.Printer, so nothing here can validate them.
func ValidateJobAttributes(job goipp.Attributes, p *model.Printer) *Fault {
	if v, ok := FindAttr(job, "media"); ok {
		if s, ok := AsString(v, true); ok && !mediaSupported(s, p) {
			return unsupportedFault("media", goipp.TagKeyword, goipp.String(s))
		}
	}
	if v, ok := FindAttr(job, "copies"); ok {
		if n, ok := v[0].V.(goipp.Integer); ok && n < 1 {
			return unsupportedFault("copies", goipp.TagInteger, n)
		}
	}
	if v, ok := FindAttr(job, "sides"); ok {
		if s, ok := AsString(v, true); ok && !stringInSlice(s, sidesSupported) {
			return unsupportedFault("sides", goipp.TagKeyword, goipp.String(s))
		}
	}
	if v, ok := FindAttr(job, "orientation-requested"); ok {
		if n, ok := v[0].V.(goipp.Integer); ok && (n < 3 || n > 6) {
			return unsupportedFault("orientation-requested", goipp.TagEnum, n)
		}
	}
	if vv, ok := FindAttr(job, "media-col"); ok {
		for _, v := range vv {
			col, ok := v.V.(goipp.Collection)
			if !ok {
				continue
			}
			if f := validateMediaCol(goipp.Attributes(col), p); f != nil {
				return f
			}
		}
	}
	return nil
}

func stringInSlice(s string, slice []string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func mediaSupported(name string, p *model.Printer) bool {
	for _, m := range p.MediaSupported() {
		if m == name {
			return true
		}
	}
	return false
}

// validateMediaCol checks a media-col collection: its media-size-name
// against the printer's supported media list, or, when that is absent,
// that each media-size collection carries both x-dimension and
// y-dimension. The dimension values are not compared with anything.
func validateMediaCol(col goipp.Attributes, p *model.Printer) *Fault {
	if v, ok := AsString(FindAttr(col, "media-size-name")); ok {
		if !mediaSupported(v, p) {
			return unsupportedFault("media-col/media-size-name", goipp.TagKeyword, goipp.String(v))
		}
		return nil
	}
	sizeVV, hasSize := FindAttr(col, "media-size")
	if !hasSize {
		return nil
	}
	for _, v := range sizeVV {
		sizeCol, ok := v.V.(goipp.Collection)
		if !ok {
			continue
		}
		sizeAttrs := goipp.Attributes(sizeCol)
		if _, ok := FindAttr(sizeAttrs, "x-dimension"); !ok {
			return missingAttrFault("media-col/media-size", "x-dimension")
		}
		if _, ok := FindAttr(sizeAttrs, "y-dimension"); !ok {
			return missingAttrFault("media-col/media-size", "y-dimension")
		}
	}
	return nil
}

// unsupportedFault builds a Fault for a rejected attribute value,
// carrying the offending name/value pair so Fault.Response can copy it
// into the response's Unsupported group.
func unsupportedFault(name string, tag goipp.Tag, value goipp.Value) *Fault {
	attr := goipp.MakeAttribute(name, tag, value)
	return &Fault{
		Status:  goipp.StatusErrorAttributesOrValues,
		Message: fmt.Sprintf("unsupported value for %s: %v", name, value),
		Attr:    &attr,
	}
}

// missingAttrFault builds a Fault for a required sub-attribute absent
// from a collection, with no single value to copy into Unsupported.
func missingAttrFault(collection, attr string) *Fault {
	return &Fault{
		Status:  goipp.StatusErrorAttributesOrValues,
		Message: collection + " missing " + attr,
	}
}
