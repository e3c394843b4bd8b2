package model

import (
	"context"
	"fmt"
	"image"
)

// NullDriver is a Driver that accepts any job and discards its bytes,
// used by tests and by `ippd server` for printers whose device URI is
// "null:" or empty, for protocol-level exercising without physical
// hardware.
type NullDriver struct {
	DPIValue   float64
	WidthValue int
	Media      []string
}

// NewNullDriver builds a driver with sensible thermal-label-ish
// defaults, matching the teacher's lx-d02 reference values.
func NewNullDriver() *NullDriver {
	return &NullDriver{
		DPIValue:   203,
		WidthValue: 0,
		Media:      []string{"om_small-label_29x90mm", "na_index-4x6_4x6in"},
	}
}

func (d *NullDriver) Status(ctx context.Context) (PrinterStateReason, error) {
	return PSRNone, nil
}

func (d *NullDriver) Identify(ctx context.Context, message string) error {
	return nil
}

func (d *NullDriver) TestPage(ctx context.Context) error {
	return nil
}

func (d *NullDriver) Raster(ctx context.Context, img image.Image) error {
	return nil
}

func (d *NullDriver) ProcessFile(ctx context.Context, format string, data []byte) error {
	return nil
}

func (d *NullDriver) DPI() float64 { return d.DPIValue }

func (d *NullDriver) Width() int {
	if d.WidthValue == 0 {
		return 696 // 3.425in at 203dpi
	}
	return d.WidthValue
}

func (d *NullDriver) MediaSupported() []string {
	if len(d.Media) == 0 {
		return []string{"na_index-4x6_4x6in"}
	}
	return d.Media
}

func (d *NullDriver) MediaDefault() string {
	m := d.MediaSupported()
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

// DriverFault wraps a driver-reported error with the printer it
// occurred on, so callers can log and set printer-state-reasons
// without the model package needing to know about transport-level
// error types.
type DriverFault struct {
	PrinterID int
	Err       error
}

func (f *DriverFault) Error() string {
	return fmt.Sprintf("printer %d: driver error: %v", f.PrinterID, f.Err)
}

func (f *DriverFault) Unwrap() error { return f.Err }
