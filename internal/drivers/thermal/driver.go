// Package thermal implements model.Driver for a Bluetooth LE thermal
// label/receipt printer, adapting the LX-D02 protocol handling from
// the printers package into the framework's driver
// interface. It exercises the imaging/dithering/font stack alongside
// the BLE transport so a single concrete driver demonstrates the full
// print pipeline end to end.
package thermal

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"tinygo.org/x/bluetooth"

	"github.com/printcore/ippd/bitmap"
	"github.com/printcore/ippd/fontmgr"
	"github.com/printcore/ippd/internal/model"
	"github.com/printcore/ippd/printers"
)

// Width is the LX-D02's printable width in pixels at its native DPI.
const (
	Width = 384
	DPI   = 203.0
)

// Driver binds a printers.LXD02 connection to model.Driver. It is
// safe for concurrent use; the underlying connection serializes
// prints via mu since the device itself processes one job at a
// time.
type Driver struct {
	mu sync.Mutex
	lx *printers.LXD02

	media []string
}

// Options configures Open.
type Options struct {
	// Name or MACAddress identifies the device to connect to; exactly
	// one should be set.
	Name       string
	MACAddress string
	Media      []string
}

// Open connects to a printer matching opts over BLE and returns a
// ready model.Driver. The adapter must already be enabled
// (bluetooth.DefaultAdapter.Enable()) by the caller, matching the
// teacher's own device-discovery flow in printers/device.go.
func Open(ctx context.Context, adapter *bluetooth.Adapter, opts Options) (*Driver, error) {
	lx, err := printers.NewLXD02(ctx, adapter, printers.SearchParameters{
		Name:       opts.Name,
		MACAddress: opts.MACAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("thermal: connect: %w", err)
	}

	media := opts.Media
	if len(media) == 0 {
		media = []string{"om_small-label_29x90mm", "na_index-4x6_4x6in"}
	}

	return &Driver{lx: lx, media: media}, nil
}

// Close disconnects from the device.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lx.Disconnect()
}

func (d *Driver) Status(ctx context.Context) (model.PrinterStateReason, error) {
	// The LX-D02's status notifications update internal FSM state
	// asynchronously rather than answering a synchronous query; a
	// driver in good standing reports no reason.
	return model.PSRNone, nil
}

func (d *Driver) Identify(ctx context.Context, message string) error {
	img, err := renderText(message)
	if err != nil {
		return fmt.Errorf("thermal: identify render: %w", err)
	}
	return d.print(img)
}

func (d *Driver) TestPage(ctx context.Context) error {
	img, err := renderText("TEST PAGE\nippd thermal driver\n")
	if err != nil {
		return fmt.Errorf("thermal: test page render: %w", err)
	}
	return d.print(img)
}

func (d *Driver) Raster(ctx context.Context, img image.Image) error {
	return d.print(img)
}

// ProcessFile handles opaque job bytes. Text formats are laid out
// through bitmap.Document (honoring inline .font/.align/.image
// commands the way the teacher's cmdcompose subcommand does); image
// formats are decoded, resized to Width, and printed directly.
func (d *Driver) ProcessFile(ctx context.Context, format string, data []byte) error {
	img, err := renderDocument(format, data)
	if err != nil {
		return err
	}
	return d.print(img)
}

// renderText lays a single string out on a fresh Width-wide canvas
// using the built-in default font.
func renderText(message string) (image.Image, error) {
	c := bitmap.NewComposer(Width)
	if err := c.AppendText(fontmgr.DefaultFont, message); err != nil {
		return nil, err
	}
	return c.Image(), nil
}

// renderDocument turns opaque job bytes of the given MIME format into
// a Width-wide raster image, without touching the device. Kept
// separate from ProcessFile so the rendering pipeline can be tested
// without a BLE connection.
func renderDocument(format string, data []byte) (image.Image, error) {
	switch {
	case strings.HasPrefix(format, "text/"):
		c := bitmap.NewComposer(Width)
		doc := bitmap.NewDocument(c, DPI)
		if err := doc.Parse(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("thermal: parse text job: %w", err)
		}
		return doc.Image(), nil
	case strings.HasPrefix(format, "image/"):
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("thermal: decode image job: %w", err)
		}
		return imaging.Resize(img, Width, 0, imaging.Lanczos), nil
	default:
		return nil, fmt.Errorf("thermal: unsupported document format %q", format)
	}
}

func (d *Driver) print(img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	slog.Debug("thermal: printing", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	if err := d.lx.PrintImage(img); err != nil {
		return fmt.Errorf("thermal: print: %w", err)
	}
	slog.Info("thermal: print complete", "elapsed", time.Since(start))
	return nil
}

func (d *Driver) DPI() float64 { return DPI }

func (d *Driver) Width() int { return Width }

func (d *Driver) MediaSupported() []string { return d.media }

func (d *Driver) MediaDefault() string {
	if len(d.media) == 0 {
		return ""
	}
	return d.media[0]
}
