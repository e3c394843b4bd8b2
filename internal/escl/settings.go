// Package escl implements the eSCL scanner protocol's XML document
// exchange: decoding a client's ScanSettings submission and emitting a
// scanner's ScannerCapabilities advertisement.
package escl

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ContentRegionUnits is the unit a ScanRegion's dimensions are given
// in, per the eSCL schema's escl:ContentRegionUnits enumeration.
type ContentRegionUnits string

const (
	UnitsThreeHundredthsOfInches ContentRegionUnits = "escl:ThreeHundredthsOfInches"
)

// ScanRegion is one pwg:ScanRegion element.
type ScanRegion struct {
	Height             int
	Width              int
	XOffset            int
	YOffset            int
	ContentRegionUnits ContentRegionUnits
}

// ScanSettings is the decoded form of a client's ScanJobs POST body,
// covering exactly the element set spec.md §6 names: pwg:Version,
// scan:Intent, pwg:ScanRegions, pwg:InputSource, scan:ColorMode,
// scan:BlankPageDetection.
type ScanSettings struct {
	Version             string
	Intent              string
	ScanRegions         []ScanRegion
	InputSource         string
	ColorMode           string
	BlankPageDetection  bool
	hasBlankPageSetting bool
}

// HasBlankPageDetection reports whether the document set
// scan:BlankPageDetection at all, distinguishing "false" from "absent"
// since the latter means the scanner's own default applies.
func (s *ScanSettings) HasBlankPageDetection() bool { return s.hasBlankPageSetting }

// ErrMissingVersion is returned when a ScanSettings document has no
// pwg:Version element, the one field the eSCL schema requires.
var ErrMissingVersion = errors.New("escl: missing pwg:Version")

// ParseScanSettings decodes a ScanSettings XML document from r.
// Grounded directly on ipp-usb/escl.go's esclCapsDecoder.decode: a
// RawToken loop accumulating a "/"-joined element path via a byte
// buffer and a length stack, dispatched through element(path) for
// start tags and data(path, value) for character data — a real parser
// rather than the regex approach spec.md explicitly calls brittle.
func ParseScanSettings(r io.Reader) (*ScanSettings, error) {
	dec := newSettingsDecoder()
	if err := dec.decode(r); err != nil {
		return nil, err
	}
	if dec.settings.Version == "" {
		return nil, ErrMissingVersion
	}
	return &dec.settings, nil
}

type settingsDecoder struct {
	settings  ScanSettings
	inRegion  bool
	curRegion ScanRegion
}

func newSettingsDecoder() *settingsDecoder {
	return &settingsDecoder{}
}

func (d *settingsDecoder) decode(r io.Reader) error {
	xd := xml.NewDecoder(r)

	var path bytes.Buffer
	var lenStack []int

	for {
		tok, err := xd.RawToken()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			lenStack = append(lenStack, path.Len())
			path.WriteByte('/')
			path.WriteString(t.Name.Space)
			path.WriteByte(':')
			path.WriteString(t.Name.Local)
			d.element(path.String())

		case xml.EndElement:
			p := path.String()
			if p == esclScanRegion && d.inRegion {
				d.settings.ScanRegions = append(d.settings.ScanRegions, d.curRegion)
				d.curRegion = ScanRegion{}
				d.inRegion = false
			}
			last := len(lenStack) - 1
			path.Truncate(lenStack[last])
			lenStack = lenStack[:last]

		case xml.CharData:
			data := bytes.TrimSpace(t)
			if len(data) > 0 {
				d.data(path.String(), string(data))
			}
		}
	}
	return nil
}

const (
	esclScanSettings = "/scan:ScanSettings"
	esclScanRegions  = esclScanSettings + "/pwg:ScanRegions"
	esclScanRegion   = esclScanRegions + "/pwg:ScanRegion"

	esclHeight  = esclScanRegion + "/pwg:Height"
	esclWidth   = esclScanRegion + "/pwg:Width"
	esclXOffset = esclScanRegion + "/pwg:XOffset"
	esclYOffset = esclScanRegion + "/pwg:YOffset"
	esclUnits   = esclScanRegion + "/escl:ContentRegionUnits"

	esclVersion     = esclScanSettings + "/pwg:Version"
	esclIntent      = esclScanSettings + "/scan:Intent"
	esclInputSource = esclScanSettings + "/pwg:InputSource"
	esclColorMode   = esclScanSettings + "/scan:ColorMode"
	esclBlankPage   = esclScanSettings + "/scan:BlankPageDetection"
)

func (d *settingsDecoder) element(path string) {
	if path == esclScanRegion {
		d.inRegion = true
		d.curRegion = ScanRegion{}
	}
}

func (d *settingsDecoder) data(path, data string) {
	switch path {
	case esclVersion:
		d.settings.Version = data
	case esclIntent:
		d.settings.Intent = data
	case esclInputSource:
		d.settings.InputSource = data
	case esclColorMode:
		d.settings.ColorMode = data
	case esclBlankPage:
		d.settings.hasBlankPageSetting = true
		d.settings.BlankPageDetection = strings.EqualFold(data, "true") || data == "1"
	case esclHeight:
		d.curRegion.Height = atoi(data)
	case esclWidth:
		d.curRegion.Width = atoi(data)
	case esclXOffset:
		d.curRegion.XOffset = atoi(data)
	case esclYOffset:
		d.curRegion.YOffset = atoi(data)
	case esclUnits:
		d.curRegion.ContentRegionUnits = ContentRegionUnits(data)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
