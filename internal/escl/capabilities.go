package escl

import (
	"encoding/xml"
	"io"
)

// SettingProfile lists the color modes and document formats one
// scan source (platen, ADF simplex, ADF duplex) supports, mirroring
// ipp-usb/escl.go's per-source SettingProfile grouping.
type SettingProfile struct {
	ColorModes      []string `xml:"scan:ColorModes>scan:ColorMode"`
	DocumentFormats []string `xml:"scan:DocumentFormats>pwg:DocumentFormat"`
}

type settingProfiles struct {
	Profile SettingProfile `xml:"scan:SettingProfile"`
}

// InputCaps is one source's capability block.
type InputCaps struct {
	MinWidth        int             `xml:"scan:MinWidth"`
	MaxWidth        int             `xml:"scan:MaxWidth"`
	MinHeight       int             `xml:"scan:MinHeight"`
	MaxHeight       int             `xml:"scan:MaxHeight"`
	SettingProfiles settingProfiles `xml:"scan:SettingProfiles"`
}

// Capabilities is the scanner-side advertisement, built the same way
// ipp-usb/escl.go's EsclService builds its DNS-SD TXT records from a
// device's reported properties, adapted here to emit the XML document
// those TXT records were themselves derived from rather than consume
// one.
type Capabilities struct {
	XMLName xml.Name `xml:"scan:ScannerCapabilities"`
	XmlnsNS string   `xml:"xmlns:pwg,attr"`
	XmlnsS  string   `xml:"xmlns:scan,attr"`

	Version      string `xml:"pwg:Version"`
	MakeAndModel string `xml:"pwg:MakeAndModel"`
	SerialNumber string `xml:"pwg:SerialNumber,omitempty"`
	UUID         string `xml:"scan:UUID,omitempty"`
	AdminURI     string `xml:"scan:AdminURI,omitempty"`
	IconURI      string `xml:"scan:IconURI,omitempty"`

	Platen *struct {
		PlatenInputCaps InputCaps `xml:"scan:PlatenInputCaps"`
	} `xml:"scan:Platen,omitempty"`

	Adf *struct {
		AdfSimplexInputCaps InputCaps  `xml:"scan:AdfSimplexInputCaps"`
		AdfDuplexInputCaps  *InputCaps `xml:"scan:AdfDuplexInputCaps,omitempty"`
		FeederCapacity      int        `xml:"scan:FeederCapacity,omitempty"`
	} `xml:"scan:Adf,omitempty"`
}

// NewPlatenCapabilities builds a Capabilities document advertising a
// flatbed-only scanner with a single setting profile.
func NewPlatenCapabilities(makeModel, uuid string, maxWidth, maxHeight int, colorModes, formats []string) *Capabilities {
	c := &Capabilities{
		XmlnsNS:      "http://www.pwg.org/schemas/2010/12/sm",
		XmlnsS:       "http://schemas.hp.com/imaging/escl/2011/05/03",
		Version:      "2.63",
		MakeAndModel: makeModel,
		UUID:         uuid,
	}
	c.Platen = &struct {
		PlatenInputCaps InputCaps `xml:"scan:PlatenInputCaps"`
	}{
		PlatenInputCaps: InputCaps{
			MinWidth: 1, MaxWidth: maxWidth,
			MinHeight: 1, MaxHeight: maxHeight,
			SettingProfiles: settingProfiles{Profile: SettingProfile{
				ColorModes:      colorModes,
				DocumentFormats: formats,
			}},
		},
	}
	return c
}

// Encode writes the ScannerCapabilities XML document to w, prefixed
// with the standard XML declaration eSCL clients expect.
func (c *Capabilities) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(c)
}
