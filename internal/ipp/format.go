package ipp

import "bytes"

// SniffLen is the number of leading bytes inspected to auto-detect a
// document's format when the client declared application/octet-stream.
const SniffLen = 8192

// magic associates a leading byte pattern with its MIME type.
var magic = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("%PDF"), "application/pdf"},
	{[]byte("%!"), "application/postscript"},
	{[]byte{0xff, 0xd8, 0xff}, "image/jpeg"},
	{[]byte("\x89PNG"), "image/png"},
	{[]byte("RaS2"), "image/pwg-raster"},
	{[]byte("UNIRAST"), "image/urf"},
}

// MIMEDetector is an optional external collaborator invoked when no
// magic-byte pattern matches.
type MIMEDetector func(sample []byte) (mime string, ok bool)

// DetectFormat inspects the leading bytes of data and returns the
// detected MIME type, or ("", false) if nothing matched and no
// detector was supplied (or it also failed).
func DetectFormat(data []byte, detector MIMEDetector) (string, bool) {
	sample := data
	if len(sample) > SniffLen {
		sample = sample[:SniffLen]
	}
	for _, m := range magic {
		if bytes.HasPrefix(sample, m.prefix) {
			return m.mime, true
		}
	}
	if detector != nil {
		return detector(sample)
	}
	return "", false
}
