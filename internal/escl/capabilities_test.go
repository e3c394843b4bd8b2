package escl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapabilities_EncodeRoundTrip(t *testing.T) {
	caps := NewPlatenCapabilities("ippd Virtual Scanner", "urn:uuid:test", 2550, 3508,
		[]string{"RGB24", "Grayscale8"}, []string{"image/jpeg", "application/pdf"})

	var buf bytes.Buffer
	require.NoError(t, caps.Encode(&buf))

	out := buf.String()
	require.Contains(t, out, "ippd Virtual Scanner")
	require.Contains(t, out, "RGB24")
	require.Contains(t, out, "image/jpeg")
	require.Contains(t, out, "<scan:ScannerCapabilities")
}
