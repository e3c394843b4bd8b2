package escl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleScanSettings = `<?xml version="1.0" encoding="UTF-8"?>
<scan:ScanSettings xmlns:pwg="http://www.pwg.org/schemas/2010/12/sm" xmlns:scan="http://schemas.hp.com/imaging/escl/2011/05/03">
  <pwg:Version>2.63</pwg:Version>
  <scan:Intent>Document</scan:Intent>
  <pwg:ScanRegions>
    <pwg:ScanRegion>
      <pwg:Height>3300</pwg:Height>
      <pwg:Width>2550</pwg:Width>
      <pwg:XOffset>0</pwg:XOffset>
      <pwg:YOffset>0</pwg:YOffset>
      <escl:ContentRegionUnits>escl:ThreeHundredthsOfInches</escl:ContentRegionUnits>
    </pwg:ScanRegion>
  </pwg:ScanRegions>
  <pwg:InputSource>Platen</pwg:InputSource>
  <scan:ColorMode>RGB24</scan:ColorMode>
  <scan:BlankPageDetection>true</scan:BlankPageDetection>
</scan:ScanSettings>`

func TestParseScanSettings(t *testing.T) {
	s, err := ParseScanSettings(strings.NewReader(sampleScanSettings))
	require.NoError(t, err)

	require.Equal(t, "2.63", s.Version)
	require.Equal(t, "Document", s.Intent)
	require.Equal(t, "Platen", s.InputSource)
	require.Equal(t, "RGB24", s.ColorMode)
	require.True(t, s.HasBlankPageDetection())
	require.True(t, s.BlankPageDetection)

	require.Len(t, s.ScanRegions, 1)
	r := s.ScanRegions[0]
	require.Equal(t, 3300, r.Height)
	require.Equal(t, 2550, r.Width)
	require.Equal(t, 0, r.XOffset)
	require.Equal(t, 0, r.YOffset)
	require.Equal(t, UnitsThreeHundredthsOfInches, r.ContentRegionUnits)
}

func TestParseScanSettings_MultipleRegions(t *testing.T) {
	doc := `<scan:ScanSettings xmlns:pwg="p" xmlns:scan="s">
  <pwg:Version>2.63</pwg:Version>
  <pwg:ScanRegions>
    <pwg:ScanRegion><pwg:Height>100</pwg:Height><pwg:Width>50</pwg:Width></pwg:ScanRegion>
    <pwg:ScanRegion><pwg:Height>200</pwg:Height><pwg:Width>80</pwg:Width></pwg:ScanRegion>
  </pwg:ScanRegions>
</scan:ScanSettings>`
	s, err := ParseScanSettings(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, s.ScanRegions, 2)
	require.Equal(t, 100, s.ScanRegions[0].Height)
	require.Equal(t, 200, s.ScanRegions[1].Height)
}

func TestParseScanSettings_MissingVersion(t *testing.T) {
	doc := `<scan:ScanSettings xmlns:scan="s"><scan:Intent>Document</scan:Intent></scan:ScanSettings>`
	_, err := ParseScanSettings(strings.NewReader(doc))
	require.ErrorIs(t, err, ErrMissingVersion)
}

func TestParseScanSettings_NoBlankPageDetectionMeansAbsent(t *testing.T) {
	doc := `<scan:ScanSettings xmlns:pwg="p"><pwg:Version>2.63</pwg:Version></scan:ScanSettings>`
	s, err := ParseScanSettings(strings.NewReader(doc))
	require.NoError(t, err)
	require.False(t, s.HasBlankPageDetection())
}
