package ipp

import (
	"bytes"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/require"
)

func TestAdder_MutatesCallersGroup(t *testing.T) {
	m := goipp.NewResponse(goipp.DefaultVersion, goipp.StatusOk, 1)
	a := Adder(&m.Printer)
	a("printer-name", goipp.TagName, goipp.String("lp0"))
	a("printer-state", goipp.TagEnum, goipp.Integer(3))

	require.Len(t, m.Printer, 2)
	require.Equal(t, "printer-name", m.Printer[0].Name)
}

func TestWithGroups_RoundTripsThroughEncodeDecode(t *testing.T) {
	m := BaseResponse(goipp.StatusOk, 7)
	var groups []goipp.Attributes
	for _, name := range []string{"lp0", "lp1", "lp2"} {
		var attrs goipp.Attributes
		a := Adder(&attrs)
		a("printer-name", goipp.TagName, goipp.String(name))
		groups = append(groups, attrs)
	}
	WithGroups(m, goipp.TagPrinterGroup, groups)

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf))

	var decoded goipp.Message
	require.NoError(t, decoded.Decode(&buf))

	got := GroupsOf(&decoded, goipp.TagPrinterGroup)
	require.Len(t, got, 3)
	for i, name := range []string{"lp0", "lp1", "lp2"} {
		v, ok := AsString(FindAttr(got[i], "printer-name"))
		require.True(t, ok)
		require.Equal(t, name, v)
	}
}

func TestGroupsOf_FallsBackToNamedFieldWithoutGroups(t *testing.T) {
	m := BaseResponse(goipp.StatusOk, 1)
	a := Adder(&m.Job)
	a("job-id", goipp.TagInteger, goipp.Integer(42))

	got := GroupsOf(m, goipp.TagJobGroup)
	require.Len(t, got, 1)
	id, err := ExtractValue[goipp.Integer](got[0], "job-id")
	require.NoError(t, err)
	require.Equal(t, goipp.Integer(42), id)
}
