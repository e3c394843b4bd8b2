package ipp

import (
	"context"
	"testing"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/model"
)

func TestHandleGetPrinters_OneGroupPerPrinter(t *testing.T) {
	sys := model.NewSystem()
	for _, name := range []string{"lp0", "lp1", "lp2"} {
		_, err := sys.CreatePrinter(name, "Generic/Label", "", "", model.NewNullDriver(), "http://localhost")
		require.NoError(t, err)
	}
	d := NewDispatcher("http://localhost", sys)

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetPrinters, 1)
	resp, err := d.handleGetPrinters(context.Background(), req, nil, Route{System: sys})
	require.NoError(t, err)

	groups := GroupsOf(resp, goipp.TagPrinterGroup)
	require.Len(t, groups, 3)
	names := make(map[string]bool)
	for _, g := range groups {
		name, ok := AsString(FindAttr(g, "printer-name"))
		require.True(t, ok)
		names[name] = true
	}
	require.True(t, names["lp0"])
	require.True(t, names["lp1"])
	require.True(t, names["lp2"])
}

func TestHandleGetJobs_OneGroupPerJob(t *testing.T) {
	sys := model.NewSystem()
	p, err := sys.CreatePrinter("lp0", "Generic/Label", "", "", model.NewNullDriver(), "http://localhost")
	require.NoError(t, err)

	for _, name := range []string{"a.pdf", "b.pdf"} {
		j, err := p.CreateJob(name, "alice")
		require.NoError(t, err)
		_, err = j.AppendDocument(string(ApplicationPDF), []byte("%PDF-1.4"), true)
		require.NoError(t, err)
	}

	d := NewDispatcher("http://localhost", sys)
	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetJobs, 1)
	resp, err := d.handleGetJobs(context.Background(), req, nil, Route{System: sys, Printer: p})
	require.NoError(t, err)

	groups := GroupsOf(resp, goipp.TagJobGroup)
	require.Len(t, groups, 2)
	names := make(map[string]bool)
	for _, g := range groups {
		name, ok := AsString(FindAttr(g, "job-name"))
		require.True(t, ok)
		names[name] = true
	}
	require.True(t, names["a.pdf"])
	require.True(t, names["b.pdf"])
}
