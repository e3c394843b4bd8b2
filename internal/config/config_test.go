package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsFreshState(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, st.Version)
	require.Empty(t, st.Printers)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	st := New()
	st.SystemName = "ippd"
	st.Auth = AuthPolicy{Mode: "local-password", PasswordHash: "$2a$...", SessionKey: "abc123"}
	st.SetPrinter(PrinterConfig{Name: "lp0", MakeModel: "Generic/Label", DeviceURI: "usb://test", Driver: "thermal"})

	require.NoError(t, Save(path, st))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ippd", loaded.SystemName)
	require.Equal(t, "local-password", loaded.Auth.Mode)
	require.Len(t, loaded.Printers, 1)
	require.Equal(t, "lp0", loaded.Printers[0].Name)
}

func TestSave_AtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stale: true\n"), 0o644))

	st := New()
	st.SystemName = "fresh"
	require.NoError(t, Save(path, st))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "fresh", loaded.SystemName)
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 999\nsystem_name: x\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_IgnoresUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nsystem_name: x\nsome_future_field: banana\n"), 0o644))

	st, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "x", st.SystemName)
}

func TestState_SetPrinterReplacesExisting(t *testing.T) {
	st := New()
	st.SetPrinter(PrinterConfig{Name: "lp0", DeviceURI: "usb://a"})
	st.SetPrinter(PrinterConfig{Name: "lp0", DeviceURI: "usb://b"})

	require.Len(t, st.Printers, 1)
	pc, ok := st.Printer("lp0")
	require.True(t, ok)
	require.Equal(t, "usb://b", pc.DeviceURI)
}

func TestState_RemovePrinter(t *testing.T) {
	st := New()
	st.SetPrinter(PrinterConfig{Name: "lp0"})
	st.SetPrinter(PrinterConfig{Name: "lp1"})
	st.RemovePrinter("lp0")

	require.Len(t, st.Printers, 1)
	_, ok := st.Printer("lp0")
	require.False(t, ok)
}
