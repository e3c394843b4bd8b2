package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printcore/ippd/internal/model"
)

func TestNewDriver_NullSchemes(t *testing.T) {
	for _, uri := range []string{"", "null:"} {
		drv, err := newDriver(context.Background(), nil, uri, nil)
		require.NoError(t, err)
		_, ok := drv.(*model.NullDriver)
		require.True(t, ok, "expected a *model.NullDriver for device-uri %q", uri)
	}
}

func TestNewDriver_NullSchemeHonorsMedia(t *testing.T) {
	drv, err := newDriver(context.Background(), nil, "null:", []string{"na_letter_8.5x11in"})
	require.NoError(t, err)
	require.Equal(t, []string{"na_letter_8.5x11in"}, drv.MediaSupported())
}

func TestNewDriver_UnrecognizedScheme(t *testing.T) {
	_, err := newDriver(context.Background(), nil, "usb://foo", nil)
	require.Error(t, err)
}
