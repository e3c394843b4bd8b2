package thermal

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderText(t *testing.T) {
	img, err := renderText("hello\nworld\n")
	require.NoError(t, err)
	require.Equal(t, Width, img.Bounds().Dx())
	require.Greater(t, img.Bounds().Dy(), 0)
}

func TestRenderDocument_Text(t *testing.T) {
	img, err := renderDocument("text/plain", []byte("receipt line one\nreceipt line two\n"))
	require.NoError(t, err)
	require.Equal(t, Width, img.Bounds().Dx())
}

func TestRenderDocument_Image(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 800, 600))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := renderDocument("image/png", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, Width, img.Bounds().Dx())
}

func TestRenderDocument_UnsupportedFormat(t *testing.T) {
	_, err := renderDocument("application/octet-stream", []byte("x"))
	require.Error(t, err)
}

func TestDriver_StaticMetadata(t *testing.T) {
	d := &Driver{media: []string{"na_index-4x6_4x6in", "om_small-label_29x90mm"}}
	require.Equal(t, DPI, d.DPI())
	require.Equal(t, Width, d.Width())
	require.Equal(t, "na_index-4x6_4x6in", d.MediaDefault())
	require.Len(t, d.MediaSupported(), 2)
}

func TestDriver_MediaDefaultEmpty(t *testing.T) {
	d := &Driver{}
	require.Equal(t, "", d.MediaDefault())
}
