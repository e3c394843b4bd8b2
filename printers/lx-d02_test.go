package printers

import (
	"testing"

	"golang.org/x/image/font/basicfont"
)

func TestRenderTTF(t *testing.T) {
	width := LXD02Rasteriser.Width

	text := "Hello, LXD02!\nThis is a test\nof the TrueType\nfont rendering."
	img, err := renderTTF(text, basicfont.Face7x13, width)
	if err != nil {
		t.Fatalf("renderTTF() error = %v", err)
	}
	if img == nil {
		t.Fatal("renderTTF() returned a nil image")
	}
	if got := img.Bounds().Dx(); got != width {
		t.Errorf("rendered image width = %d, want %d", got, width)
	}
}
