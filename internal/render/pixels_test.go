package render

import (
	"image"
	"image/color"
	"testing"

	"sandpile/internal/core"
)

var testPalette = []color.RGBA{
	{},
	{R: 1, A: 255},
	{R: 2, A: 255},
	{R: 3, A: 255},
	{R: 4, A: 255},
	{R: 255, A: 255},
}

func TestFillPaletteRGBAUsesBuckets(t *testing.T) {
	cells := []core.Cell{
		{},
		{Touched: true},
		{Grains: 2, Touched: true},
		{Grains: 7, Touched: true},
	}
	buf := make([]byte, 4*len(cells))
	fillPaletteRGBA(buf, cells, testPalette)
	want := []byte{0, 0, 0, 0, 1, 0, 0, 255, 3, 0, 0, 255, 255, 0, 0, 255}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d (buf %v)", i, buf[i], want[i], buf)
		}
	}
}

func TestFillPaletteRGBAEmptyPaletteClears(t *testing.T) {
	buf := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	fillPaletteRGBA(buf, make([]core.Cell, 2), nil)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestFillPaletteRGBAClampsShortPalette(t *testing.T) {
	buf := make([]byte, 4)
	fillPaletteRGBA(buf, []core.Cell{{Grains: 3, Touched: true}}, testPalette[:2])
	if buf[0] != 1 || buf[3] != 255 {
		t.Fatalf("pixel = %v, want last palette entry", buf)
	}
}

func TestImageRendersRegion(t *testing.T) {
	l, err := core.NewLattice(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	l.Cells()[l.Index(2, 1)] = core.Cell{Grains: 1, Touched: true}

	img := Image(l, image.Rect(1, 1, 3, 3), testPalette)
	if img.Bounds() != image.Rect(1, 1, 3, 3) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(2, 1); got != testPalette[core.BucketOne] {
		t.Fatalf("pixel (2,1) = %v, want %v", got, testPalette[core.BucketOne])
	}
	if got := img.RGBAAt(1, 2); got != testPalette[core.BucketUntouched] {
		t.Fatalf("pixel (1,2) = %v, want transparent", got)
	}

	clipped := Image(l, image.Rect(-5, -5, 100, 100), testPalette)
	if clipped.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("clipped bounds = %v", clipped.Bounds())
	}
}
