package render

import (
	"image"
	"image/color"

	"sandpile/internal/core"
)

// fillPaletteRGBA converts cells into RGBA pixels using their palette bucket.
// When the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []core.Cell, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}
	last := len(palette) - 1
	for i, c := range cells {
		writePixel(buf[i*4:], palette[min(c.Bucket(), last)])
	}
}

// fillRegionRGBA converts the cells of a lattice of width w that fall inside r
// into a tightly packed r.Dx()*r.Dy() RGBA buffer.
func fillRegionRGBA(buf []byte, cells []core.Cell, w int, r image.Rectangle, palette []color.RGBA) {
	rw := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := cells[y*w+r.Min.X : y*w+r.Max.X]
		off := (y - r.Min.Y) * rw * 4
		fillPaletteRGBA(buf[off:off+rw*4], row, palette)
	}
}

// Image renders the region r of the lattice as an RGBA image whose origin is
// r.Min.
func Image(l *core.Lattice, r image.Rectangle, palette []color.RGBA) *image.RGBA {
	r = r.Intersect(image.Rect(0, 0, l.W, l.H))
	img := image.NewRGBA(r)
	if r.Empty() {
		return img
	}
	fillRegionRGBA(img.Pix, l.Cells(), l.W, r, palette)
	return img
}

func writePixel(px []byte, col color.RGBA) {
	px[0] = col.R
	px[1] = col.G
	px[2] = col.B
	px[3] = col.A
}
