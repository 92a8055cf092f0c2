//go:build ebiten

package render

import (
	"image"
	"image/color"

	"sandpile/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter keeps an ebiten image of the lattice and re-uploads only the
// region that can have changed.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a lattice of size w*h.
func NewGridPainter(w, h int) *GridPainter {
	gp := &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h)}
	gp.img = ebiten.NewImage(w, h)
	return gp
}

// Blit uploads the cells inside region into the painter image and draws the
// whole lattice scaled onto dst.
func (gp *GridPainter) Blit(dst *ebiten.Image, l *core.Lattice, palette []color.RGBA, region image.Rectangle, scale int) {
	if l.W != gp.w || l.H != gp.h {
		return
	}
	region = region.Intersect(image.Rect(0, 0, gp.w, gp.h))
	if !region.Empty() {
		n := 4 * region.Dx() * region.Dy()
		fillRegionRGBA(gp.buf[:n], l.Cells(), l.W, region, palette)
		gp.img.SubImage(region).(*ebiten.Image).WritePixels(gp.buf[:n])
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
