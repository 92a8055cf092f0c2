//go:build ebiten

package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Overlay draws optional debugging visuals on top of the lattice.
type Overlay struct {
	scale       int
	showExtent  bool
	showSources bool
}

// NewOverlay constructs a new overlay instance. Source markers start visible.
func NewOverlay(scale int) *Overlay {
	return &Overlay{scale: max(scale, 1), showSources: true}
}

// Update toggles layers: 1 for the extent box, 2 for source markers.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showExtent = !o.showExtent
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showSources = !o.showSources
	}
}

// Draw renders the enabled layers. extent and sources are in lattice cells.
func (o *Overlay) Draw(screen *ebiten.Image, extent image.Rectangle, sources []image.Point) {
	s := float32(o.scale)
	if o.showExtent && !extent.Empty() {
		vector.StrokeRect(screen,
			float32(extent.Min.X)*s, float32(extent.Min.Y)*s,
			float32(extent.Dx())*s, float32(extent.Dy())*s,
			1, color.RGBA{R: 240, G: 240, B: 240, A: 160}, false)
	}
	if o.showSources {
		marker := max(s, 3)
		for _, p := range sources {
			cx := (float32(p.X) + 0.5) * s
			cy := (float32(p.Y) + 0.5) * s
			vector.StrokeRect(screen, cx-marker, cy-marker, 2*marker, 2*marker,
				1, color.RGBA{R: 255, G: 255, B: 255, A: 220}, false)
		}
	}
}
