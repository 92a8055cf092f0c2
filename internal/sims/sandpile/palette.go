package sandpile

import (
	"image/color"

	"sandpile/internal/core"
	pcore "sandpile/pkg/core"
)

// Palette assigns a colour to every cell bucket (see core.Cell.Bucket).
type Palette [core.BucketCount]color.NRGBA

// DefaultPalette returns the standard colours. Three-grain cells are
// transparent.
func DefaultPalette() Palette {
	return Palette{
		core.BucketUntouched: {R: 0, G: 0, B: 0, A: 0},
		core.BucketZero:      {R: 0, G: 120, B: 242, A: 255},
		core.BucketOne:       {R: 0, G: 227, B: 48, A: 255},
		core.BucketTwo:       {R: 252, G: 250, B: 0, A: 255},
		core.BucketThree:     {R: 0, G: 0, B: 0, A: 0},
		core.BucketCritical:  {R: 230, G: 41, B: 56, A: 255},
	}
}

// RandomPalette draws opaque colours for the 0..3 grain buckets from seed.
// Untouched cells stay transparent and the critical bucket is pure red.
func RandomPalette(seed uint64) Palette {
	rng := pcore.NewRNG(seed)
	var p Palette
	for b := core.BucketZero; b <= core.BucketThree; b++ {
		p[b] = color.NRGBA{R: rng.Uint8(), G: rng.Uint8(), B: rng.Uint8(), A: 255}
	}
	p[core.BucketCritical] = color.NRGBA{R: 255, A: 255}
	return p
}

// ColorOf returns the colour used to draw c.
func (p Palette) ColorOf(c core.Cell) color.NRGBA { return p[c.Bucket()] }

// RGBA converts the palette into premultiplied colours indexed by bucket.
func (p Palette) RGBA() []color.RGBA {
	out := make([]color.RGBA, len(p))
	for i, c := range p {
		r, g, b, a := c.RGBA()
		out[i] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}
	return out
}
