package sandpile

import "image"

// Extent is the region of the lattice worth redrawing or exporting.
type Extent struct {
	X, Y int
	W, H int
}

// Rect returns the extent as an image rectangle.
func (e Extent) Rect() image.Rectangle {
	return image.Rect(e.X, e.Y, e.X+e.W, e.Y+e.H)
}

// FindExtent returns the bounding box of every touched cell padded by the
// configured margin. The box starts collapsed on the center cell so an empty
// lattice still yields a small region around it. The result never leaves the
// lattice.
//
// The scan runs once per grain count; later calls return the cached box.
// Writes made directly through Lattice().Cells() are not seen until the next
// grain lands.
func (m *Model) FindExtent() Extent {
	if m.extentAt == m.totalGrains {
		return m.extent
	}
	m.extent = m.scanExtent()
	m.extentAt = m.totalGrains
	return m.extent
}

func (m *Model) scanExtent() Extent {
	l := m.lattice
	minX, minY := l.CenterXY()
	maxX, maxY := minX, minY
	for i, c := range l.Cells() {
		if !c.Touched {
			continue
		}
		x, y := l.XY(i)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	margin := m.cfg.Margin
	minX -= min(margin, minX)
	minY -= min(margin, minY)
	maxX += min(margin, l.W-1-maxX)
	maxY += min(margin, l.H-1-maxY)

	return Extent{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}
