package core

import (
	"errors"
	"math"
)

var (
	// ErrInvalidDimensions is returned for non-positive lattice sides.
	ErrInvalidDimensions = errors.New("lattice dimensions must be positive")
	// ErrLatticeTooLarge is returned when width*height exceeds MaxCells.
	ErrLatticeTooLarge = errors.New("lattice too large")
)

// MaxCells caps the number of cells a lattice may hold (8192x8192).
const MaxCells = 1 << 26

// Critical is the grain count at which a cell topples.
const Critical = 4

// Palette slots returned by Cell.Bucket.
const (
	BucketUntouched = iota
	BucketZero
	BucketOne
	BucketTwo
	BucketThree
	BucketCritical
	BucketCount
)

// Cell is one lattice site.
type Cell struct {
	Grains  uint8
	Touched bool
	// Topples counts how often the cell fired, saturating at math.MaxUint16.
	Topples uint16
}

// Bucket maps the cell to its palette slot. A cell that never held a grain
// is distinct from one that toppled back down to zero.
func (c Cell) Bucket() int {
	switch {
	case !c.Touched:
		return BucketUntouched
	case c.Grains >= Critical:
		return BucketCritical
	default:
		return BucketZero + int(c.Grains)
	}
}

// Lattice stores a fixed-size 2D grid of cells in row-major order.
type Lattice struct {
	W, H  int
	cells []Cell
}

// NewLattice allocates a lattice with every cell untouched.
func NewLattice(w, h int) (*Lattice, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidDimensions
	}
	if _, ok := CellCount(w, h); !ok {
		return nil, ErrLatticeTooLarge
	}
	return &Lattice{W: w, H: h, cells: make([]Cell, w*h)}, nil
}

// CellCount multiplies the sides, reporting false on overflow or when the
// product exceeds MaxCells.
func CellCount(w, h int) (int, bool) {
	if w <= 0 || h <= 0 {
		return 0, false
	}
	if w > math.MaxInt/h || w*h > MaxCells {
		return 0, false
	}
	return w * h, true
}

// Cells exposes the backing slice so renderers can read cells directly.
func (l *Lattice) Cells() []Cell { return l.cells }

// Len returns the number of cells.
func (l *Lattice) Len() int { return len(l.cells) }

// At returns a copy of the cell at idx.
func (l *Lattice) At(idx int) Cell { return l.cells[idx] }

// Index returns the linear slice index for coordinates (x, y). No bounds
// checking is done.
func (l *Lattice) Index(x, y int) int { return y*l.W + x }

// XY converts a linear index back into coordinates.
func (l *Lattice) XY(idx int) (int, int) { return idx % l.W, idx / l.W }

// Contains reports whether (x, y) lies on the lattice.
func (l *Lattice) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.W && y < l.H
}

// ValidIndex reports whether idx addresses a cell.
func (l *Lattice) ValidIndex(idx int) bool { return idx >= 0 && idx < len(l.cells) }

// CenterIndex returns the cell used as the geometric center. For an even
// height it is the first cell of row H/2 offset by the middle column; for an
// odd height it is the middle of the flat array.
func (l *Lattice) CenterIndex() int {
	size := l.W * l.H
	if l.H%2 == 0 {
		if l.W%2 == 0 {
			return size/2 + l.W/2
		}
		return size/2 + (l.W-1)/2
	}
	return (size - 1) / 2
}

// CenterXY returns the coordinates of CenterIndex.
func (l *Lattice) CenterXY() (int, int) { return l.XY(l.CenterIndex()) }

// Clear resets every cell to the untouched state.
func (l *Lattice) Clear() {
	for i := range l.cells {
		l.cells[i] = Cell{}
	}
}
