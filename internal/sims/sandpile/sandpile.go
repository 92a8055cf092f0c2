package sandpile

import (
	"errors"
	"fmt"
	"math"

	"sandpile/internal/core"
)

// Critical is the grain count at which a cell topples.
const Critical = core.Critical

// ErrSourceOutOfRange is returned for source positions outside the lattice.
var ErrSourceOutOfRange = errors.New("source outside lattice")

// Neighbour visiting order during a topple.
const (
	dirUp = iota
	dirDown
	dirLeft
	dirRight
	dirDone
)

// frame is a cell that fired and still has neighbours left to feed.
type frame struct {
	idx int
	dir uint8
}

// Model is the sandpile simulation state: the lattice, its sources and the
// grain bookkeeping.
type Model struct {
	cfg Config

	lattice *core.Lattice
	sources Sources

	totalGrains int
	lostGrains  int
	avalanche   int
	interval    int

	palette Palette

	// extent caches FindExtent for the grain count in extentAt.
	extent   Extent
	extentAt int

	stack []frame
}

// New returns a sandpile with the provided dimensions using defaults.
func New(w, h int) (*Model, error) {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns an empty sandpile configured from the provided options.
func NewWithConfig(cfg Config) (*Model, error) {
	lattice, err := core.NewLattice(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("sandpile %dx%d: %w", cfg.Width, cfg.Height, err)
	}
	cfg.Interval = clampInterval(cfg.Interval)
	cfg.Margin = min(max(cfg.Margin, 0), max(cfg.Width, cfg.Height))
	return &Model{
		cfg:      cfg,
		lattice:  lattice,
		interval: cfg.Interval,
		palette:  DefaultPalette(),
		extentAt: -1,
	}, nil
}

// Name returns the simulation identifier.
func (m *Model) Name() string { return "sandpile" }

// Size reports the grid dimensions.
func (m *Model) Size() core.Size { return core.Size{W: m.lattice.W, H: m.lattice.H} }

// Lattice exposes the cell grid for read access.
func (m *Model) Lattice() *core.Lattice { return m.lattice }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Sources exposes the drop-cell scheduler.
func (m *Model) Sources() *Sources { return &m.sources }

// TotalGrains is the number of grains injected so far.
func (m *Model) TotalGrains() int { return m.totalGrains }

// LostGrains is the number of grains that fell off the lattice edge.
func (m *Model) LostGrains() int { return m.lostGrains }

// Avalanche is the number of topples caused by the most recent grain.
func (m *Model) Avalanche() int { return m.avalanche }

// Interval is the number of grains injected per tick.
func (m *Model) Interval() int { return m.interval }

// SetInterval changes the grains per tick, clamped to [1, MaxInterval].
func (m *Model) SetInterval(n int) { m.interval = clampInterval(n) }

// ScaleInterval multiplies (up) or divides the interval by four.
func (m *Model) ScaleInterval(up bool) {
	if up {
		if m.interval < MaxInterval {
			m.SetInterval(m.interval * 4)
		}
		return
	}
	if m.interval > 1 {
		m.SetInterval(m.interval / 4)
	}
}

// Palette returns the current colours.
func (m *Model) Palette() Palette { return m.palette }

// SetPalette replaces the colours.
func (m *Model) SetPalette(p Palette) { m.palette = p }

// RandomizePalette draws a new palette seeded by the grain count so the same
// moment of a run always yields the same colours.
func (m *Model) RandomizePalette() { m.palette = RandomPalette(uint64(m.totalGrains)) }

// LimitReached reports whether the configured grain limit was hit.
func (m *Model) LimitReached() bool {
	return m.cfg.GrainLimit > 0 && m.totalGrains >= m.cfg.GrainLimit
}

// GrainsOnLattice sums the grains currently held by all cells.
func (m *Model) GrainsOnLattice() int {
	sum := 0
	for _, c := range m.lattice.Cells() {
		sum += int(c.Grains)
	}
	return sum
}

// RegisterSource adds a drop cell at idx.
func (m *Model) RegisterSource(idx int) error {
	if !m.lattice.ValidIndex(idx) {
		return fmt.Errorf("%w: index %d", ErrSourceOutOfRange, idx)
	}
	return m.sources.Register(idx)
}

// RegisterSourceXY adds a drop cell at (x, y).
func (m *Model) RegisterSourceXY(x, y int) error {
	if !m.lattice.Contains(x, y) {
		return fmt.Errorf("%w: (%d, %d)", ErrSourceOutOfRange, x, y)
	}
	return m.sources.Register(m.lattice.Index(x, y))
}

// Reset discards every grain, source and counter. The seed is unused; the
// sandpile is deterministic.
func (m *Model) Reset(int64) {
	m.lattice.Clear()
	m.sources.Reset()
	m.totalGrains = 0
	m.lostGrains = 0
	m.avalanche = 0
	m.interval = m.cfg.Interval
	m.palette = DefaultPalette()
	m.extentAt = -1
}

// Step advances the simulation by one tick.
func (m *Model) Step() { m.Tick() }

// Tick injects Interval grains round-robin across the active sources and
// returns how many were added.
func (m *Model) Tick() int { return m.TickFunc(nil) }

// TickFunc behaves like Tick and reports every grain's avalanche size to fn.
// Injection stops early once the grain limit is reached.
func (m *Model) TickFunc(fn func(avalanche int)) int {
	if m.sources.Len() == 0 {
		return 0
	}
	added := 0
	for i := 0; i < m.interval; i++ {
		if m.LimitReached() {
			break
		}
		m.addGrain(m.sources.Next())
		added++
		if fn != nil {
			fn(m.avalanche)
		}
	}
	return added
}

// AddGrain drops one grain on src and resolves the resulting avalanche. When
// it returns every cell holds fewer than Critical grains.
func (m *Model) AddGrain(src int) error {
	if !m.lattice.ValidIndex(src) {
		return fmt.Errorf("%w: index %d", ErrSourceOutOfRange, src)
	}
	m.addGrain(src)
	return nil
}

func (m *Model) addGrain(src int) {
	m.totalGrains++
	m.avalanche = 0
	c := &m.lattice.Cells()[src]
	c.Grains++
	c.Touched = true
	if c.Grains >= Critical {
		m.cascade(src)
	}
}

// cascade topples start and everything it destabilises. The frame stack
// replays the depth-first up, down, left, right order a recursive
// implementation would follow, without growing the goroutine stack.
func (m *Model) cascade(start int) {
	cells := m.lattice.Cells()
	w := m.lattice.W
	size := len(cells)

	m.fire(start)
	stack := append(m.stack[:0], frame{idx: start})
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.dir == dirDone {
			stack = stack[:len(stack)-1]
			continue
		}
		idx, dir := top.idx, top.dir
		top.dir++

		n := -1
		switch dir {
		case dirUp:
			if idx >= w {
				n = idx - w
			}
		case dirDown:
			if idx+w < size {
				n = idx + w
			}
		case dirLeft:
			if idx%w != 0 {
				n = idx - 1
			}
		case dirRight:
			if (idx+1)%w != 0 {
				n = idx + 1
			}
		}
		if n < 0 {
			m.lostGrains++
			continue
		}

		c := &cells[n]
		c.Grains++
		c.Touched = true
		if c.Grains == Critical {
			m.fire(n)
			stack = append(stack, frame{idx: n})
		}
	}
	m.stack = stack[:0]
}

func (m *Model) fire(idx int) {
	m.avalanche++
	c := &m.lattice.Cells()[idx]
	c.Grains -= Critical
	if c.Topples < math.MaxUint16 {
		c.Topples++
	}
}

func init() {
	core.Register("sandpile", func(cfg map[string]string) (core.Sim, error) {
		m, err := NewWithConfig(FromMap(cfg))
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}
