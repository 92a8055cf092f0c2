package sandpile

import (
	"errors"
	"slices"
	"testing"

	"sandpile/internal/core"
)

func newModel(t *testing.T, w, h int) *Model {
	t.Helper()
	m, err := New(w, h)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", w, h, err)
	}
	return m
}

func assertStable(t *testing.T, m *Model) {
	t.Helper()
	for i, c := range m.Lattice().Cells() {
		if c.Grains >= Critical {
			t.Fatalf("cell %d left unstable with %d grains", i, c.Grains)
		}
	}
}

func assertConserved(t *testing.T, m *Model) {
	t.Helper()
	if got := m.GrainsOnLattice() + m.LostGrains(); got != m.TotalGrains() {
		t.Fatalf("mass not conserved: lattice+lost=%d total=%d", got, m.TotalGrains())
	}
}

func TestSingleToppleAtCenter(t *testing.T) {
	m := newModel(t, 5, 5)
	center := m.Lattice().CenterIndex()
	wantAvalanche := []int{0, 0, 0, 1}

	for i, want := range wantAvalanche {
		if err := m.AddGrain(center); err != nil {
			t.Fatalf("AddGrain: %v", err)
		}
		if got := m.Avalanche(); got != want {
			t.Fatalf("grain %d: avalanche=%d, want %d", i+1, got, want)
		}
	}

	l := m.Lattice()
	if c := l.At(center); c.Grains != 0 || !c.Touched {
		t.Fatalf("center cell = %+v, want 0 grains and touched", c)
	}
	if c := l.At(center); c.Topples != 1 {
		t.Fatalf("center topples = %d, want 1", c.Topples)
	}
	cx, cy := l.XY(center)
	for _, d := range [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
		c := l.At(l.Index(cx+d[0], cy+d[1]))
		if c.Grains != 1 || !c.Touched {
			t.Fatalf("neighbour %v = %+v, want 1 grain and touched", d, c)
		}
	}
	if m.LostGrains() != 0 {
		t.Fatalf("lost grains = %d, want 0", m.LostGrains())
	}
	if m.TotalGrains() != 4 {
		t.Fatalf("total grains = %d, want 4", m.TotalGrains())
	}
	assertConserved(t, m)
}

func TestCornerToppleLosesTwoGrains(t *testing.T) {
	m := newModel(t, 6, 6)
	for i := 0; i < 3; i++ {
		if err := m.AddGrain(0); err != nil {
			t.Fatalf("AddGrain: %v", err)
		}
	}
	before := m.LostGrains()
	if err := m.AddGrain(0); err != nil {
		t.Fatalf("AddGrain: %v", err)
	}
	if got := m.LostGrains() - before; got != 2 {
		t.Fatalf("corner topple lost %d grains, want 2", got)
	}
	if m.Avalanche() != 1 {
		t.Fatalf("avalanche = %d, want 1", m.Avalanche())
	}
	l := m.Lattice()
	if l.At(1).Grains != 1 || l.At(6).Grains != 1 {
		t.Fatalf("right/down neighbours = %d/%d grains, want 1/1", l.At(1).Grains, l.At(6).Grains)
	}
	assertConserved(t, m)
}

func TestUntouchedDistinctFromToppledZero(t *testing.T) {
	m := newModel(t, 5, 5)
	center := m.Lattice().CenterIndex()
	for i := 0; i < 4; i++ {
		m.AddGrain(center)
	}
	l := m.Lattice()
	toppled := l.At(center)
	untouched := l.At(0)
	if toppled.Grains != 0 || untouched.Grains != 0 {
		t.Fatal("both cells should hold zero grains")
	}
	if toppled.Bucket() == untouched.Bucket() {
		t.Fatal("toppled zero cell must be distinguishable from untouched cell")
	}
}

func TestAddGrainRejectsInvalidSource(t *testing.T) {
	m := newModel(t, 4, 4)
	if err := m.AddGrain(16); !errors.Is(err, ErrSourceOutOfRange) {
		t.Fatalf("expected ErrSourceOutOfRange, got %v", err)
	}
	if err := m.AddGrain(-1); !errors.Is(err, ErrSourceOutOfRange) {
		t.Fatalf("expected ErrSourceOutOfRange, got %v", err)
	}
	if m.TotalGrains() != 0 {
		t.Fatal("rejected grain must not be counted")
	}
}

func TestStableAndConservedUnderLoad(t *testing.T) {
	m := newModel(t, 41, 29)
	l := m.Lattice()
	sources := []int{l.CenterIndex(), l.Index(3, 3), l.Index(40, 28), l.Index(20, 0)}
	for _, s := range sources {
		if err := m.RegisterSource(s); err != nil {
			t.Fatalf("RegisterSource: %v", err)
		}
	}
	m.SetInterval(256)
	for tick := 0; tick < 40; tick++ {
		m.Tick()
		assertStable(t, m)
		assertConserved(t, m)
	}
	if m.TotalGrains() != 40*256 {
		t.Fatalf("total grains = %d, want %d", m.TotalGrains(), 40*256)
	}
	if m.LostGrains() == 0 {
		t.Fatal("edge sources should lose grains")
	}
}

func TestAbelianOrderIndependence(t *testing.T) {
	a := newModel(t, 15, 15)
	b := newModel(t, 15, 15)
	la := a.Lattice()
	p, q := la.Index(4, 7), la.Index(10, 6)

	for i := 0; i < 300; i++ {
		a.AddGrain(p)
	}
	for i := 0; i < 300; i++ {
		a.AddGrain(q)
	}
	for i := 0; i < 300; i++ {
		b.AddGrain(q)
		b.AddGrain(p)
	}

	ga := make([]uint8, la.Len())
	gb := make([]uint8, la.Len())
	for i := range ga {
		ga[i] = a.Lattice().At(i).Grains
		gb[i] = b.Lattice().At(i).Grains
	}
	if !slices.Equal(ga, gb) {
		t.Fatal("final stabilized state depends on injection order")
	}
	if a.LostGrains() != b.LostGrains() {
		t.Fatalf("lost grains differ: %d vs %d", a.LostGrains(), b.LostGrains())
	}
}

// recursivePile mirrors the engine with plain recursion so the explicit
// frame stack can be checked against it.
type recursivePile struct {
	w, h      int
	grains    []int
	lost      int
	avalanche int
}

func (r *recursivePile) add(idx int) {
	r.avalanche = 0
	r.grains[idx]++
	if r.grains[idx] >= Critical {
		r.topple(idx)
	}
}

func (r *recursivePile) topple(idx int) {
	r.avalanche++
	r.grains[idx] -= Critical
	size := r.w * r.h
	neighbours := []int{-1, -1, -1, -1}
	if idx >= r.w {
		neighbours[0] = idx - r.w
	}
	if idx+r.w < size {
		neighbours[1] = idx + r.w
	}
	if idx%r.w != 0 {
		neighbours[2] = idx - 1
	}
	if (idx+1)%r.w != 0 {
		neighbours[3] = idx + 1
	}
	for _, n := range neighbours {
		if n < 0 {
			r.lost++
			continue
		}
		r.grains[n]++
		if r.grains[n] == Critical {
			r.topple(n)
		}
	}
}

func TestCascadeMatchesRecursiveReference(t *testing.T) {
	m := newModel(t, 17, 13)
	ref := &recursivePile{w: 17, h: 13, grains: make([]int, 17*13)}
	l := m.Lattice()
	drops := []int{l.CenterIndex(), l.Index(2, 2), l.Index(16, 5)}

	for i := 0; i < 3000; i++ {
		src := drops[i%len(drops)]
		m.AddGrain(src)
		ref.add(src)
		if m.Avalanche() != ref.avalanche {
			t.Fatalf("grain %d: avalanche=%d, reference=%d", i, m.Avalanche(), ref.avalanche)
		}
	}
	for i, c := range l.Cells() {
		if int(c.Grains) != ref.grains[i] {
			t.Fatalf("cell %d: grains=%d, reference=%d", i, c.Grains, ref.grains[i])
		}
	}
	if m.LostGrains() != ref.lost {
		t.Fatalf("lost=%d, reference=%d", m.LostGrains(), ref.lost)
	}
}

func TestLargeAvalancheDoesNotRecurse(t *testing.T) {
	m := newModel(t, 101, 101)
	center := m.Lattice().CenterIndex()
	largest := 0
	for i := 0; i < 20_000; i++ {
		m.AddGrain(center)
		largest = max(largest, m.Avalanche())
	}
	assertStable(t, m)
	assertConserved(t, m)
	if largest < 1000 {
		t.Fatalf("expected a large avalanche, biggest was %d", largest)
	}
}

func TestToppleCounterSaturates(t *testing.T) {
	m := newModel(t, 3, 3)
	center := m.Lattice().CenterIndex()
	m.Lattice().Cells()[center].Topples = 65_535
	for i := 0; i < 8; i++ {
		m.AddGrain(center)
	}
	if got := m.Lattice().At(center).Topples; got != 65_535 {
		t.Fatalf("topples = %d, want saturation at 65535", got)
	}
}

func TestTickRoundRobin(t *testing.T) {
	m := newModel(t, 20, 20)
	l := m.Lattice()
	srcs := []int{l.Index(2, 2), l.Index(10, 10), l.Index(17, 4)}
	for _, s := range srcs {
		if err := m.RegisterSource(s); err != nil {
			t.Fatalf("RegisterSource: %v", err)
		}
	}
	m.SetInterval(6)

	if added := m.Tick(); added != 6 {
		t.Fatalf("Tick added %d grains, want 6", added)
	}
	for _, s := range srcs {
		if got := l.At(s).Grains; got != 2 {
			t.Fatalf("source %d holds %d grains, want 2", s, got)
		}
	}
	if m.Sources().Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0 after a full round", m.Sources().Cursor())
	}
}

func TestTickFuncReportsEveryGrain(t *testing.T) {
	m := newModel(t, 5, 5)
	if err := m.RegisterSource(m.Lattice().CenterIndex()); err != nil {
		t.Fatal(err)
	}
	m.SetInterval(4)
	var seen []int
	m.TickFunc(func(a int) { seen = append(seen, a) })
	if !slices.Equal(seen, []int{0, 0, 0, 1}) {
		t.Fatalf("avalanches = %v, want [0 0 0 1]", seen)
	}
}

func TestTickWithoutSourcesIsNoop(t *testing.T) {
	m := newModel(t, 5, 5)
	if added := m.Tick(); added != 0 {
		t.Fatalf("Tick added %d grains without sources", added)
	}
}

func TestTickStopsAtGrainLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 9, 9
	cfg.Interval = 16
	cfg.GrainLimit = 40
	m, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m.RegisterSource(m.Lattice().CenterIndex())
	for i := 0; i < 5; i++ {
		m.Tick()
	}
	if m.TotalGrains() != 40 {
		t.Fatalf("total grains = %d, want 40", m.TotalGrains())
	}
	if !m.LimitReached() {
		t.Fatal("expected LimitReached")
	}
}

func TestScaleInterval(t *testing.T) {
	m := newModel(t, 4, 4)
	m.SetInterval(16_384)
	m.ScaleInterval(true)
	if m.Interval() != MaxInterval {
		t.Fatalf("interval = %d, want %d", m.Interval(), MaxInterval)
	}
	m.ScaleInterval(true)
	if m.Interval() != MaxInterval {
		t.Fatalf("interval grew past max: %d", m.Interval())
	}
	m.SetInterval(4)
	m.ScaleInterval(false)
	m.ScaleInterval(false)
	if m.Interval() != 1 {
		t.Fatalf("interval = %d, want 1", m.Interval())
	}
}

func TestResetRestoresFreshModel(t *testing.T) {
	m := newModel(t, 7, 7)
	m.RegisterSource(0)
	m.SetInterval(64)
	m.RandomizePalette()
	m.Tick()
	m.Reset(0)

	if m.TotalGrains() != 0 || m.LostGrains() != 0 || m.Avalanche() != 0 {
		t.Fatal("counters must be cleared")
	}
	if m.Sources().Len() != 0 {
		t.Fatal("sources must be cleared")
	}
	if m.Interval() != DefaultConfig().Interval {
		t.Fatalf("interval = %d, want default", m.Interval())
	}
	if m.Palette() != DefaultPalette() {
		t.Fatal("palette must return to default")
	}
	for i, c := range m.Lattice().Cells() {
		if c != (core.Cell{}) {
			t.Fatalf("cell %d not untouched after reset: %+v", i, c)
		}
	}
}

func TestRegistryBuildsSandpile(t *testing.T) {
	factory, ok := core.Sims()["sandpile"]
	if !ok {
		t.Fatal("sandpile not registered")
	}
	sim, err := factory(map[string]string{"w": "12", "h": "8"})
	if err != nil {
		t.Fatal(err)
	}
	if sim.Size() != (core.Size{W: 12, H: 8}) {
		t.Fatalf("size = %+v", sim.Size())
	}
	if sim.Name() != "sandpile" {
		t.Fatalf("name = %q", sim.Name())
	}
}
