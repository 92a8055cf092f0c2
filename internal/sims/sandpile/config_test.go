package sandpile

import (
	"errors"
	"math"
	"testing"

	"sandpile/internal/core"
)

func TestFromMapOverrides(t *testing.T) {
	c := FromMap(map[string]string{
		"w":           "640",
		"h":           "480",
		"interval":    "100000",
		"margin":      "0",
		"grain_limit": "0",
	})
	if c.Width != 640 || c.Height != 480 {
		t.Fatalf("size = %dx%d", c.Width, c.Height)
	}
	if c.Interval != MaxInterval {
		t.Fatalf("interval = %d, want clamp to %d", c.Interval, MaxInterval)
	}
	if c.Margin != 0 || c.GrainLimit != 0 {
		t.Fatalf("margin=%d grain_limit=%d, want 0/0", c.Margin, c.GrainLimit)
	}
}

func TestFromMapIgnoresInvalidValues(t *testing.T) {
	c := FromMap(map[string]string{"w": "-3", "h": "abc", "interval": "0", "margin": "-1"})
	if c != DefaultConfig() {
		t.Fatalf("config = %+v, want defaults", c)
	}
	if FromMap(nil) != DefaultConfig() {
		t.Fatal("nil map must yield defaults")
	}
}

func TestNewWithConfigRejectsOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = math.MaxInt / 2
	cfg.Height = 3
	if _, err := NewWithConfig(cfg); !errors.Is(err, core.ErrLatticeTooLarge) {
		t.Fatalf("expected ErrLatticeTooLarge, got %v", err)
	}
}

func TestParametersExposeCounters(t *testing.T) {
	m := newModel(t, 9, 9)
	m.RegisterSource(m.Lattice().CenterIndex())
	m.SetInterval(4)
	m.Tick()

	snap := m.Parameters()
	for key, want := range map[string]string{
		"w":            "9",
		"interval":     "4",
		"sources":      "1",
		"total_grains": "4",
		"lost_grains":  "0",
		"avalanche":    "1",
	} {
		p, ok := snap.Lookup(key)
		if !ok {
			t.Fatalf("parameter %q missing", key)
		}
		if p.Value != want {
			t.Fatalf("%s = %q, want %q", key, p.Value, want)
		}
	}
}

func TestSetIntParameterInterval(t *testing.T) {
	m := newModel(t, 4, 4)
	if !m.SetIntParameter("interval", 1<<20) {
		t.Fatal("interval must be adjustable")
	}
	if m.Interval() != MaxInterval {
		t.Fatalf("interval = %d, want %d", m.Interval(), MaxInterval)
	}
	if m.SetIntParameter("w", 10) {
		t.Fatal("width must not be adjustable at runtime")
	}
	ctrls := m.ParameterControls()
	if len(ctrls) != 1 || ctrls[0].Key != "interval" || ctrls[0].Factor != 4 {
		t.Fatalf("controls = %+v", ctrls)
	}
}

func TestRandomPaletteDeterministic(t *testing.T) {
	a := RandomPalette(1234)
	b := RandomPalette(1234)
	if a != b {
		t.Fatal("same seed must give the same palette")
	}
	if a[core.BucketUntouched].A != 0 {
		t.Fatal("untouched colour must stay transparent")
	}
	if a[core.BucketCritical].R != 255 || a[core.BucketCritical].G != 0 {
		t.Fatalf("critical colour = %v, want red", a[core.BucketCritical])
	}
	for bucket := core.BucketZero; bucket <= core.BucketThree; bucket++ {
		if a[bucket].A != 255 {
			t.Fatalf("bucket %d must be opaque", bucket)
		}
	}
}

func TestPaletteColorOf(t *testing.T) {
	p := DefaultPalette()
	if got := p.ColorOf(core.Cell{}); got != p[core.BucketUntouched] {
		t.Fatalf("untouched colour = %v", got)
	}
	if got := p.ColorOf(core.Cell{Touched: true}); got != p[core.BucketZero] {
		t.Fatalf("toppled-zero colour = %v", got)
	}
	rgba := p.RGBA()
	if len(rgba) != core.BucketCount {
		t.Fatalf("RGBA has %d entries", len(rgba))
	}
	if rgba[core.BucketOne].G != 227 || rgba[core.BucketOne].A != 255 {
		t.Fatalf("one-grain RGBA = %v", rgba[core.BucketOne])
	}
}
