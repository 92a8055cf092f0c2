package app

import (
	"flag"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Config represents the command-line parameters for the viewer.
type Config struct {
	Width    int
	Height   int
	Interval int
	Margin   int
	Scale    int
	TPS      int
	HUDWidth int
	Load     string
	SaveDir  string
	Sources  PointList
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Width:    400,
		Height:   300,
		Interval: 16,
		Margin:   10,
		Scale:    2,
		TPS:      60,
		HUDWidth: 240,
		SaveDir:  ".",
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Width, "w", c.Width, "lattice width")
	fs.IntVar(&c.Height, "h", c.Height, "lattice height")
	fs.IntVar(&c.Interval, "interval", c.Interval, "grains injected per tick")
	fs.IntVar(&c.Margin, "margin", c.Margin, "extent margin in cells")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in pixels (0 hides it)")
	fs.StringVar(&c.Load, "load", c.Load, "snapshot to load at startup")
	fs.StringVar(&c.SaveDir, "save", c.SaveDir, "directory snapshots are written to")
	fs.Var(&c.Sources, "source", "drop cell as x,y (repeatable, default centre)")
}

// SimConfig converts the lattice settings into the map consumed by sim
// factories.
func (c *Config) SimConfig() map[string]string {
	return map[string]string{
		"w":        strconv.Itoa(c.Width),
		"h":        strconv.Itoa(c.Height),
		"interval": strconv.Itoa(c.Interval),
		"margin":   strconv.Itoa(c.Margin),
	}
}

// PointList is a repeatable flag of x,y pairs.
type PointList []image.Point

func (l *PointList) String() string {
	parts := make([]string, len(*l))
	for i, p := range *l {
		parts[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// Set parses one x,y pair.
func (l *PointList) Set(value string) error {
	p, err := ParsePoint(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

// ParsePoint parses "x,y".
func ParsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return image.Pt(x, y), nil
}
