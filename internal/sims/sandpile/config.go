package sandpile

import "strconv"

const (
	// MaxDrops bounds the number of concurrently active sources.
	MaxDrops = 32
	// MaxInterval bounds the grains injected per tick.
	MaxInterval = 65_536
	// DefaultGrainLimit pauses a run at 2^24 grains.
	DefaultGrainLimit = 16_777_216
)

// Config controls the lattice dimensions and injection behaviour.
type Config struct {
	Width  int
	Height int

	// Interval is the number of grains injected per tick.
	Interval int
	// Margin pads the extent reported by FindExtent on every side.
	Margin int
	// GrainLimit stops injection once this many grains were added. Zero
	// disables the limit.
	GrainLimit int
}

// DefaultConfig returns the standard configuration. A 3000x3000 table holds
// a single pile of roughly 16M grains without spilling.
func DefaultConfig() Config {
	return Config{
		Width:      3_000,
		Height:     3_000,
		Interval:   1_024,
		Margin:     10,
		GrainLimit: DefaultGrainLimit,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["interval"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Interval = clampInterval(parsed)
		}
	}
	if v, ok := cfg["margin"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Margin = parsed
		}
	}
	if v, ok := cfg["grain_limit"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.GrainLimit = parsed
		}
	}
	return c
}

func clampInterval(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxInterval {
		return MaxInterval
	}
	return n
}
