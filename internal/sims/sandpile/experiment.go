package sandpile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sandpile/internal/stats"
)

// Record runs ticks ticks, adding every grain's avalanche size to hist, and
// returns the number of grains injected. It stops early once the grain limit
// is reached or when there are no sources.
func (m *Model) Record(ticks int, hist *stats.Histogram) int {
	injected := 0
	for t := 0; t < ticks; t++ {
		if m.LimitReached() {
			break
		}
		n := m.TickFunc(hist.Add)
		if n == 0 {
			break
		}
		injected += n
	}
	return injected
}

// RunResult summarises one headless run.
type RunResult struct {
	Config    Config
	Injected  int
	Lost      int
	Extent    Extent
	Histogram *stats.Histogram
}

// Simulate builds a model from cfg with a single source on the centre cell
// and records ticks ticks of avalanches.
func Simulate(ctx context.Context, cfg Config, ticks int) (RunResult, error) {
	m, err := NewWithConfig(cfg)
	if err != nil {
		return RunResult{}, err
	}
	if err := m.RegisterSource(m.lattice.CenterIndex()); err != nil {
		return RunResult{}, err
	}
	hist := stats.NewHistogram()
	injected := 0
	for t := 0; t < ticks; t++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		n := m.Record(1, hist)
		if n == 0 {
			break
		}
		injected += n
	}
	return RunResult{
		Config:    m.cfg,
		Injected:  injected,
		Lost:      m.lostGrains,
		Extent:    m.FindExtent(),
		Histogram: hist,
	}, nil
}

// Sweep simulates every config on at most workers goroutines. Results keep
// the order of cfgs; the first failure cancels the remaining runs.
func Sweep(ctx context.Context, cfgs []Config, ticks, workers int) ([]RunResult, error) {
	results := make([]RunResult, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := Simulate(ctx, cfg, ticks)
			if err != nil {
				return fmt.Errorf("run %dx%d interval %d: %w", cfg.Width, cfg.Height, cfg.Interval, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
