package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"sandpile/internal/sims/sandpile"
)

func main() {
	ticks := flag.Int("ticks", 64, "ticks to simulate per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	sizes := flag.String("sizes", "64,128,256", "comma separated square lattice sizes")
	intervals := flag.String("intervals", "256,1024", "comma separated grains per tick")
	flag.Parse()

	sizeList, err := parseInts(*sizes)
	if err != nil {
		log.Fatalf("-sizes: %v", err)
	}
	intervalList, err := parseInts(*intervals)
	if err != nil {
		log.Fatalf("-intervals: %v", err)
	}

	var cfgs []sandpile.Config
	for _, size := range sizeList {
		for _, interval := range intervalList {
			cfg := sandpile.DefaultConfig()
			cfg.Width = size
			cfg.Height = size
			cfg.Interval = interval
			cfgs = append(cfgs, cfg)
		}
	}

	fmt.Printf("Sweeping %d scenarios (%d workers, %d ticks)\n", len(cfgs), *workers, *ticks)
	start := time.Now()
	results, err := sandpile.Sweep(context.Background(), cfgs, *ticks, *workers)
	if err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Histogram.Max() > results[j].Histogram.Max()
	})
	fmt.Printf("\nResults by largest avalanche (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for i, res := range results {
		fmt.Printf("%2d) %dx%d interval=%d lost=%d extent=%dx%d %s\n",
			i+1, res.Config.Width, res.Config.Height, res.Config.Interval, res.Lost,
			res.Extent.W, res.Extent.H, res.Histogram.Summary())
	}
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("%d must be positive", v)
		}
		out = append(out, v)
	}
	return out, nil
}
