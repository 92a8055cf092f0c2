package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"sandpile/internal/app"
	"sandpile/internal/sims/sandpile"
	"sandpile/internal/stats"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	width := flag.Int("w", 256, "lattice width")
	height := flag.Int("h", 256, "lattice height")
	interval := flag.Int("interval", 1024, "grains injected per tick")
	margin := flag.Int("margin", 10, "extent margin in cells")
	ticks := flag.Int("ticks", 64, "ticks to simulate")
	grains := flag.Int("grains", 0, "stop after this many grains in total (0 uses the default limit)")
	load := flag.String("load", "", "snapshot to resume from")
	saveDir := flag.String("save", "", "directory to write the final snapshot to")
	plot := flag.Bool("plot", false, "print the avalanche size distribution")
	palette := flag.Bool("random-palette", false, "store a palette seeded by the grain count")
	var sources app.PointList
	flag.Var(&sources, "source", "drop cell as x,y (repeatable, default centre)")
	var overrides kvList
	flag.Var(&overrides, "set", "config override in key=value form (repeatable)")
	flag.Parse()

	params := map[string]string{
		"w":        strconv.Itoa(*width),
		"h":        strconv.Itoa(*height),
		"interval": strconv.Itoa(*interval),
		"margin":   strconv.Itoa(*margin),
	}
	if *grains > 0 {
		params["grain_limit"] = strconv.Itoa(*grains)
	}
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			log.Printf("ignoring override %q: want key=value", kv)
			continue
		}
		params[key] = value
	}

	model, err := sandpile.NewWithConfig(sandpile.FromMap(params))
	if err != nil {
		log.Fatalf("create lattice: %v", err)
	}

	if *load != "" {
		report, err := model.Uncurate(*load)
		if err != nil {
			log.Fatalf("load %s: %v", *load, err)
		}
		if report.Mismatch() {
			log.Printf("load %s: checksum mismatch, %d cells decoded, %d declared, %d expected",
				*load, report.Decoded, report.Declared, report.Expected)
		}
		if report.Imbalance != 0 {
			log.Printf("load %s: grain counters off by %d", *load, report.Imbalance)
		}
	}

	for _, p := range sources {
		if err := model.RegisterSourceXY(p.X, p.Y); err != nil {
			log.Printf("source %d,%d: %v", p.X, p.Y, err)
		}
	}
	if model.Sources().Len() == 0 {
		if err := model.RegisterSource(model.Lattice().CenterIndex()); err != nil {
			log.Fatalf("centre source: %v", err)
		}
	}

	size := model.Size()
	fmt.Printf("Running %dx%d lattice, %d sources, interval %d, %d ticks\n",
		size.W, size.H, model.Sources().Len(), model.Interval(), *ticks)

	hist := stats.NewHistogram()
	injected := model.Record(*ticks, hist)
	if model.LimitReached() {
		log.Printf("grain limit %d reached", model.Config().GrainLimit)
	}

	ext := model.FindExtent()
	fmt.Printf("Injected %d grains: total %d, lost %d, on lattice %d, last avalanche %d\n",
		injected, model.TotalGrains(), model.LostGrains(), model.GrainsOnLattice(), model.Avalanche())
	fmt.Printf("Extent: x=%d y=%d w=%d h=%d\n", ext.X, ext.Y, ext.W, ext.H)
	fmt.Printf("Avalanches: %s\n", hist.Summary())
	if *plot {
		if chart := hist.Plot(12); chart != "" {
			fmt.Println()
			fmt.Println(chart)
		}
	}

	if *saveDir != "" {
		if *palette {
			model.RandomizePalette()
		}
		path, err := model.Curate(*saveDir)
		if err != nil {
			log.Fatalf("save snapshot: %v", err)
		}
		fmt.Printf("Saved %s\n", path)
	}
}
