//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"sandpile/internal/app"
	"sandpile/internal/core"
	"sandpile/internal/sims/sandpile"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	factory, ok := core.Sims()["sandpile"]
	if !ok {
		log.Fatal("sandpile sim not registered")
	}
	sim, err := factory(cfg.SimConfig())
	if err != nil {
		log.Fatalf("create lattice: %v", err)
	}
	model, ok := sim.(*sandpile.Model)
	if !ok {
		log.Fatalf("unexpected sim type %T", sim)
	}

	if cfg.Load != "" {
		report, err := model.Uncurate(cfg.Load)
		if err != nil {
			log.Fatalf("load %s: %v", cfg.Load, err)
		}
		if report.Mismatch() {
			log.Printf("load %s: checksum mismatch, %d cells decoded, %d declared, %d expected",
				cfg.Load, report.Decoded, report.Declared, report.Expected)
		}
	}

	for _, p := range cfg.Sources {
		if err := model.RegisterSourceXY(p.X, p.Y); err != nil {
			log.Printf("source %d,%d: %v", p.X, p.Y, err)
		}
	}
	if model.Sources().Len() == 0 {
		if err := model.RegisterSource(model.Lattice().CenterIndex()); err != nil {
			log.Fatalf("centre source: %v", err)
		}
	}

	game, err := app.New(model, cfg)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowTitle("sandpile")
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(game.WindowSize())

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
