//go:build ebiten

package app

import (
	"fmt"
	"image"
	"log"

	"sandpile/internal/core"
	"sandpile/internal/render"
	"sandpile/internal/sims/sandpile"
	"sandpile/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Pile is the simulation surface the viewer drives.
type Pile interface {
	core.Sim
	RegisterSourceXY(x, y int) error
	ScaleInterval(up bool)
	RandomizePalette()
	Palette() sandpile.Palette
	LimitReached() bool
	FindExtent() sandpile.Extent
	Sources() *sandpile.Sources
	Curate(dir string) (string, error)
	Uncurate(path string) (sandpile.LoadReport, error)
}

// Game adapts a sandpile to the ebiten.Game interface.
type Game struct {
	sim     Pile
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD

	scale    int
	hudWidth int
	saveDir  string
	loadPath string

	paused     bool
	tickOnce   bool
	fullRedraw bool
	limitNoted bool
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, cfg *Config) (*Game, error) {
	pile, ok := sim.(Pile)
	if !ok {
		return nil, fmt.Errorf("sim %q cannot be viewed", sim.Name())
	}
	scale := max(cfg.Scale, 1)
	g := &Game{
		sim:        pile,
		overlay:    ui.NewOverlay(scale),
		hud:        ui.NewHUD(sim, cfg.HUDWidth),
		scale:      scale,
		hudWidth:   max(cfg.HUDWidth, 0),
		saveDir:    cfg.SaveDir,
		loadPath:   cfg.Load,
		fullRedraw: true,
	}
	if g.loadPath == "" {
		g.loadPath = sandpile.DefaultSnapshotName
	}
	g.resizePainter()
	return g, nil
}

// WindowSize returns the outer window size for the current lattice.
func (g *Game) WindowSize() (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}

func (g *Game) resizePainter() {
	s := g.sim.Size()
	if g.painter != nil {
		if w, h := g.painter.Size(); w == s.W && h == s.H {
			return
		}
	}
	g.painter = render.NewGridPainter(s.W, s.H)
	g.hud = ui.NewHUD(g.sim, g.hudWidth)
	ebiten.SetWindowSize(g.WindowSize())
}

// Reset clears the pile.
func (g *Game) Reset(seed int64) {
	g.sim.Reset(seed)
	g.tickOnce = false
	g.limitNoted = false
	g.fullRedraw = true
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		g.sim.ScaleInterval(true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		g.sim.ScaleInterval(false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.sim.RandomizePalette()
		g.fullRedraw = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.save()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.load()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.addSourceAtCursor()
	}

	g.overlay.Update()
	g.hud.Update(g.sim.Size().W * g.scale)

	if g.sim.LimitReached() {
		if !g.limitNoted {
			log.Printf("grain limit reached, pausing")
			g.limitNoted = true
		}
		g.paused = true
		g.tickOnce = false
	}
	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

func (g *Game) addSourceAtCursor() {
	mx, my := ebiten.CursorPosition()
	s := g.sim.Size()
	x, y := mx/g.scale, my/g.scale
	if mx < 0 || my < 0 || x >= s.W || y >= s.H {
		return
	}
	if err := g.sim.RegisterSourceXY(x, y); err != nil {
		log.Printf("add source: %v", err)
	}
}

func (g *Game) save() {
	path, err := g.sim.Curate(g.saveDir)
	if err != nil {
		log.Printf("save: %v", err)
		return
	}
	log.Printf("saved %s", path)
}

func (g *Game) load() {
	report, err := g.sim.Uncurate(g.loadPath)
	if err != nil {
		log.Printf("load %s: %v", g.loadPath, err)
		return
	}
	if report.Mismatch() {
		log.Printf("load %s: checksum mismatch, %d cells decoded, %d declared, %d expected",
			g.loadPath, report.Decoded, report.Declared, report.Expected)
	}
	g.limitNoted = false
	g.fullRedraw = true
	g.resizePainter()
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	s := g.sim.Size()
	ext := g.sim.FindExtent().Rect()
	region := ext
	if g.fullRedraw {
		region = image.Rect(0, 0, s.W, s.H)
		g.fullRedraw = false
	}
	g.painter.Blit(screen, g.sim.Lattice(), g.sim.Palette().RGBA(), region, g.scale)
	g.overlay.Draw(screen, ext, sourcePoints(g.sim))
	g.hud.Draw(screen, s.W*g.scale, g.scale)
	if g.paused {
		status := "paused"
		if g.sim.LimitReached() {
			status = "grain limit reached"
		}
		ebitenutil.DebugPrintAt(screen, status, 4, 4)
	}
}

func sourcePoints(p Pile) []image.Point {
	l := p.Lattice()
	active := p.Sources().Active()
	pts := make([]image.Point, len(active))
	for i, idx := range active {
		x, y := l.XY(idx)
		pts[i] = image.Pt(x, y)
	}
	return pts
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.WindowSize()
}
