package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lokhorst/rebound/internal/diagnostics"
	"github.com/lokhorst/rebound/internal/sim"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer streams an ANSI projection of the particle positions to
// stdout while a run is in progress. The x-y plane is projected onto the
// canvas; the view auto-scales to the current extent of the system.
type LiveRenderer struct {
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ x, y int }
	scale     float64
}

func NewLiveRenderer(frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		frameRate: frameRate,
		canvas:    canvas,
		trail:     make([]struct{ x, y int }, 0, 50),
	}
}

func (r *LiveRenderer) OnStep(s *sim.Simulation) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.rescale(s)
	r.drawParticles(s)
	r.render(s)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

// rescale grows the view to the widest extent seen so far. Shrinking every
// frame would make the view jitter.
func (r *LiveRenderer) rescale(s *sim.Simulation) {
	extent := 1.0
	for i := 0; i < s.NReal(); i++ {
		p := s.Particles[i]
		if v := math.Abs(p.X); v > extent {
			extent = v
		}
		if v := math.Abs(p.Y); v > extent {
			extent = v
		}
	}
	if extent > r.scale {
		r.scale = extent
	}
	if r.scale == 0 {
		r.scale = 1
	}
}

func (r *LiveRenderer) project(p sim.Particle) (int, int) {
	// Terminal cells are about twice as tall as wide.
	x := width/2 + int(p.X/r.scale*float64(width)/2.2)
	y := height/2 - int(p.Y/r.scale*float64(height)/2.2)
	return x, y
}

func (r *LiveRenderer) drawParticles(s *sim.Simulation) {
	n := s.NReal()
	if n == 0 {
		return
	}

	bx, by := r.project(s.Particles[0])
	r.trail = append(r.trail, struct{ x, y int }{bx, by})
	if len(r.trail) > 40 {
		r.trail = r.trail[1:]
	}
	for i, pt := range r.trail {
		if i < len(r.trail)/2 {
			r.set(pt.x, pt.y, '.')
		} else {
			r.set(pt.x, pt.y, 'o')
		}
	}

	var maxM float64
	for i := 0; i < n; i++ {
		if s.Particles[i].M > maxM {
			maxM = s.Particles[i].M
		}
	}
	for i := 0; i < n; i++ {
		p := s.Particles[i]
		x, y := r.project(p)
		c := '*'
		if maxM > 0 && p.M > 0.5*maxM {
			c = 'O'
		}
		r.set(x, y, c)
	}
}

func (r *LiveRenderer) render(s *sim.Simulation) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  t=%.3f  n=%d  scale=%.1f\n", s.T, s.NReal(), r.scale))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  E=%.6g\n", diagnostics.Energy(s)))

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }
