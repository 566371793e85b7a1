package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws the cart and both pendulum links as ASCII frames.
// It implements the step observer, so it plugs straight into a run.
type LiveRenderer struct {
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ x, y int }
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

func (r *LiveRenderer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawPendulum(x)
	r.render(x, u, t)
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

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawPendulum renders the cart on its rail with both links rising from
// the pivot. Angles are measured from upright, so a zero state draws the
// links straight up.
func (r *LiveRenderer) drawPendulum(x dynamo.State) {
	if len(x) < dynamo.StateSize {
		return
	}
	pos := x[dynamo.IdxCartPos]
	t1 := x[dynamo.IdxAngle1]
	t2 := x[dynamo.IdxAngle2]

	gy := height - 3
	cx := width/2 + int(pos*8)

	for i := 2; i < width-2; i++ {
		r.set(i, gy+1, '=')
	}
	for dx := -3; dx <= 3; dx++ {
		r.set(cx+dx, gy, '#')
	}

	length := 7.0
	b1x := cx + int(length*math.Sin(t1))
	b1y := gy - 1 - int(length*math.Cos(t1))
	b2x := b1x + int(length*math.Sin(t2))
	b2y := b1y - int(length*math.Cos(t2))

	r.trail = append(r.trail, struct{ x, y int }{b2x, b2y})
	if len(r.trail) > 50 {
		r.trail = r.trail[1:]
	}
	for _, pt := range r.trail {
		r.set(pt.x, pt.y, '.')
	}

	r.line(cx, gy-1, b1x, b1y, '|')
	r.set(b1x, b1y, 'o')
	r.line(b1x, b1y, b2x, b2y, '|')
	r.set(b2x, b2y, 'O')
}

func (r *LiveRenderer) render(x dynamo.State, u dynamo.Control, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  double inverted pendulum  t=%.2fs\n", t))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  x=%.2f  th1=%.3f  th2=%.3f  u=%.2f\n",
		x[dynamo.IdxCartPos], x[dynamo.IdxAngle1], x[dynamo.IdxAngle2], dynamo.Force(u)))

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
