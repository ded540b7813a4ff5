package tui

import (
	"github.com/1broseidon/overmenu/internal/lifecycle"
)

// renderMiniMap draws the work area as a width x height box with the menu
// position marked. Centered presentations mark the middle.
func renderMiniMap(p lifecycle.Presentation, width, height int) []string {
	if width < 3 || height < 3 {
		return nil
	}
	canvas := make([][]rune, height)
	for y := range canvas {
		canvas[y] = make([]rune, width)
		for x := range canvas[y] {
			switch {
			case (y == 0 || y == height-1) && (x == 0 || x == width-1):
				canvas[y][x] = '+'
			case y == 0 || y == height-1:
				canvas[y][x] = '-'
			case x == 0 || x == width-1:
				canvas[y][x] = '|'
			default:
				canvas[y][x] = ' '
			}
		}
	}

	wa := p.WindowSize
	if wa.Width > 0 && wa.Height > 0 {
		px, py := wa.Width/2, wa.Height/2
		if p.Position != nil {
			px, py = p.Position.X, p.Position.Y
		}
		innerW, innerH := width-2, height-2
		cx := 1 + scale(px, wa.Width, innerW)
		cy := 1 + scale(py, wa.Height, innerH)
		canvas[cy][cx] = markerRune
	}

	lines := make([]string, height)
	for y := range canvas {
		lines[y] = string(canvas[y])
	}
	return lines
}

// scale maps v in [0,total) onto [0,cells).
func scale(v, total, cells int) int {
	if v < 0 {
		v = 0
	}
	if v >= total {
		v = total - 1
	}
	return v * cells / total
}
