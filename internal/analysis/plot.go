package analysis

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/forcesim/internal/graph"
)

// Plot draws a series as a line chart. Non-finite samples are dropped.
func Plot(data []float64, caption string, width, height int) string {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return "no data"
	}
	return asciigraph.Plot(clean,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Scatter draws node positions on a character grid with y growing
// downward. Links are not drawn.
func Scatter(g *graph.Graph, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	pos, err := positions(g)
	if err != nil || len(pos) == 0 {
		return ""
	}

	first := true
	var minX, maxX, minY, maxY float64
	for _, p := range pos {
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX := math.Max(maxX-minX, 1)
	rangeY := math.Max(maxY-minY, 1)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range pos {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := int((p.Y - minY) / rangeY * float64(height-1))
		canvas[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
