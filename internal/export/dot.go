package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/san-kum/forcesim/internal/graph"
)

// PointsPerInch converts layout units to Graphviz inches when no scale is
// given.
const PointsPerInch = 72.0

// ToDOT writes an undirected graph whose placed nodes carry pinned
// positions, so neato reproduces the layout instead of computing one.
// Graphviz y grows upward, so y is negated.
func ToDOT(g *graph.Graph, unitsPerInch float64) string {
	if unitsPerInch <= 0 {
		unitsPerInch = PointsPerInch
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fixedsize=true, width=0.3, fontsize=8];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.ID)}
		if n.Placed() {
			x, y := *n.X/unitsPerInch, (0-*n.Y)/unitsPerInch
			attrs = append(attrs, fmt.Sprintf("pos=\"%.4f,%.4f!\"", x, y))
		}
		if n.Fixed {
			attrs = append(attrs, "fillcolor=lightpink")
		}
		if n.Group != "" {
			attrs = append(attrs, fmt.Sprintf("group=%q", n.Group))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		if l.Rigid {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed];\n", l.Source, l.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", l.Source, l.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders DOT produced by ToDOT with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
