package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/forcesim/internal/graph"
)

// SVGOptions controls layout rendering. Zero fields take the defaults of
// DefaultSVGOptions.
type SVGOptions struct {
	Width, Height int
	NodeRadius    float64
	Background    string
	NodeColor     string
	FixedColor    string
	LinkColor     string
	Labels        bool
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      800,
		Height:     800,
		NodeRadius: 5,
		Background: "#0a0a0a",
		NodeColor:  "#00ff00",
		FixedColor: "#ff5f87",
		LinkColor:  "#5f5f5f",
	}
}

func (o SVGOptions) withDefaults() SVGOptions {
	d := DefaultSVGOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.NodeRadius <= 0 {
		o.NodeRadius = d.NodeRadius
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.NodeColor == "" {
		o.NodeColor = d.NodeColor
	}
	if o.FixedColor == "" {
		o.FixedColor = d.FixedColor
	}
	if o.LinkColor == "" {
		o.LinkColor = d.LinkColor
	}
	return o
}

// LayoutToSVG draws links as lines and nodes as circles, fitted to the
// canvas with 10% padding and the aspect ratio preserved. y grows downward
// as in the layout. Unplaced nodes and their links are skipped.
func LayoutToSVG(g *graph.Graph, opts SVGOptions) string {
	opts = opts.withDefaults()

	type point struct{ x, y float64 }
	pos := make(map[string]point, len(g.Nodes))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes {
		if !n.Placed() {
			continue
		}
		pos[n.ID] = point{*n.X, *n.Y}
		minX, maxX = math.Min(minX, *n.X), math.Max(maxX, *n.X)
		minY, maxY = math.Min(minY, *n.Y), math.Max(maxY, *n.Y)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background)

	if len(pos) == 0 {
		sb.WriteString("</svg>\n")
		return sb.String()
	}

	rangeX := math.Max(maxX-minX, 1)
	rangeY := math.Max(maxY-minY, 1)
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2
	scale := math.Min(float64(opts.Width)/rangeX, float64(opts.Height)/rangeY)
	offX := (float64(opts.Width) - rangeX*scale) / 2
	offY := (float64(opts.Height) - rangeY*scale) / 2
	project := func(p point) (float64, float64) {
		return offX + (p.x-minX)*scale, offY + (p.y-minY)*scale
	}

	fmt.Fprintf(&sb, "<g stroke=\"%s\" stroke-width=\"1.5\">\n", opts.LinkColor)
	for _, l := range g.Links {
		a, okA := pos[l.Source]
		b, okB := pos[l.Target]
		if !okA || !okB {
			continue
		}
		x1, y1 := project(a)
		x2, y2 := project(b)
		dash := ""
		if l.Rigid {
			dash = ` stroke-dasharray="4 2"`
		}
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"%s/>\n", x1, y1, x2, y2, dash)
	}
	sb.WriteString("</g>\n")

	sb.WriteString("<g>\n")
	for _, n := range g.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		cx, cy := project(p)
		r := opts.NodeRadius
		if n.Radius > 0 {
			r = n.Radius * scale
		}
		fill := opts.NodeColor
		if n.Fixed {
			fill = opts.FixedColor
		}
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"><title>%s</title></circle>\n",
			cx, cy, r, fill, html.EscapeString(n.ID))
		if opts.Labels {
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-size=\"10\">%s</text>\n",
				cx+r+2, cy+3, opts.NodeColor, html.EscapeString(n.ID))
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}
