package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	cameraFrequency = 6.0
	cameraDamping   = 1.0
	minZoom         = 1e-3
)

// Camera maps layout coordinates to canvas dots. Center and zoom follow
// their targets through critically damped springs so refits glide instead
// of jumping. Zoom is dots per layout unit.
type Camera struct {
	spring harmonica.Spring

	center, centerVel r2.Vec
	zoom, zoomVel     float64

	targetCenter r2.Vec
	targetZoom   float64
	follow       bool
}

func NewCamera(fps int) *Camera {
	return &Camera{
		spring:     harmonica.NewSpring(harmonica.FPS(fps), cameraFrequency, cameraDamping),
		zoom:       1,
		targetZoom: 1,
		follow:     true,
	}
}

// Fit aims the camera at pts so they fill a w x h dot canvas with a 10%
// margin. The camera stops fitting automatically once the user pans or
// zooms, until Follow is called.
func (c *Camera) Fit(pts []r2.Vec, w, h int) {
	if len(pts) == 0 || w <= 0 || h <= 0 {
		return
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	span := r2.Sub(hi, lo)
	span.X, span.Y = math.Max(span.X, 1), math.Max(span.Y, 1)

	c.targetCenter = r2.Scale(0.5, r2.Add(lo, hi))
	c.targetZoom = 0.9 * math.Min(float64(w)/span.X, float64(h)/span.Y)
}

// Follow re-enables automatic fitting.
func (c *Camera) Follow()         { c.follow = true }
func (c *Camera) Following() bool { return c.follow }

func (c *Camera) Pan(dx, dy float64) {
	c.follow = false
	c.targetCenter = r2.Add(c.targetCenter, r2.Vec{X: dx / c.targetZoom, Y: dy / c.targetZoom})
}

func (c *Camera) Zoom(factor float64) {
	c.follow = false
	c.targetZoom = math.Max(c.targetZoom*factor, minZoom)
}

// Step advances the springs by one frame.
func (c *Camera) Step() {
	c.center.X, c.centerVel.X = c.spring.Update(c.center.X, c.centerVel.X, c.targetCenter.X)
	c.center.Y, c.centerVel.Y = c.spring.Update(c.center.Y, c.centerVel.Y, c.targetCenter.Y)
	c.zoom, c.zoomVel = c.spring.Update(c.zoom, c.zoomVel, c.targetZoom)
	c.zoom = math.Max(c.zoom, minZoom)
}

// Snap jumps to the targets.
func (c *Camera) Snap() {
	c.center, c.zoom = c.targetCenter, c.targetZoom
	c.centerVel, c.zoomVel = r2.Vec{}, 0
}

// Project returns the dot of p on a w x h dot canvas.
func (c *Camera) Project(p r2.Vec, w, h int) (int, int) {
	d := r2.Scale(c.zoom, r2.Sub(p, c.center))
	return int(math.Round(d.X + float64(w)/2)), int(math.Round(d.Y + float64(h)/2))
}

func (c *Camera) ZoomLevel() float64 { return c.zoom }
