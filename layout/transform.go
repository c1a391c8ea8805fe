package layout

import "fmt"

// Point is a position in simulation or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is the zoom/pan applied to the whole scene: screen = sim*K + (X, Y).
// It is independent of the physics.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that maps simulation space onto the screen unchanged.
func Identity() Transform {
	return Transform{K: 1}
}

// Apply maps a simulation point to screen space.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point to simulation space.
func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Translate pans by (dx, dy) screen units.
func (t Transform) Translate(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// ScaleAt zooms to scale k, clamped to [minK, maxK], keeping the screen point
// anchor fixed.
func (t Transform) ScaleAt(k float64, anchor Point, minK, maxK float64) Transform {
	k = clamp(k, minK, maxK)
	p := t.Invert(anchor)
	return Transform{
		X: anchor.X - p.X*k,
		Y: anchor.Y - p.Y*k,
		K: k,
	}
}

// String renders the transform as an SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}

// FitTransform is the initial view: the viewport scaled to 0.8 around its center.
func FitTransform(width, height float64) Transform {
	const k = 0.8
	return Transform{
		X: width/2 - k*width/2,
		Y: height/2 - k*height/2,
		K: k,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
