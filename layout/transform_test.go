package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_ApplyInvert(t *testing.T) {
	tr := Transform{X: 30, Y: -10, K: 2}
	p := Point{X: 5, Y: 7}

	s := tr.Apply(p)
	assert.Equal(t, Point{X: 40, Y: 4}, s)
	assert.Equal(t, p, tr.Invert(s))
	assert.Equal(t, p, Identity().Apply(p))
}

func TestTransform_ScaleAtKeepsAnchor(t *testing.T) {
	tr := Transform{X: 10, Y: 20, K: 1}
	anchor := Point{X: 300, Y: 200}
	scene := tr.Invert(anchor)

	zoomed := tr.ScaleAt(2, anchor, 0.1, 4)
	assert.Equal(t, 2.0, zoomed.K)
	assert.InDelta(t, anchor.X, zoomed.Apply(scene).X, 1e-9)
	assert.InDelta(t, anchor.Y, zoomed.Apply(scene).Y, 1e-9)
}

func TestTransform_ScaleClamped(t *testing.T) {
	tr := Identity()
	assert.Equal(t, 4.0, tr.ScaleAt(100, Point{}, 0.1, 4).K)
	assert.Equal(t, 0.1, tr.ScaleAt(0.001, Point{}, 0.1, 4).K)
}

func TestTransform_Translate(t *testing.T) {
	tr := Identity().Translate(5, -3).Translate(1, 1)
	assert.Equal(t, Transform{X: 6, Y: -2, K: 1}, tr)
}

func TestFitTransform(t *testing.T) {
	tr := FitTransform(1000, 500)
	assert.InDelta(t, 100, tr.X, 1e-9)
	assert.InDelta(t, 50, tr.Y, 1e-9)
	assert.Equal(t, 0.8, tr.K)

	center := tr.Apply(Point{X: 500, Y: 250})
	assert.InDelta(t, 500, center.X, 1e-9)
	assert.InDelta(t, 250, center.Y, 1e-9)
}

func TestTransform_String(t *testing.T) {
	assert.Equal(t, "translate(10,20) scale(1.5)", Transform{X: 10, Y: 20, K: 1.5}.String())
}
