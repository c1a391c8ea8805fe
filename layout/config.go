package layout

import (
	"math"
	"time"
)

// Config holds the physical and viewport parameters of the layout.
type Config struct {
	// Viewport size; the centering forces pull toward its middle.
	Width  float64
	Height float64

	// Rest length of the spring along each visible edge.
	LinkDistance float64

	// Many-body strength. Negative values repel.
	Charge float64

	// Strength of the x/y pull toward the viewport center.
	CenterStrength float64

	// Collision radius of each node.
	CollideRadius float64

	// Cooling parameters, d3-force semantics.
	AlphaMin      float64
	AlphaDecay    float64
	VelocityDecay float64

	// Alpha target held while a node is being dragged.
	DragAlphaTarget float64

	// Zoom bounds of the scene transform.
	MinZoom float64
	MaxZoom float64

	// Interval between two simulation ticks of the frame loop.
	FrameInterval time.Duration

	// Seed of the jiggle source, for reproducible layouts.
	Seed int64
}

// DefaultConfig returns the tuning of the architecture view.
func DefaultConfig() Config {
	alphaMin := 0.001
	return Config{
		Width:           1200,
		Height:          800,
		LinkDistance:    200,
		Charge:          -1500,
		CenterStrength:  0.05,
		CollideRadius:   40,
		AlphaMin:        alphaMin,
		AlphaDecay:      1 - math.Pow(alphaMin, 1.0/300),
		VelocityDecay:   0.4,
		DragAlphaTarget: 0.3,
		MinZoom:         0.1,
		MaxZoom:         4,
		FrameInterval:   16 * time.Millisecond,
		Seed:            1,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.LinkDistance == 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.Charge == 0 {
		c.Charge = d.Charge
	}
	if c.CenterStrength == 0 {
		c.CenterStrength = d.CenterStrength
	}
	if c.CollideRadius == 0 {
		c.CollideRadius = d.CollideRadius
	}
	if c.AlphaMin == 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.AlphaDecay == 0 {
		c.AlphaDecay = 1 - math.Pow(c.AlphaMin, 1.0/300)
	}
	if c.VelocityDecay == 0 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.DragAlphaTarget == 0 {
		c.DragAlphaTarget = d.DragAlphaTarget
	}
	if c.MinZoom == 0 {
		c.MinZoom = d.MinZoom
	}
	if c.MaxZoom == 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// Center returns the middle of the viewport.
func (c Config) Center() Point {
	return Point{X: c.Width / 2, Y: c.Height / 2}
}
