package layout

import "math"

// applyLinks pulls the endpoints of every link toward LinkDistance.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		src, dst := l.source, l.target
		x := dst.X + dst.VX - src.X - src.VX
		if x == 0 {
			x = s.jiggle()
		}
		y := dst.Y + dst.VY - src.Y - src.VY
		if y == 0 {
			y = s.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		d = (d - s.cfg.LinkDistance) / d * s.alpha * l.strength
		x *= d
		y *= d
		dst.VX -= x * l.bias
		dst.VY -= y * l.bias
		src.VX += x * (1 - l.bias)
		src.VY += y * (1 - l.bias)
	}
}

// applyCharge is the pairwise many-body force. The graphs shown here are small
// enough that the exact O(n²) sum is cheaper than maintaining a quadtree.
func (s *Simulation) applyCharge() {
	const distanceMin2 = 1
	k := s.cfg.Charge * s.alpha
	for _, a := range s.particles {
		for _, b := range s.particles {
			if a == b {
				continue
			}
			x := b.X - a.X
			y := b.Y - a.Y
			l := x*x + y*y
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			a.VX += x * k / l
			a.VY += y * k / l
		}
	}
}

// applyCenter translates the whole set so its centroid sits on the viewport center.
func (s *Simulation) applyCenter() {
	n := float64(len(s.particles))
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, p := range s.particles {
		sx += p.X
		sy += p.Y
	}
	c := s.cfg.Center()
	sx = sx/n - c.X
	sy = sy/n - c.Y
	for _, p := range s.particles {
		p.X -= sx
		p.Y -= sy
	}
}

// applyPosition nudges every particle toward the viewport center on each axis.
func (s *Simulation) applyPosition() {
	c := s.cfg.Center()
	k := s.cfg.CenterStrength * s.alpha
	for _, p := range s.particles {
		p.VX += (c.X - p.X) * k
		p.VY += (c.Y - p.Y) * k
	}
}

// applyCollide separates particles closer than twice CollideRadius.
func (s *Simulation) applyCollide() {
	r := 2 * s.cfg.CollideRadius
	r2 := r * r
	for i, a := range s.particles {
		xi := a.X + a.VX
		yi := a.Y + a.VY
		for _, b := range s.particles[i+1:] {
			x := xi - b.X - b.VX
			y := yi - b.Y - b.VY
			l := x*x + y*y
			if l >= r2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l
			x *= l
			y *= l
			// Equal radii split the correction evenly.
			a.VX += x * 0.5
			a.VY += y * 0.5
			b.VX -= x * 0.5
			b.VY -= y * 0.5
		}
	}
}
