package layout

import (
	"math"
	"math/rand"

	"github.com/smallnest/archviz/graph"
)

// initialRadius and initialAngle place unseeded particles on a phyllotaxis spiral.
const initialRadius = 10

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Particle is the simulated body of one visible node.
type Particle struct {
	ID     string
	X, Y   float64
	VX, VY float64

	// FX and FY fix the respective axis when set.
	FX, FY *float64

	index int
}

type link struct {
	source, target *Particle
	strength       float64
	bias           float64
}

// Simulation is a velocity Verlet force simulation over the visible nodes.
// It is not safe for concurrent use; Engine serializes access.
type Simulation struct {
	cfg Config

	particles []*Particle
	byID      map[string]*Particle
	links     []link

	alpha       float64
	alphaTarget float64

	rng    *rand.Rand
	seeded int
}

// NewSimulation creates an empty simulation at full heat.
func NewSimulation(cfg Config) *Simulation {
	cfg = cfg.withDefaults()
	return &Simulation{
		cfg:   cfg,
		byID:  map[string]*Particle{},
		alpha: 1,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SetGraph re-seeds the particle set from nodes and edges. Particles whose id
// survives keep their position and velocity; new particles start next to an
// already placed neighbour or on the spiral around the viewport center.
// Edges referencing unknown ids are ignored.
func (s *Simulation) SetGraph(nodes []graph.Node, edges []graph.Edge) {
	prev := s.byID
	s.byID = make(map[string]*Particle, len(nodes))
	s.particles = make([]*Particle, 0, len(nodes))

	var fresh []*Particle
	for _, n := range nodes {
		if _, dup := s.byID[n.ID]; dup {
			continue
		}
		p, ok := prev[n.ID]
		if !ok {
			p = &Particle{ID: n.ID}
			fresh = append(fresh, p)
		}
		p.index = len(s.particles)
		s.particles = append(s.particles, p)
		s.byID[n.ID] = p
		s.pin(p, n.FX, n.FY)
	}

	s.links = s.links[:0]
	count := make(map[*Particle]int, len(s.particles))
	for _, e := range edges {
		src, dst := s.byID[e.Source], s.byID[e.Target]
		if src == nil || dst == nil {
			continue
		}
		s.links = append(s.links, link{source: src, target: dst})
		count[src]++
		count[dst]++
	}
	for i := range s.links {
		l := &s.links[i]
		cs, ct := float64(count[l.source]), float64(count[l.target])
		l.strength = 1 / math.Min(cs, ct)
		l.bias = cs / (cs + ct)
	}

	for _, p := range fresh {
		s.place(p, prev)
	}
}

// place positions a new particle. Pinned axes are already set.
func (s *Simulation) place(p *Particle, prev map[string]*Particle) {
	origin := s.cfg.Center()
	for _, l := range s.links {
		var other *Particle
		switch p {
		case l.source:
			other = l.target
		case l.target:
			other = l.source
		}
		if other != nil && prev[other.ID] == other {
			origin = Point{X: other.X, Y: other.Y}
			break
		}
	}

	i := float64(s.seeded)
	s.seeded++
	r := initialRadius * math.Sqrt(0.5+i)
	a := i * initialAngle
	if p.FX == nil {
		p.X = origin.X + r*math.Cos(a)
	}
	if p.FY == nil {
		p.Y = origin.Y + r*math.Sin(a)
	}
}

func (s *Simulation) pin(p *Particle, fx, fy *float64) {
	p.FX, p.FY = nil, nil
	if fx != nil {
		v := *fx
		p.FX = &v
		p.X, p.VX = v, 0
	}
	if fy != nil {
		v := *fy
		p.FY = &v
		p.Y, p.VY = v, 0
	}
}

// Pin fixes the axes of one particle. Nil releases an axis.
func (s *Simulation) Pin(id string, fx, fy *float64) bool {
	p, ok := s.byID[id]
	if !ok {
		return false
	}
	s.pin(p, fx, fy)
	return true
}

// Step advances the simulation by one tick and reports whether it is still hot.
func (s *Simulation) Step() bool {
	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyPosition()
	s.applyCollide()

	decay := 1 - s.cfg.VelocityDecay
	for _, p := range s.particles {
		if p.FX == nil {
			p.VX *= decay
			p.X += p.VX
		} else {
			p.X, p.VX = *p.FX, 0
		}
		if p.FY == nil {
			p.VY *= decay
			p.Y += p.VY
		} else {
			p.Y, p.VY = *p.FY, 0
		}
	}
	return s.Active()
}

// Active reports whether alpha is still above alphaMin.
func (s *Simulation) Active() bool {
	return s.alpha >= s.cfg.AlphaMin
}

// Alpha returns the current heat.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the heat the simulation converges to.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the heat the simulation converges to.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.alphaTarget = target
}

// Reheat restores full heat.
func (s *Simulation) Reheat() {
	s.alpha = 1
}

// Len returns the number of particles.
func (s *Simulation) Len() int { return len(s.particles) }

// Position returns the position of the particle with the given id.
func (s *Simulation) Position(id string) (Point, bool) {
	p, ok := s.byID[id]
	if !ok {
		return Point{}, false
	}
	return Point{X: p.X, Y: p.Y}, true
}

// Positions returns a copy of all particle positions keyed by node id.
func (s *Simulation) Positions() map[string]Point {
	out := make(map[string]Point, len(s.particles))
	for _, p := range s.particles {
		out[p.ID] = Point{X: p.X, Y: p.Y}
	}
	return out
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
