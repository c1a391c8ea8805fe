package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/smallnest/archviz/layout"
)

// PNGOptions configures raster rendering.
type PNGOptions struct {
	// Scale multiplies the frame size; 2 renders a high-density image. Defaults to 1.
	Scale float64

	// Width resamples the rendered image to this many pixels wide, keeping the
	// aspect ratio. Zero keeps the rendered size.
	Width int

	// Background fills the canvas. Defaults to Background.
	Background string

	// Labels draws node and edge labels.
	Labels bool
}

// DefaultPNGOptions returns a labelled image at scale 1.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Scale: 1, Background: Background, Labels: true}
}

// PNG renders f as a raster image.
func PNG(w io.Writer, f layout.Frame, opts PNGOptions) error {
	img, err := Rasterize(f, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Rasterize draws f into an RGBA image.
func Rasterize(f layout.Frame, opts PNGOptions) (*image.RGBA, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == "" {
		opts.Background = Background
	}
	bg, err := ParseHexColor(opts.Background)
	if err != nil {
		return nil, err
	}

	width := int(math.Ceil(f.Width * opts.Scale))
	height := int(math.Ceil(f.Height * opts.Scale))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %vx%v", f.Width, f.Height)
	}

	r := &rasterizer{
		dst: image.NewRGBA(image.Rect(0, 0, width, height)),
		t:   layout.Transform{X: f.Transform.X * opts.Scale, Y: f.Transform.Y * opts.Scale, K: f.Transform.K * opts.Scale},
	}
	draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	r.scene(f, opts.Labels)

	if opts.Width > 0 && opts.Width != width {
		h := int(math.Round(float64(height) * float64(opts.Width) / float64(width)))
		scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, max(h, 1)))
		xdraw.BiLinear.Scale(scaled, scaled.Bounds(), r.dst, r.dst.Bounds(), xdraw.Over, nil)
		return scaled, nil
	}
	return r.dst, nil
}

type rasterizer struct {
	dst *image.RGBA
	t   layout.Transform
}

func (r *rasterizer) scene(f layout.Frame, labels bool) {
	edgeColor := withAlpha(mustHex(EdgeColor), 0.6)
	arrowColor := mustHex(ArrowColor)
	for _, e := range f.Edges {
		pts := ArcPoints(e.From, e.To, 16)
		for i := range pts {
			pts[i] = r.t.Apply(pts[i])
		}
		r.polyline(pts, 2.5*r.t.K, edgeColor)
		r.arrow(pts, e.To, arrowColor)
	}

	for _, n := range f.Nodes {
		c := r.t.Apply(n.Position)
		radius := NodeRadius * r.t.K
		if n.Selected {
			r.circle(c, radius+1.5*r.t.K, mustHex(SelectedColor))
		} else if n.Highlighted {
			r.circle(c, radius+1*r.t.K, mustHex(SelectedColor))
		}
		r.circle(c, radius, mustHex(n.Type.Color()))
		if n.Expandable {
			badge := layout.Point{X: c.X + 12*r.t.K, Y: c.Y - 12*r.t.K}
			r.circle(badge, BadgeRadius*r.t.K, mustHex(BadgeColor))
			r.text(badge.X, badge.Y+4, "+", color.White)
		}
	}

	if !labels {
		return
	}
	for _, e := range f.Edges {
		p := r.t.Apply(edgeLabelPoint(e))
		r.text(p.X, p.Y, e.Relation, mustHex(EdgeLabelColor))
	}
	for _, n := range f.Nodes {
		c := r.t.Apply(n.Position)
		r.text(c.X, c.Y+LabelOffset*r.t.K, n.Label, mustHex(LabelColor))
	}
}

func (r *rasterizer) fill(c color.Color, path func(z *vector.Rasterizer)) {
	b := r.dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	path(z)
	z.Draw(r.dst, b, image.NewUniform(c), image.Point{})
}

func (r *rasterizer) circle(c layout.Point, radius float64, col color.Color) {
	const steps = 48
	r.fill(col, func(z *vector.Rasterizer) {
		z.MoveTo(float32(c.X+radius), float32(c.Y))
		for i := 1; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / steps
			z.LineTo(float32(c.X+radius*math.Cos(a)), float32(c.Y+radius*math.Sin(a)))
		}
		z.ClosePath()
	})
}

func (r *rasterizer) polyline(pts []layout.Point, width float64, col color.Color) {
	half := math.Max(width, 1) / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		nx, ny := -dy/d*half, dx/d*half
		r.fill(col, func(z *vector.Rasterizer) {
			z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
			z.LineTo(float32(b.X+nx), float32(b.Y+ny))
			z.LineTo(float32(b.X-nx), float32(b.Y-ny))
			z.LineTo(float32(a.X-nx), float32(a.Y-ny))
			z.ClosePath()
		})
	}
}

// arrow draws the arrow head just outside the target circle, pointing along
// the last arc segment.
func (r *rasterizer) arrow(pts []layout.Point, target layout.Point, col color.Color) {
	if len(pts) < 2 {
		return
	}
	a, b := pts[len(pts)-2], pts[len(pts)-1]
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return
	}
	ux, uy := dx/d, dy/d
	tip := r.t.Apply(target)
	back := (NodeRadius + 2) * r.t.K
	size := 8 * r.t.K
	tx, ty := tip.X-ux*back, tip.Y-uy*back
	bx, by := tx-ux*size, ty-uy*size
	nx, ny := -uy*size/2, ux*size/2

	r.fill(col, func(z *vector.Rasterizer) {
		z.MoveTo(float32(tx), float32(ty))
		z.LineTo(float32(bx+nx), float32(by+ny))
		z.LineTo(float32(bx-nx), float32(by-ny))
		z.ClosePath()
	})
}

// text draws s centered horizontally on x with its baseline at y.
func (r *rasterizer) text(x, y float64, s string, col color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  r.dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	adv := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(x*64) - adv/2,
		Y: fixed.Int26_6(y * 64),
	}
	d.DrawString(s)
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}

func withAlpha(c color.RGBA, a float64) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(float64(v) * a) }
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: scale(c.A)}
}
