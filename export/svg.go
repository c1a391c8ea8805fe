package export

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/layout"
)

// Scene constants shared by the SVG and PNG renderers.
const (
	NodeRadius      = 20.0
	BadgeRadius     = 6.0
	LabelOffset     = 35.0
	EdgeLabelOffset = 10.0

	Background     = "#0f172a"
	EdgeColor      = "#6366f1"
	ArrowColor     = "#818cf8"
	EdgeLabelColor = "#94a3b8"
	LabelColor     = "#f8fafc"
	SelectedColor  = "#ffffff"
	BadgeColor     = "#8b5cf6"
)

// SVGOptions configures SVG rendering.
type SVGOptions struct {
	// Background fills the canvas when set.
	Background string

	// Standalone adds the XML declaration.
	Standalone bool
}

// DefaultSVGOptions returns a standalone document on the default background.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Background: Background, Standalone: true}
}

// SVG renders f as a vector image. Nodes and edges are drawn in simulation
// space inside a group carrying the scene transform.
func SVG(w io.Writer, f layout.Frame, opts SVGOptions) error {
	bw := bufio.NewWriter(w)
	p := func(format string, a ...any) {
		fmt.Fprintf(bw, format, a...)
	}

	if opts.Standalone {
		p("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}
	p(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(f.Width), num(f.Height), num(f.Width), num(f.Height))
	if f.System != "" {
		p("<title>%s</title>\n", esc(f.System))
	}
	p("<style>.glow-effect{stroke:#fff;stroke-width:2px;filter:drop-shadow(0 0 8px rgba(255,255,255,0.8))}</style>\n")
	p("<defs><marker id=\"arrowhead\" viewBox=\"-0 -5 10 10\" refX=\"28\" refY=\"0\" orient=\"auto\" markerWidth=\"8\" markerHeight=\"8\">")
	p("<path d=\"M 0,-5 L 10,0 L 0,5\" fill=\"%s\" stroke=\"none\"/></marker></defs>\n", ArrowColor)
	if opts.Background != "" {
		p("<rect width=\"100%%\" height=\"100%%\" fill=\"%s\"/>\n", esc(opts.Background))
	}

	p("<g class=\"main-container\" transform=\"%s\">\n", f.Transform)

	p("<g class=\"links\">\n")
	for _, e := range f.Edges {
		p("<path class=\"edge\" data-id=\"%s\" d=\"%s\" stroke=\"%s\" stroke-width=\"2.5\" stroke-opacity=\"0.6\" fill=\"none\" marker-end=\"url(#arrowhead)\"/>\n",
			esc(e.ID), ArcPath(e.From, e.To), EdgeColor)
	}
	p("</g>\n")

	p("<g class=\"edge-labels\">\n")
	for _, e := range f.Edges {
		mid := edgeLabelPoint(e)
		p("<text class=\"edge-label\" x=\"%s\" y=\"%s\" font-size=\"11px\" font-weight=\"500\" fill=\"%s\" text-anchor=\"middle\">%s</text>\n",
			num(mid.X), num(mid.Y), EdgeLabelColor, esc(e.Relation))
	}
	p("</g>\n")

	p("<g class=\"nodes\">\n")
	for _, n := range f.Nodes {
		p("<g class=\"node\" data-id=\"%s\" transform=\"translate(%s,%s)\">\n", esc(n.ID), num(n.Position.X), num(n.Position.Y))

		stroke := "none"
		if n.Selected {
			stroke = SelectedColor
		}
		class := ""
		if n.Highlighted {
			class = ` class="glow-effect"`
		}
		p("<circle r=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"3\"%s/>\n", num(NodeRadius), n.Type.Color(), stroke, class)

		if n.Expandable {
			p("<circle class=\"plus-bg\" cx=\"12\" cy=\"-12\" r=\"%s\" fill=\"%s\"/>\n", num(BadgeRadius), BadgeColor)
			p("<text x=\"12\" y=\"-9\" text-anchor=\"middle\" font-size=\"10px\" font-weight=\"bold\" fill=\"white\">+</text>\n")
		}
		p("<text dy=\"%s\" text-anchor=\"middle\" fill=\"%s\" font-size=\"12px\" font-weight=\"500\">%s</text>\n",
			num(LabelOffset), LabelColor, esc(n.Label))
		p("<title>%s</title>\n", esc(Tooltip(n.Node)))
		p("</g>\n")
	}
	p("</g>\n")

	p("</g>\n</svg>\n")
	return bw.Flush()
}

// ArcPath returns the path of a curved edge: a circular arc whose radius equals
// the distance between the endpoints.
func ArcPath(from, to layout.Point) string {
	dr := math.Hypot(to.X-from.X, to.Y-from.Y)
	return fmt.Sprintf("M%s,%sA%s,%s 0 0,1 %s,%s",
		num(from.X), num(from.Y), num(dr), num(dr), num(to.X), num(to.Y))
}

// ArcPoints samples the arc drawn by ArcPath with segments+1 points from from to to.
func ArcPoints(from, to layout.Point, segments int) []layout.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	d := math.Hypot(dx, dy)
	if d == 0 || segments < 1 {
		return []layout.Point{from, to}
	}

	// Chord equals radius, so the arc spans 60 degrees around a center on the
	// clockwise side of the chord.
	h := d * math.Sqrt(3) / 2
	cx := (from.X+to.X)/2 - dy/d*h
	cy := (from.Y+to.Y)/2 + dx/d*h
	a0 := math.Atan2(from.Y-cy, from.X-cx)

	pts := make([]layout.Point, segments+1)
	for i := 0; i <= segments; i++ {
		a := a0 + math.Pi/3*float64(i)/float64(segments)
		pts[i] = layout.Point{X: cx + d*math.Cos(a), Y: cy + d*math.Sin(a)}
	}
	pts[segments] = to
	return pts
}

func edgeLabelPoint(e layout.FrameEdge) layout.Point {
	return layout.Point{X: (e.From.X + e.To.X) / 2, Y: (e.From.Y+e.To.Y)/2 - EdgeLabelOffset}
}

// Tooltip is the hover text of a node: label, category and description on separate lines.
func Tooltip(n graph.Node) string {
	return fmt.Sprintf("%s\n%s\n%s", n.Label, n.Type, n.Description)
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func esc(s string) string {
	return html.EscapeString(s)
}
