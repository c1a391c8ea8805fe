package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/layout"
)

//go:embed templates/report.html
var templatesFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html"))

// HTMLOptions configures the HTML report.
type HTMLOptions struct {
	// Title defaults to the system name.
	Title string

	// Now stamps the report. Defaults to time.Now.
	Now time.Time
}

type reportNode struct {
	ID          string
	Label       string
	Type        graph.NodeType
	Color       template.CSS
	Level       int
	Expandable  bool
	Description template.HTML
	Relations   []string
}

type report struct {
	Title      string
	ExportedAt string
	EdgeCount  int
	Scene      template.HTML
	Nodes      []reportNode
}

// HTML writes a self-contained report: the rendered scene inline as SVG and one
// card per node of nodes. Descriptions are rendered from markdown and sanitized.
func HTML(w io.Writer, f layout.Frame, nodes []graph.Node, edges []graph.Edge, opts HTMLOptions) error {
	var scene bytes.Buffer
	if err := SVG(&scene, f, SVGOptions{Background: Background}); err != nil {
		return err
	}

	title := opts.Title
	if title == "" {
		title = f.System
	}
	if title == "" {
		title = "Architecture graph"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	labels := make(map[string]string, len(nodes))
	for _, n := range nodes {
		labels[n.ID] = n.Label
	}
	relations := make(map[string][]string)
	for _, e := range edges {
		target, ok := labels[e.Target]
		if !ok {
			continue
		}
		relations[e.Source] = append(relations[e.Source], fmt.Sprintf("%s → %s", e.Relation, target))
	}

	data := report{
		Title:      title,
		ExportedAt: now.UTC().Format(time.RFC3339),
		EdgeCount:  len(edges),
		Scene:      template.HTML(scene.String()), // #nosec G203 -- generated by SVG with escaped text
		Nodes:      make([]reportNode, 0, len(nodes)),
	}
	for _, n := range nodes {
		data.Nodes = append(data.Nodes, reportNode{
			ID:          n.ID,
			Label:       n.Label,
			Type:        n.Type,
			Color:       template.CSS(n.Type.Color()),
			Level:       n.Level,
			Expandable:  n.Expandable,
			Description: RenderMarkdown(n.Description),
			Relations:   relations[n.ID],
		})
	}

	if err := reportTemplate.ExecuteTemplate(w, "report", data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(md string) template.HTML {
	if md == "" {
		return ""
	}
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: htmlFlags})
	out := markdown.Render(doc, renderer)

	out = bluemonday.UGCPolicy().SanitizeBytes(out)
	return template.HTML(out) // #nosec G203
}
