package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smallnest/archviz/graph"
)

// FormatVersion is the version field of exported documents.
const FormatVersion = 1

// Document is the exported form of the canonical graph.
type Document struct {
	System     string       `json:"system" yaml:"system"`
	Nodes      []graph.Node `json:"nodes" yaml:"nodes"`
	Edges      []graph.Edge `json:"edges" yaml:"edges"`
	Version    int          `json:"version" yaml:"version"`
	ExportedAt string       `json:"exportedAt" yaml:"exportedAt"`
}

// NewDocument builds the document exported at now. Nil slices become empty lists.
func NewDocument(system string, nodes []graph.Node, edges []graph.Edge, now time.Time) Document {
	if nodes == nil {
		nodes = []graph.Node{}
	}
	if edges == nil {
		edges = []graph.Edge{}
	}
	return Document{
		System:     system,
		Nodes:      nodes,
		Edges:      edges,
		Version:    FormatVersion,
		ExportedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// JSON writes the graph as a pretty-printed document with two-space indentation.
func JSON(w io.Writer, system string, nodes []graph.Node, edges []graph.Edge, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(system, nodes, edges, now)); err != nil {
		return fmt.Errorf("failed to encode json export: %w", err)
	}
	return nil
}

// YAML writes the same document as JSON in YAML form.
func YAML(w io.Writer, system string, nodes []graph.Node, edges []graph.Edge, now time.Time) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument(NewDocument(system, nodes, edges, now))); err != nil {
		return fmt.Errorf("failed to encode yaml export: %w", err)
	}
	return enc.Close()
}

// yamlNode mirrors graph.Node with yaml tags; pins are omitted when unset.
type yamlNode struct {
	ID          string   `yaml:"id"`
	Label       string   `yaml:"label"`
	Description string   `yaml:"description,omitempty"`
	Type        string   `yaml:"type"`
	Level       int      `yaml:"level"`
	Expandable  bool     `yaml:"expandable"`
	FX          *float64 `yaml:"fx,omitempty"`
	FY          *float64 `yaml:"fy,omitempty"`
}

type yamlEdge struct {
	ID       string `yaml:"id"`
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	Relation string `yaml:"relation"`
}

type yamlDoc struct {
	System     string     `yaml:"system"`
	Nodes      []yamlNode `yaml:"nodes"`
	Edges      []yamlEdge `yaml:"edges"`
	Version    int        `yaml:"version"`
	ExportedAt string     `yaml:"exportedAt"`
}

func yamlDocument(d Document) yamlDoc {
	out := yamlDoc{
		System:     d.System,
		Nodes:      make([]yamlNode, len(d.Nodes)),
		Edges:      make([]yamlEdge, len(d.Edges)),
		Version:    d.Version,
		ExportedAt: d.ExportedAt,
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = yamlNode{
			ID:          n.ID,
			Label:       n.Label,
			Description: n.Description,
			Type:        string(n.Type),
			Level:       n.Level,
			Expandable:  n.Expandable,
			FX:          n.FX,
			FY:          n.FY,
		}
	}
	for i, e := range d.Edges {
		out.Edges[i] = yamlEdge(e)
	}
	return out
}

// Filename returns archviz-<system>.<ext>, or archviz-graph.<ext> when no system is loaded.
func Filename(system, ext string) string {
	if strings.TrimSpace(system) == "" {
		system = "graph"
	}
	return fmt.Sprintf("archviz-%s.%s", system, strings.TrimPrefix(ext, "."))
}
