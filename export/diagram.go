package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smallnest/archviz/graph"
)

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// Mermaid generates a Mermaid flowchart of the graph. Node ids are replaced by
// positional identifiers so arbitrary ids stay valid; edges with an unknown
// endpoint are skipped.
func Mermaid(nodes []graph.Node, edges []graph.Edge, opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	ids := diagramIDs(nodes)
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[n.ID], mermaidText(n.Label)))
	}

	for _, e := range edges {
		from, ok1 := ids[e.Source]
		to, ok2 := ids[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		if e.Relation != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", from, mermaidText(e.Relation), to))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		}
	}

	// Style nodes by category
	for _, n := range nodes {
		sb.WriteString(fmt.Sprintf("    style %s fill:%s,color:#fff\n", ids[n.ID], n.Type.Color()))
	}

	return sb.String()
}

// DOT generates a DOT (Graphviz) representation of the graph
func DOT(system string, nodes []graph.Node, edges []graph.Edge) string {
	var sb strings.Builder

	name := system
	if name == "" {
		name = "G"
	}
	sb.WriteString(fmt.Sprintf("digraph %s {\n", strconv.Quote(name)))
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=circle, style=filled, fontcolor=white];\n")

	for _, n := range nodes {
		attrs := fmt.Sprintf("label=%s, fillcolor=%q, tooltip=%s",
			strconv.Quote(n.Label), n.Type.Color(), strconv.Quote(string(n.Type)))
		if n.Expandable {
			attrs += ", peripheries=2"
		}
		sb.WriteString(fmt.Sprintf("    %s [%s];\n", strconv.Quote(n.ID), attrs))
	}

	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    %s -> %s", strconv.Quote(e.Source), strconv.Quote(e.Target)))
		if e.Relation != "" {
			sb.WriteString(fmt.Sprintf(" [label=%s]", strconv.Quote(e.Relation)))
		}
		sb.WriteString(";\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ASCII generates a tree of the graph rooted at the nodes without incoming
// edges (or the first node when every node has one). Nodes reached twice are
// marked instead of being expanded again.
func ASCII(system string, nodes []graph.Node, edges []graph.Edge) string {
	if len(nodes) == 0 {
		return "No nodes\n"
	}

	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	out := make(map[string][]graph.Edge)
	incoming := make(map[string]bool)
	for _, e := range edges {
		if _, ok := byID[e.Target]; !ok {
			continue
		}
		if _, ok := byID[e.Source]; !ok {
			continue
		}
		out[e.Source] = append(out[e.Source], e)
		incoming[e.Target] = true
	}

	var roots []string
	for _, n := range nodes {
		if !incoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		roots = []string{nodes[0].ID}
	}

	var sb strings.Builder
	if system != "" {
		sb.WriteString(system + "\n")
	}
	visited := make(map[string]bool)
	for i, id := range roots {
		drawASCIINode(byID, out, id, "", "", i == len(roots)-1, visited, &sb)
	}
	// Nodes only reachable through a cycle that no root enters
	for _, n := range nodes {
		if !visited[n.ID] {
			drawASCIINode(byID, out, n.ID, "", "", true, visited, &sb)
		}
	}
	return sb.String()
}

// drawASCIINode recursively draws ASCII representation of nodes
func drawASCIINode(byID map[string]graph.Node, out map[string][]graph.Edge, id, relation, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	n := byID[id]
	line := fmt.Sprintf("%s%s %s [%s]", prefix, connector, n.Label, n.Type)
	if relation != "" {
		line = fmt.Sprintf("%s%s (%s) %s [%s]", prefix, connector, relation, n.Label, n.Type)
	}

	if visited[id] {
		sb.WriteString(line + " (seen)\n")
		return
	}
	visited[id] = true
	sb.WriteString(line + "\n")

	children := out[id]
	for i, e := range children {
		drawASCIINode(byID, out, e.Target, e.Relation, nextPrefix, i == len(children)-1, visited, sb)
	}
}

func diagramIDs(nodes []graph.Node) map[string]string {
	ids := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, ok := ids[n.ID]; !ok {
			ids[n.ID] = fmt.Sprintf("n%d", len(ids))
		}
	}
	return ids
}

func mermaidText(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ").Replace(s)
}
