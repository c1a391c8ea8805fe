package main

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/internal/ui"
)

// viewFlags select the visible subgraph; they are not persisted.
type viewFlags struct {
	types     []string
	depth     int
	expansion string
	search    string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&v.types, "type", nil, "only show these categories (repeatable)")
	f.IntVar(&v.depth, "depth", graph.DefaultMaxDepth, "maximum component level")
	f.StringVar(&v.expansion, "expansion", string(graph.ExpansionAll), "all, expandable or leaf")
	f.StringVar(&v.search, "search", "", "highlight components whose label contains this text")
}

// apply pushes the flags into the store filters and search term.
func (v *viewFlags) apply(s *session) error {
	if len(v.types) > 0 {
		types := make([]graph.NodeType, 0, len(v.types))
		for _, t := range v.types {
			nt := graph.NodeType(strings.ToLower(strings.TrimSpace(t)))
			if !nt.Valid() {
				return fmt.Errorf("unknown category %q", t)
			}
			types = append(types, nt)
		}
		s.ctrl.SetFilters(graph.WithTypes(types...))
	}

	switch mode := graph.ExpansionMode(v.expansion); mode {
	case graph.ExpansionAll, graph.ExpansionExpandable, graph.ExpansionLeaf:
		s.ctrl.SetFilters(graph.WithExpansion(mode))
	default:
		return fmt.Errorf("unknown expansion mode %q", v.expansion)
	}

	if v.depth < 0 {
		return fmt.Errorf("depth must not be negative")
	}
	s.ctrl.SetFilters(graph.WithMaxDepth(v.depth))
	s.ctrl.Search(v.search)
	return nil
}

// matchNode reports whether the id or the label of n matches the glob pattern.
func matchNode(pattern string, n graph.Node) (bool, error) {
	if pattern == "" {
		return true, nil
	}
	for _, s := range []string{n.ID, n.Label} {
		ok, err := doublestar.Match(pattern, s)
		if err != nil {
			return false, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func showCmd(flags *globalFlags) *cobra.Command {
	var vf viewFlags
	var match string
	var edges bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the visible components of the current graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()
				if s.store.System() == "" {
					fmt.Fprintln(out, "No graph loaded. Run `archviz build <system>` first.")
					return nil
				}
				if err := vf.apply(s); err != nil {
					return err
				}

				view := graph.NewViewCache(s.store).View()
				rows := make([][]string, 0, len(view.Nodes))
				shown := make(map[string]bool, len(view.Nodes))
				for _, n := range view.Nodes {
					ok, err := matchNode(match, n)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					shown[n.ID] = true

					label := n.Label
					if view.Highlighted[n.ID] {
						label = ui.Warn.Sprint("★ " + label)
					}
					pin := ""
					if n.Pinned() {
						pin = ui.Info.Sprint(pinText(n))
					}
					expandable := ""
					if n.Expandable {
						expandable = "+"
					}
					rows = append(rows, []string{n.ID, label, ui.Category(n.Type), fmt.Sprint(n.Level), expandable, pin})
				}

				fmt.Fprintf(out, "%s %s (version %d)\n", ui.Brand.Sprint(s.store.System()),
					ui.Subtle.Sprintf("%d of %d components", len(rows), len(s.store.Nodes())), s.store.Version())
				if len(rows) == 0 {
					fmt.Fprintln(out, "Nothing matches the current filters.")
					return nil
				}
				fmt.Fprintln(out, ui.Table([]string{"ID", "Label", "Type", "Level", "Exp", "Pin"}, rows))

				if edges {
					var erows [][]string
					for _, e := range view.Edges {
						if shown[e.Source] || shown[e.Target] {
							erows = append(erows, []string{e.Source, e.Relation, e.Target})
						}
					}
					if len(erows) > 0 {
						fmt.Fprintln(out, ui.Table([]string{"From", "Relation", "To"}, erows))
					}
				}
				return nil
			})
		},
	}
	vf.register(cmd)
	cmd.Flags().StringVar(&match, "match", "", "only list components whose id or label matches this glob")
	cmd.Flags().BoolVar(&edges, "edges", false, "also list the relations")
	return cmd
}

func pinText(n graph.Node) string {
	axis := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.0f", *v)
	}
	return axis(n.FX) + "," + axis(n.FY)
}
