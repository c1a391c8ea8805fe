package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/internal/ui"
	"github.com/smallnest/archviz/layout"
)

// parsePin parses id=x,y. Either coordinate may be "-" to leave that axis free.
func parsePin(s string) (id string, x, y *float64, err error) {
	id, coords, ok := strings.Cut(s, "=")
	if !ok || id == "" {
		return "", nil, nil, fmt.Errorf("pin %q: want id=x,y", s)
	}
	xs, ys, ok := strings.Cut(coords, ",")
	if !ok {
		return "", nil, nil, fmt.Errorf("pin %q: want id=x,y", s)
	}
	axis := func(v string) (*float64, error) {
		v = strings.TrimSpace(v)
		if v == "-" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", s, err)
		}
		return &f, nil
	}
	if x, err = axis(xs); err != nil {
		return "", nil, nil, err
	}
	if y, err = axis(ys); err != nil {
		return "", nil, nil, err
	}
	if x == nil && y == nil {
		return "", nil, nil, fmt.Errorf("pin %q: at least one axis is required", s)
	}
	return id, x, y, nil
}

func layoutCmd(flags *globalFlags) *cobra.Command {
	var pins, unpins []string
	var rebuild bool
	var ticks int

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Pin, release and lay out components",
		Long: "Run the force layout and print the resulting positions.\n\n" +
			"Pins are saved with the session and hold a component in place\n" +
			"(--pin gw=100,200, or --pin gw=100,- to pin one axis).\n" +
			"--rebuild releases every visible pin first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()
				if rebuild {
					s.ctrl.RebuildLayout()
				}
				for _, id := range unpins {
					if _, ok := s.store.Node(id); !ok {
						return fmt.Errorf("unknown component %q", id)
					}
					s.store.Unpin(id)
				}
				for _, p := range pins {
					id, x, y, err := parsePin(p)
					if err != nil {
						return err
					}
					if _, ok := s.store.Node(id); !ok {
						return fmt.Errorf("unknown component %q", id)
					}
					s.store.PinNode(id, x, y)
				}

				n := s.settle(ticks)
				pos := s.engine.Positions()
				if len(pos) == 0 {
					fmt.Fprintln(out, "No visible components.")
					return nil
				}

				ids := make([]string, 0, len(pos))
				for id := range pos {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				rows := make([][]string, 0, len(ids))
				for _, id := range ids {
					node, _ := s.store.Node(id)
					pin := ""
					if node.Pinned() {
						pin = pinText(node)
					}
					rows = append(rows, []string{id, ui.Truncate(node.Label, 28), coord(pos[id]), pin})
				}
				fmt.Fprintln(out, ui.Table([]string{"ID", "Label", "Position", "Pin"}, rows))

				state := ui.Good.Sprint("settled")
				if s.engine.Active() {
					state = ui.Warn.Sprint("still moving")
				}
				fmt.Fprintf(out, "%s after %d ticks (alpha %.4f)\n", state, n, s.engine.Alpha())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&pins, "pin", nil, "pin a component: id=x,y (repeatable)")
	f.StringArrayVar(&unpins, "unpin", nil, "release a pinned component (repeatable)")
	f.BoolVar(&rebuild, "rebuild", false, "release all visible pins and re-run the layout")
	f.IntVar(&ticks, "ticks", 600, "maximum layout ticks")
	return cmd
}

func coord(p layout.Point) string {
	return fmt.Sprintf("%.1f, %.1f", p.X, p.Y)
}
