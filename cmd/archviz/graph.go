package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/interaction"
	"github.com/smallnest/archviz/internal/ui"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build <system name>",
		Short: "Build the architecture graph of a system",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()
				if err := s.ctrl.Build(cmd.Context(), name, !noCache); err != nil {
					if errors.Is(err, interaction.ErrEmptySystemName) {
						return err
					}
					return fmt.Errorf("build %q: %s", name, s.failure(err))
				}
				fmt.Fprintf(out, "%s %s: %d components, %d relations (version %d)\n",
					ui.StatusIcon(true), ui.Brand.Sprint(s.store.System()),
					len(s.store.Nodes()), len(s.store.Edges()), s.store.Version())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always ask the service to infer a fresh graph")
	return cmd
}

func expandCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <node id>...",
		Short: "Expand components into their sub-components",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()
				var failed int
				for _, id := range args {
					s.ctrl.DismissError()
					before, beforeEdges := len(s.store.Nodes()), len(s.store.Edges())
					err := s.ctrl.DoubleClick(cmd.Context(), id)
					switch {
					case errors.Is(err, interaction.ErrNotExpandable):
						fmt.Fprintf(out, "%s %s is not an expandable component\n", ui.StatusIcon(false), id)
						failed++
					case err != nil:
						fmt.Fprintf(out, "%s %s: %s\n", ui.StatusIcon(false), id, s.failure(err))
						failed++
					default:
						fmt.Fprintf(out, "%s %s: +%d components, +%d relations\n", ui.StatusIcon(true), id,
							len(s.store.Nodes())-before, len(s.store.Edges())-beforeEdges)
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d expansions failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func resetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the current graph (history is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				s.ctrl.Reset()
				fmt.Fprintf(cmd.OutOrStdout(), "%s graph cleared, %d history entries kept\n",
					ui.StatusIcon(true), len(s.store.History()))
				return nil
			})
		},
	}
}

func historyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()
				history := s.store.History()
				if len(history) == 0 {
					fmt.Fprintln(out, "No snapshots yet. Run `archviz build <system>` first.")
					return nil
				}

				rows := make([][]string, 0, len(history))
				for i, h := range history {
					rows = append(rows, []string{
						fmt.Sprint(i + 1),
						h.ID[:min(8, len(h.ID))],
						h.Timestamp.Local().Format("Jan 02 15:04:05"),
						h.Action,
						h.System,
						fmt.Sprintf("%d/%d", len(h.Nodes), len(h.Edges)),
					})
				}
				fmt.Fprintln(out, ui.Table([]string{"#", "ID", "Time", "Action", "System", "Nodes/Edges"}, rows))
				return nil
			})
		},
	}
}

func restoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <history id|#>",
		Short: "Make a snapshot the current graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				item, ok := resolveHistory(s.store.History(), args[0])
				if !ok || !s.ctrl.Restore(item.ID) {
					return fmt.Errorf("no snapshot matches %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s restored %q: %s (%d components)\n",
					ui.StatusIcon(true), item.Action, item.System, len(item.Nodes))
				return nil
			})
		},
	}
}
