package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/internal/ui"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the service health and the stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), flags, func(s *session) error {
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "%s %s\n", ui.Brand.Sprint("service"), s.client.BaseURL())
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				stats, err := s.client.Stats(ctx)
				if err != nil {
					fmt.Fprintf(out, "  %s unreachable: %v\n", ui.StatusIcon(false), err)
				} else {
					fmt.Fprintf(out, "  %s %s\n", ui.StatusIcon(true), stats.Status)
					if len(stats.LLMUsage) > 0 {
						var pretty bytes.Buffer
						if json.Indent(&pretty, stats.LLMUsage, "  ", "  ") == nil {
							fmt.Fprintf(out, "  usage: %s\n", pretty.String())
						}
					}
				}

				fmt.Fprintf(out, "%s %s\n", ui.Brand.Sprint("storage"), s.cfg.Storage.Backend)
				keys, err := s.backend.List(ctx)
				if err != nil {
					fmt.Fprintf(out, "  %s %v\n", ui.StatusIcon(false), err)
				}
				for _, k := range keys {
					marker := " "
					if k == s.key {
						marker = "*"
					}
					fmt.Fprintf(out, "  %s %s\n", marker, k)
				}

				fmt.Fprintf(out, "%s ", ui.Brand.Sprint("session"))
				if s.store.System() == "" {
					fmt.Fprintln(out, ui.Subtle.Sprint("empty"))
				} else {
					fmt.Fprintf(out, "%s: %d components, %d relations, %d snapshots\n",
						s.store.System(), len(s.store.Nodes()), len(s.store.Edges()), len(s.store.History()))
				}
				return nil
			})
		},
	}
}
