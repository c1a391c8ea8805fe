package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/export"
	"github.com/smallnest/archviz/graph"
	"github.com/smallnest/archviz/internal/ui"
)

// exportFormats maps a format name to its file extension.
var exportFormats = map[string]string{
	"json":    "json",
	"yaml":    "yaml",
	"svg":     "svg",
	"png":     "png",
	"html":    "html",
	"dot":     "dot",
	"mermaid": "mmd",
	"ascii":   "txt",
}

type exportOptions struct {
	format    string
	output    string
	ticks     int
	scale     float64
	width     int
	direction string
	view      viewFlags
}

func exportCmd(flags *globalFlags) *cobra.Command {
	opts := exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current graph as a document, an image or a diagram",
		Long: "Export the current graph.\n\n" +
			"json and yaml write the whole canonical graph. The other formats draw the\n" +
			"visible subgraph after the layout settled, honoring --type, --depth,\n" +
			"--expansion and --search.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, ok := exportFormats[opts.format]
			if !ok {
				return fmt.Errorf("unknown format %q", opts.format)
			}
			return withSession(cmd.Context(), flags, func(s *session) error {
				if err := opts.view.apply(s); err != nil {
					return err
				}

				var buf bytes.Buffer
				if err := render(&buf, s, opts); err != nil {
					return err
				}

				if opts.output == "-" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				path := opts.output
				if path == "" {
					path = export.Filename(s.store.System(), ext)
				}
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s (%d bytes)\n", ui.StatusIcon(true), path, buf.Len())
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "json", "json, yaml, svg, png, html, dot, mermaid or ascii")
	f.StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default archviz-<system>.<ext>)")
	f.IntVar(&opts.ticks, "ticks", 600, "maximum layout ticks before drawing")
	f.Float64Var(&opts.scale, "scale", 1, "png pixel ratio")
	f.IntVar(&opts.width, "width", 0, "png width in pixels, resampled")
	f.StringVar(&opts.direction, "direction", "LR", "mermaid flowchart direction")
	opts.view.register(cmd)
	return cmd
}

func render(w io.Writer, s *session, opts exportOptions) error {
	now := time.Now()
	system := s.store.System()

	switch opts.format {
	case "json":
		return export.JSON(w, system, s.store.Nodes(), s.store.Edges(), now)
	case "yaml":
		return export.YAML(w, system, s.store.Nodes(), s.store.Edges(), now)
	}

	view := graph.NewViewCache(s.store).View()
	switch opts.format {
	case "dot":
		_, err := io.WriteString(w, export.DOT(system, view.Nodes, view.Edges))
		return err
	case "mermaid":
		_, err := io.WriteString(w, export.Mermaid(view.Nodes, view.Edges, export.MermaidOptions{Direction: strings.ToUpper(opts.direction)}))
		return err
	case "ascii":
		_, err := io.WriteString(w, export.ASCII(system, view.Nodes, view.Edges))
		return err
	}

	ticks := s.settle(opts.ticks)
	s.logger.Debug("layout ran %d ticks, alpha %.4f", ticks, s.engine.Alpha())
	frame := s.engine.Frame()

	switch opts.format {
	case "svg":
		return export.SVG(w, frame, export.DefaultSVGOptions())
	case "png":
		po := export.DefaultPNGOptions()
		po.Scale = opts.scale
		po.Width = opts.width
		return export.PNG(w, frame, po)
	case "html":
		return export.HTML(w, frame, view.Nodes, view.Edges, export.HTMLOptions{Now: now})
	}
	return fmt.Errorf("unknown format %q", opts.format)
}
