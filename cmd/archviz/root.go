package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/smallnest/archviz/internal/ui"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "archviz",
		Short: "archviz: explore system architectures as graphs",
		Long: ui.Brand.Sprint("archviz") + " builds an architecture graph for a system name, lets you expand\n" +
			"components, pin and lay them out, and exports the result.\n" +
			ui.Subtle.Sprint("The session is saved after every change and restored on the next run."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("archviz {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/archviz/config.toml)")
	pf.StringVar(&flags.key, "key", "", "session key in the storage backend")
	pf.StringVar(&flags.storage, "storage", "", "storage backend: memory, file, redis, sqlite or postgres")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error or off")

	root.AddCommand(
		buildCmd(flags),
		expandCmd(flags),
		showCmd(flags),
		historyCmd(flags),
		restoreCmd(flags),
		exportCmd(flags),
		layoutCmd(flags),
		resetCmd(flags),
		statusCmd(flags),
		configCmd(flags),
	)
	return root
}

// withSession opens a session for the duration of fn and closes it afterwards,
// reporting the first error.
func withSession(ctx context.Context, flags *globalFlags, fn func(*session) error) (err error) {
	s, err := openSession(ctx, flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return fn(s)
}
