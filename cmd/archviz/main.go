// Command archviz builds, explores and exports architecture graphs inferred by
// the archviz inference service.
package main

import (
	"fmt"
	"os"

	"github.com/smallnest/archviz/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Sprintf("archviz: %v", err))
		os.Exit(1)
	}
}
