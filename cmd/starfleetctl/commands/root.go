// Package commands implements the starfleetctl command tree, a thin
// operator convenience layer over the tasking pipeline's own packages.
package commands

import (
	"github.com/spf13/cobra"
)

var configDir string

// Root builds the starfleetctl command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "starfleetctl",
		Short: "Operator CLI for the Starbase tasking pipeline",
	}

	root.PersistentFlags().StringVar(&configDir, "config", "config.d", "Configuration fragment directory")

	root.AddCommand(validateCmd())
	root.AddCommand(workersCmd())
	root.AddCommand(resolveCmd())

	return root
}
