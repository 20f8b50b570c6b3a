package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/sfconfig"
)

func workersCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:   "workers",
		Short: "Inspect discovered workers",
	}
	parent.AddCommand(workersListCmd())
	return parent
}

func workersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enabled workers, their fan-out strategy, and invocation sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := sfconfig.NewManager(configDir)
			if err != nil {
				return err
			}
			doc := manager.Get()

			reg, err := registry.Discover(doc, func() map[string]struct{} { return map[string]struct{}{} }, logging.Nop())
			if err != nil {
				return err
			}

			for _, name := range reg.All() {
				_, cfg, _ := reg.Get(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-16s sources=%v prefix=%s\n", name, cfg.FanOutStrategy, cfg.InvocationSources, cfg.TemplatePrefix)
			}
			return nil
		},
	}
}
