package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/resolver"
	"github.com/catherinevee/starfleet/internal/starbaseapp"
	"github.com/catherinevee/starfleet/internal/templates"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <worker> <template-path>",
		Short: "Dry-run fetch, validate, and resolve a template's targets without enqueuing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerName, templatePath := args[0], args[1]

			app, err := starbaseapp.New(cmd.Context(), configDir)
			if err != nil {
				return err
			}

			worker, _, ok := app.Registry.Get(workerName)
			if !ok {
				return fmt.Errorf("no enabled worker named %q", workerName)
			}

			fetched, err := templates.FetchTemplate(cmd.Context(), app.FanOutDeps.Store, app.FanOutDeps.TemplateBucket, templatePath)
			if err != nil {
				return err
			}

			payload, err := worker.ValidatePayload(fetched.Body)
			if err != nil {
				return err
			}

			switch worker.FanOutStrategy() {
			case registry.StrategySingle:
				fmt.Println("SINGLE strategy: template body is forwarded verbatim, no targets to resolve")
				return nil

			case registry.StrategyAccount:
				accountPayload, ok := payload.(*templates.AccountPayload)
				if !ok {
					return fmt.Errorf("validated payload is not an AccountPayload")
				}
				targets := resolver.ResolveAccounts(app.Index, accountPayload)
				printAccountTargets(targets)
				return nil

			case registry.StrategyAccountRegion:
				accountRegionPayload, ok := payload.(*templates.AccountRegionPayload)
				if !ok {
					return fmt.Errorf("validated payload is not an AccountRegionPayload")
				}
				targets := resolver.ResolveAccountRegions(app.Index, accountRegionPayload, app.Index.AllRegions(), app.FanOutDeps.ScopeToRegions, true)
				printAccountRegionTargets(targets)
				return nil

			default:
				return fmt.Errorf("worker %q declares unknown fan-out strategy %q", workerName, worker.FanOutStrategy())
			}
		},
	}
}

func printAccountTargets(targets map[string]struct{}) {
	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%d account target(s):\n", len(ids))
	for _, id := range ids {
		fmt.Println("  " + id)
	}
}

func printAccountRegionTargets(targets map[string]map[string]struct{}) {
	accountIDs := make([]string, 0, len(targets))
	for id := range targets {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	total := 0
	for _, regions := range targets {
		total += len(regions)
	}

	fmt.Printf("%d account/region target(s):\n", total)
	for _, id := range accountIDs {
		regions := make([]string, 0, len(targets[id]))
		for region := range targets[id] {
			regions = append(regions, region)
		}
		sort.Strings(regions)
		for _, region := range regions {
			fmt.Printf("  %s / %s\n", id, region)
		}
	}
}
