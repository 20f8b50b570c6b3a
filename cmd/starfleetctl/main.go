// Command starfleetctl is the thin operator CLI over the core tasking
// pipeline: validate configuration, list discovered workers, and dry-run
// resolve a template's targets without enqueuing anything.
package main

import (
	"fmt"
	"os"

	"github.com/catherinevee/starfleet/cmd/starfleetctl/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
