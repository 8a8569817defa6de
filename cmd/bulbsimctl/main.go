// Command bulbsimctl drives one or more simulated bulb controllers
// (pkg/lumenmesh over internal/radiosim) from the command line: run a mesh
// of N bulbs for a given number of ticks, inspect a single bulb's status,
// list each bulb's neighbor table, or manually inject a weight shard to
// exercise the flash write/read-back path.
//
// Each subcommand owns its own flag.FlagSet; run(ctx, args) dispatches on
// args[0].
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runSimulate(ctx, args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "neighbor":
		return runNeighbor(ctx, args[1:])
	case "inject-shard":
		return runInjectShard(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("bulbsimctl: %s\nusage: bulbsimctl <run|status|neighbor|inject-shard> [flags]", msg)
}
