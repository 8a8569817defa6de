package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"lumenmesh/internal/radiosim"
	"lumenmesh/pkg/lumenmesh"
)

func runStatus(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	ticks := fs.Int("ticks", 5_000_000, "host ticks to warm up before reporting status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ticks < 0 {
		return errors.New("--ticks must be >= 0")
	}

	node := radiosim.NewNode(1, nil)
	b, err := lumenmesh.New(lumenmesh.Options{Host: node, SelfAddr: 1})
	if err != nil {
		return fmt.Errorf("bulbsimctl: %w", err)
	}

	const sliceStep = 1000
	for elapsed := 0; elapsed < *ticks; elapsed += sliceStep {
		node.Advance(sliceStep)
		b.RunSlice()
	}

	d := b.Diagnostics()
	colorize := isatty.IsTerminal(os.Stdout.Fd())
	label := func(s string) string {
		if !colorize {
			return s
		}
		return "\x1b[1m" + s + "\x1b[0m"
	}

	fmt.Printf("%s throttle=%d%%\n", label("scheduler"), b.ThrottleLevel())
	fmt.Printf("%s local_epoch=%d coherence=%.4f samples_since_sync=%d\n",
		label("engine"), d.LocalEpoch, d.Coherence, d.SamplesSinceSync)
	for _, sh := range d.Shards {
		fmt.Printf("  shard_id=%d version=%d contributors=%d global_epoch=%d\n",
			sh.ShardID, sh.Version, sh.Contributors, sh.GlobalEpoch)
	}
	fmt.Printf("%s warm_duty=%d cool_duty=%d\n", label("light"), node.Duty(0), node.Duty(1))
	return nil
}
