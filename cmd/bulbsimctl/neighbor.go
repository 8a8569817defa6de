package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"lumenmesh/internal/radiosim"
	"lumenmesh/pkg/lumenmesh"
)

func runNeighbor(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("neighbor", flag.ContinueOnError)
	nodeCount := fs.Int("nodes", 4, "number of simulated bulbs to gossip with each other")
	ticks := fs.Int("ticks", 15_000_000, "host ticks to simulate before listing neighbors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nodeCount < 2 {
		return errors.New("--nodes must be >= 2 to have any neighbors")
	}

	net := radiosim.NewNetwork()
	bulbs := make([]*lumenmesh.Bulb, *nodeCount)
	nodes := make([]*radiosim.Node, *nodeCount)
	for i := 0; i < *nodeCount; i++ {
		addr := uint16(i + 1)
		nodes[i] = radiosim.NewNode(addr, net)
		b, err := lumenmesh.New(lumenmesh.Options{Host: nodes[i], SelfAddr: addr})
		if err != nil {
			return fmt.Errorf("bulbsimctl: node %d: %w", addr, err)
		}
		bulbs[i] = b
		net.Bind(addr, b.DeliverMeshFrame)
	}

	const sliceStep = 1000
	for elapsed := uint32(0); elapsed < uint32(*ticks); elapsed += sliceStep {
		for _, node := range nodes {
			node.Advance(sliceStep)
		}
		for _, b := range bulbs {
			b.RunSlice()
		}
		net.Flush(elapsed, -55)
	}

	for i, b := range bulbs {
		fmt.Printf("node=%d neighbors=%d\n", i+1, len(b.Neighbors()))
		for _, n := range b.Neighbors() {
			fmt.Printf("  addr=%d rssi=%d load=%d%% epoch=%d shards_held=%v last_seen_tick=%d\n",
				n.Addr, n.RSSI, n.LoadPercent, n.Epoch, n.HeldShards, n.LastSeenTick)
		}
	}
	return nil
}
