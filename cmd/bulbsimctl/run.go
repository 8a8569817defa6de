package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
	"lumenmesh/internal/flashsim"
	"lumenmesh/internal/radiosim"
	"lumenmesh/pkg/lumenmesh"
)

func runSimulate(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	nodeCount := fs.Int("nodes", 3, "number of simulated bulbs in the mesh")
	ticks := fs.Int("ticks", 20_000_000, "host ticks to simulate (16 ticks per microsecond)")
	heatNode := fs.Int("heat-node", -1, "inject sustained heat on this node index (-1 disables)")
	heatC := fs.Float64("heat-celsius", 30, "degrees of extra heat injected on --heat-node")
	quiet := fs.Bool("quiet", false, "suppress per-checkpoint status lines")
	dbPath := fs.String("db", "", "persist each node's flash to a SQLite file at <path>.node<addr> instead of RAM (requires a -tags sqlite build)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nodeCount < 1 {
		return errors.New("--nodes must be >= 1")
	}
	if *ticks < 1 {
		return errors.New("--ticks must be >= 1")
	}

	runID := uuid.New().String()
	net := radiosim.NewNetwork()
	bulbs := make([]*lumenmesh.Bulb, *nodeCount)
	nodes := make([]*radiosim.Node, *nodeCount)

	for i := 0; i < *nodeCount; i++ {
		addr := uint16(i + 1)
		dev, err := openNodeFlash(*dbPath, addr)
		if err != nil {
			return fmt.Errorf("bulbsimctl: node %d: %w", addr, err)
		}
		node := radiosim.NewNodeWithFlash(addr, net, dev)
		nodes[i] = node
		b, err := lumenmesh.New(lumenmesh.Options{Host: node, SelfAddr: addr})
		if err != nil {
			return fmt.Errorf("bulbsimctl: node %d: %w", addr, err)
		}
		bulbs[i] = b
		net.Bind(addr, b.DeliverMeshFrame)
	}

	if *heatNode >= 0 {
		if *heatNode >= *nodeCount {
			return fmt.Errorf("bulbsimctl: --heat-node %d out of range (0..%d)", *heatNode, *nodeCount-1)
		}
		nodes[*heatNode].InjectHeat(*heatC)
	}

	fmt.Printf("run_id=%s nodes=%d ticks=%s\n", runID, *nodeCount, humanize.Comma(int64(*ticks)))

	const sliceStep = 1000 // host ticks advanced between run_slice calls
	const lightStep = uint32(config.TicksPerMicrosecond) * 1_000_000 / 50
	const checkpointEvery = 2_000_000
	start := time.Now()

	for elapsed := uint32(0); elapsed < uint32(*ticks); elapsed += sliceStep {
		for i, node := range nodes {
			node.Advance(sliceStep)
			bulbs[i].RunSlice()
			if elapsed%lightStep < sliceStep {
				bulbs[i].TickLight()
			}
		}
		net.Flush(elapsed, -55)

		if !*quiet && elapsed%checkpointEvery < sliceStep {
			printCheckpoint(elapsed, bulbs)
		}
	}

	fmt.Printf("simulation complete elapsed_wall=%s\n", humanize.RelTime(start, time.Now(), "", ""))
	printCheckpoint(uint32(*ticks), bulbs)
	return nil
}

// openNodeFlash builds the flash backend for one simulated node: an
// in-memory device if dbPath is empty, or a SQLite-backed device at
// "<dbPath>.node<addr>" so multiple nodes never share one sector address
// space in the same file.
func openNodeFlash(dbPath string, addr uint16) (flash.Primitive, error) {
	if dbPath == "" {
		return flashsim.NewMemoryDevice(), nil
	}
	return flashsim.Open("sqlite", fmt.Sprintf("%s.node%d", dbPath, addr))
}

func printCheckpoint(tick uint32, bulbs []*lumenmesh.Bulb) {
	for i, b := range bulbs {
		d := b.Diagnostics()
		fmt.Printf("tick=%d node=%d throttle=%d%% local_epoch=%d coherence=%.3f samples_since_sync=%d neighbors=%d\n",
			tick, i+1, b.ThrottleLevel(), d.LocalEpoch, d.Coherence, d.SamplesSinceSync, len(b.Neighbors()))
	}
}
