// Package lumenmesh is the stable embedding surface for one bulb's
// controller core. It wraps internal/platform.Device behind a small
// Options/Bulb struct API, so firmware integrators and simulation tooling
// share one entry point instead of reaching into internal packages.
package lumenmesh

import (
	"fmt"

	"lumenmesh/internal/config"
	"lumenmesh/internal/engine"
	"lumenmesh/internal/platform"
)

// Options configures a new Bulb. Host is required; SelfAddr identifies this
// device on the mesh.
type Options struct {
	Host     platform.Host
	SelfAddr uint16
}

// Bulb is one running device: scheduler, mesh, light, flash, and learning
// engine wired together and ready to be driven from a radio idle hook.
type Bulb struct {
	dev *platform.Device
}

// New builds and starts a Bulb from opts.
func New(opts Options) (*Bulb, error) {
	dev, err := platform.NewDevice(platform.Config{Host: opts.Host, SelfAddr: opts.SelfAddr})
	if err != nil {
		return nil, fmt.Errorf("lumenmesh: %w", err)
	}
	if err := dev.Start(); err != nil {
		return nil, fmt.Errorf("lumenmesh: %w", err)
	}
	return &Bulb{dev: dev}, nil
}

// RunSlice drives one scheduler micro-slice. Call from the radio stack's
// idle hook, as often as the link layer allows.
func (b *Bulb) RunSlice() { b.dev.RunSlice() }

// TickLight drives one 50Hz light-transition step. Call from an independent
// timer, not from the radio idle hook.
func (b *Bulb) TickLight() { b.dev.TickLight() }

// DeliverMeshFrame feeds one received radio datagram into the mesh layer.
func (b *Bulb) DeliverMeshFrame(data []byte, src uint16, rssi int8, now uint32) {
	b.dev.DeliverMeshFrame(data, src, rssi, now)
}

// SetLightTarget issues an immediate (transitionMS == 0) or smooth light
// command.
func (b *Bulb) SetLightTarget(brightness, colorTemp uint8, transitionMS uint16) {
	b.dev.SetLightTarget(brightness, colorTemp, transitionMS)
}

// Diagnostics reports a snapshot of the learning engine's state: local
// epoch, coherence score, and per-shard header fields, for external
// monitoring tools.
func (b *Bulb) Diagnostics() engine.EngineDiagnostics {
	return b.dev.Engine().Diagnostics()
}

// Neighbors reports the mesh neighbor table for diagnostics. RSSI is
// reported unbiased (true dBm), undoing the wire format's +128 offset.
func (b *Bulb) Neighbors() []NeighborInfo {
	raw := b.dev.Mesh().Neighbors()
	out := make([]NeighborInfo, len(raw))
	for i := range raw {
		n := &raw[i]
		held := make([]uint8, 0, config.TotalModelShards)
		for id := uint8(0); id < config.TotalModelShards; id++ {
			if n.HasShard(id) {
				held = append(held, id)
			}
		}
		out[i] = NeighborInfo{
			Addr:         n.Addr,
			RSSI:         int(n.RSSI) - 128,
			HeldShards:   held,
			LoadPercent:  n.LoadPercent,
			Epoch:        n.Epoch,
			LastSeenTick: n.LastSeen,
		}
	}
	return out
}

// NeighborInfo is the public projection of internal/mesh.Neighbor.
type NeighborInfo struct {
	Addr         uint16
	RSSI         int
	HeldShards   []uint8
	LoadPercent  uint8
	Epoch        uint16
	LastSeenTick uint32
}

// RequestShard asks the mesh for a specific shard id, from any neighbor
// that advertises it.
func (b *Bulb) RequestShard(id uint8) { b.dev.Mesh().RequestShard(id) }

// ThrottleLevel reports the scheduler's current thermal throttle percentage.
func (b *Bulb) ThrottleLevel() uint8 { return b.dev.Scheduler().ThrottleLevel() }
