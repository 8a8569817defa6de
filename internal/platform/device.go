// Package platform is the composition root: it wires one Hardware
// Scheduler, one Mesh Gossip node, one Light Controller, one Learning
// Engine, and one Flash Store into a single process-wide Device, mirroring
// how static singletons get wired together at init time on constrained
// firmware. Device stays a single cooperative loop rather than a set of
// independently restartable workers, so there is no supervision tree here.
package platform

import (
	"fmt"
	"sync"

	"lumenmesh/internal/engine"
	"lumenmesh/internal/flash"
	"lumenmesh/internal/light"
	"lumenmesh/internal/mesh"
	"lumenmesh/internal/sched"
)

// Host is the full integration surface the platform needs from the
// underlying hardware: scheduler timing/thermals, mesh send, PWM, and raw
// flash primitives, all on one object since the reference part exposes
// them as one set of linker-resolved externs.
type Host interface {
	sched.Host
	mesh.Sender
	light.PWM
	flash.Primitive
}

// Config parameterizes a Device. Host is the only required field.
type Config struct {
	Host     Host
	SelfAddr uint16
}

// Device is one bulb's wired-together core: H, M, L, E, F.
type Device struct {
	mu      sync.Mutex
	started bool

	sched *sched.Scheduler
	mesh  *mesh.Gossip
	light *light.Controller
	flash *flash.Store
	eng   *engine.Engine
}

// NewDevice builds a Device from cfg without starting it.
func NewDevice(cfg Config) (*Device, error) {
	if cfg.Host == nil {
		return nil, fmt.Errorf("platform: host is required")
	}

	s := sched.New(cfg.Host)
	m := mesh.New(cfg.SelfAddr, cfg.Host)
	l := light.New(cfg.Host)
	f := flash.New(cfg.Host)
	e := engine.New(s, m, l, f)

	return &Device{sched: s, mesh: m, light: l, flash: f, eng: e}, nil
}

// Start registers the engine's tasks and callbacks. Idempotent.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	d.eng.Start()
	d.started = true
	return nil
}

// Started reports whether Start has run.
func (d *Device) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// RunSlice drives one scheduler micro-slice. Call from the radio stack's
// idle hook.
func (d *Device) RunSlice() {
	d.sched.RunSlice()
}

// TickLight drives one 50Hz light transition step. Call from the outer
// main loop's timer, independent of RunSlice.
func (d *Device) TickLight() {
	d.light.Update()
}

// DeliverMeshFrame feeds one received radio datagram into the mesh layer.
func (d *Device) DeliverMeshFrame(data []byte, src uint16, rssi int8, now uint32) {
	d.mesh.OnReceive(data, src, rssi, now)
}

// SetLightTarget forwards an immediate or transitioning light command.
// Must return promptly: light commands have a sub-100us latency bound.
func (d *Device) SetLightTarget(brightness, temp uint8, transitionMS uint16) {
	d.light.SetTarget(brightness, temp, transitionMS)
}

// Engine exposes the learning engine for diagnostics.
func (d *Device) Engine() *engine.Engine { return d.eng }

// Scheduler exposes the scheduler for diagnostics.
func (d *Device) Scheduler() *sched.Scheduler { return d.sched }

// Mesh exposes the mesh node for diagnostics and manual shard requests.
func (d *Device) Mesh() *mesh.Gossip { return d.mesh }

// Flash exposes the flash store for diagnostics.
func (d *Device) Flash() *flash.Store { return d.flash }
