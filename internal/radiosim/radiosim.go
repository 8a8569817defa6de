// Package radiosim is a host-side stand-in for the radio/link-layer stack
// that sits outside a bulb's own firmware. The reference firmware calls
// run_slice from the BLE stack's idle hook and samples temperature from an
// ADC; radiosim plays both roles deterministically so cmd/bulbsimctl can
// drive a platform.Device without real hardware.
//
// The shape, a small deterministic environment struct advanced one tick at
// a time with no hidden global state, mirrors how the rest of this tree
// keeps simulated physical state isolated behind a plain Step/Advance
// method.
package radiosim

import (
	"math"

	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
	"lumenmesh/internal/flashsim"
)

// radioEventIntervalTicks is how often a simulated BLE connection event
// occurs. 30ms is a realistic BLE connection interval.
const radioEventIntervalTicks = 30 * 1000 * config.TicksPerMicrosecond

// ambientBaseRawC is the SampleTemperatureRaw() value corresponding to a
// resting 25C chip, using the scheduler's raw-to-Celsius conversion
// ((raw-1100)/4): 1100 + 25*4 = 1200.
const ambientBaseRawC = 1100 + 25*4

// Node simulates one bulb's radio/clock/thermal/PWM environment. It
// implements platform.Host (TickNow, NextRadioEventTick,
// SampleTemperatureRaw, MeshSend) plus light.PWM, so a platform.Device can be
// built directly on top of it.
type Node struct {
	Addr uint16

	flash.Primitive

	tick       uint32
	heatLoadC  float64 // extra thermal load injected by InjectHeat
	net        *Network
	pwmDuty    [2]uint16 // last-applied channel duty cycle, for status reporting
	framesSent uint64
	framesDrop uint64
}

// NewNode builds a Node at addr, attached to net. net may be nil for a
// single-device simulation with no mesh traffic. Flash state is backed by an
// in-memory flashsim.MemoryDevice; use NewNodeWithFlash for SQLite-backed
// persistence across runs.
func NewNode(addr uint16, net *Network) *Node {
	return NewNodeWithFlash(addr, net, flashsim.NewMemoryDevice())
}

// NewNodeWithFlash builds a Node using an already-constructed flash.Primitive
// (e.g. flashsim.OpenSQLiteDevice, behind the "sqlite" build tag), so
// cmd/bulbsimctl can give a simulated bulb flash state that survives process
// restarts.
func NewNodeWithFlash(addr uint16, net *Network, dev flash.Primitive) *Node {
	n := &Node{Addr: addr, Primitive: dev, net: net}
	if net != nil {
		net.register(n)
	}
	return n
}

// TickNow satisfies sched.Host.
func (n *Node) TickNow() uint32 { return n.tick }

// NextRadioEventTick satisfies sched.Host: the next simulated BLE connection
// event, always radioEventIntervalTicks ahead of the last one crossed.
func (n *Node) NextRadioEventTick() uint32 {
	return (n.tick/radioEventIntervalTicks + 1) * radioEventIntervalTicks
}

// SampleTemperatureRaw satisfies sched.Host. It reports an ambient baseline
// plus a slow sinusoidal drift and any heat injected via InjectHeat.
func (n *Node) SampleTemperatureRaw() uint16 {
	driftC := 3 * math.Sin(float64(n.tick)/float64(config.TicksPerMicrosecond)/2_000_000)
	raw := ambientBaseRawC + (driftC+n.heatLoadC)*4
	if raw < 0 {
		raw = 0
	}
	if raw > 0xFFFF {
		raw = 0xFFFF
	}
	return uint16(raw)
}

// InjectHeat adds a persistent thermal load (in Celsius) on top of the
// ambient model, for exercising the scheduler's throttle/shutdown paths from
// cmd/bulbsimctl.
func (n *Node) InjectHeat(extraC float64) { n.heatLoadC = extraC }

// MeshSend satisfies mesh.Sender by routing the frame through the shared
// Network, or dropping it if this Node has none.
func (n *Node) MeshSend(dst uint16, frame []byte) {
	n.framesSent++
	if n.net == nil {
		n.framesDrop++
		return
	}
	n.net.deliver(n.Addr, dst, frame)
}

// SetDuty satisfies light.PWM by recording the last duty cycle commanded on
// each channel, for cmd/bulbsimctl status output.
func (n *Node) SetDuty(channel uint8, duty uint16) error {
	if int(channel) >= len(n.pwmDuty) {
		return nil
	}
	n.pwmDuty[channel] = duty
	return nil
}

// Duty returns the last duty cycle commanded on channel (0=warm, 1=cool).
func (n *Node) Duty(channel uint8) uint16 {
	if int(channel) >= len(n.pwmDuty) {
		return 0
	}
	return n.pwmDuty[channel]
}

// FramesSent and FramesDropped report mesh traffic counters for diagnostics.
func (n *Node) FramesSent() uint64    { return n.framesSent }
func (n *Node) FramesDropped() uint64 { return n.framesDrop }

// Advance moves the simulated clock forward by deltaTicks. Callers drive
// run_slice and the light controller's 50Hz tick against the new TickNow()
// themselves, the way the reference firmware's two loops are independent.
func (n *Node) Advance(deltaTicks uint32) { n.tick += deltaTicks }
