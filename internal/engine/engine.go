// Package engine implements the sharded Learning Engine (E): it owns a
// small resident set of weight shards, registers train/sync tasks with the
// scheduler, runs one fixed-point forward/backward micro-step per slice,
// and exchanges shards with the mesh and flash layers.
package engine

import (
	"lumenmesh/internal/config"
	"lumenmesh/internal/flash"
	"lumenmesh/internal/light"
	"lumenmesh/internal/mesh"
	"lumenmesh/internal/sched"
	"lumenmesh/internal/shard"
)

type gradientAccumulator struct {
	grads       [config.GradientCount]int8
	sampleCount uint8
}

// Engine is the Learning Engine (E). It holds non-owning references to its
// collaborators ownership rules.
type Engine struct {
	sched *sched.Scheduler
	mesh  *mesh.Gossip
	light *light.Controller
	flash *flash.Store

	shards          [config.MaxShardsInRAM]*shard.Shard
	currentShardIdx uint8
	broadcastIdx    uint8

	localEpoch       uint16
	samplesSinceSync uint8
	lastGossipTick   uint32

	gradAccum gradientAccumulator

	prevFeatures FeatureVector
	havePrev     bool

	coherenceScore float64
}

// New builds an Engine over shard ids 0..K-1, deterministically
// initialized, bound to its H/M/L/F collaborators.
func New(s *sched.Scheduler, m *mesh.Gossip, l *light.Controller, f *flash.Store) *Engine {
	e := &Engine{sched: s, mesh: m, light: l, flash: f}
	for i := range e.shards {
		sh := shard.New()
		sh.Init(uint8(i))
		e.shards[i] = sh
	}
	return e
}

// Start registers the engine's two scheduler tasks (train at Low priority,
// sync at Normal) and its mesh shard-received callback
func (e *Engine) Start() {
	e.sched.RegisterTask(e.trainStep, sched.Low)
	e.sched.RegisterTask(e.syncStep, sched.Normal)
	e.mesh.OnShardReceived(e.onShardReceived)
}

// Shard returns the resident shard at index i, or nil if i is out of
// range. Exposed for diagnostics and tests, not for external mutation.
func (e *Engine) Shard(i int) *shard.Shard {
	if i < 0 || i >= len(e.shards) {
		return nil
	}
	return e.shards[i]
}

// LocalEpoch returns the number of completed local gradient applications.
func (e *Engine) LocalEpoch() uint16 { return e.localEpoch }

// trainStep is the train_step task: one forward/backward micro-step per
// scheduler slice, accumulating into a running-mean gradient and applying
// it every SamplesPerLocalUpdate samples.
func (e *Engine) trainStep(budgetUS uint32) bool {
	if budgetUS < config.TrainBudgetFloorUS {
		return true
	}

	features := e.collectFeatures()
	if !e.havePrev {
		e.prevFeatures = features
		e.havePrev = true
	}
	targets := actualTargets(features, e.prevFeatures)

	s := e.shards[e.currentShardIdx]
	predicted := forward(s, e.prevFeatures)
	errScalar := loss(predicted, targets)

	var grads [config.GradientCount]int8
	for i := 0; i < config.GradientCount; i++ {
		v := int32(errScalar) * int32(int8(e.prevFeatures[i])) / 16
		grads[i] = clampI8(v)
	}

	n := int32(e.gradAccum.sampleCount)
	for i := range e.gradAccum.grads {
		e.gradAccum.grads[i] = int8((int32(e.gradAccum.grads[i])*n + int32(grads[i])) / (n + 1))
	}
	e.gradAccum.sampleCount++
	e.samplesSinceSync++

	if e.gradAccum.sampleCount >= config.SamplesPerLocalUpdate {
		resonance := coherenceCurve(e.sched.ThrottleLevel(), len(e.mesh.Neighbors()), e.light.IsTransitioning())
		s.ApplyGradient(e.gradAccum.grads[:], config.GradientCount, config.LearningRate*resonance.Float64())
		e.gradAccum = gradientAccumulator{}
		e.localEpoch++
		e.coherenceScore = resonance.Float64()
	}

	e.prevFeatures = features
	e.currentShardIdx = (e.currentShardIdx + 1) % config.MaxShardsInRAM
	return true
}

// syncStep is the sync_step task: gossip the round-robin broadcast shard
// and a heartbeat, no more often than GossipIntervalTicks and never while
// the mesh is under backpressure.
func (e *Engine) syncStep(budgetUS uint32) bool {
	now := e.sched.CurrentTick()
	if now-e.lastGossipTick < config.GossipIntervalTicks {
		return false
	}
	if e.mesh.ShouldThrottle() {
		e.lastGossipTick = now
		return false
	}

	e.mesh.BroadcastShard(e.shards[e.broadcastIdx])
	e.mesh.SendHeartbeat(e.sched.ThrottleLevel(), config.MaxShardsInRAM, e.localEpoch)

	e.broadcastIdx = (e.broadcastIdx + 1) % config.MaxShardsInRAM
	e.lastGossipTick = now
	e.samplesSinceSync = 0
	return false
}

// onShardReceived is the mesh shard-received callback: merge into a
// matching resident shard, or persist an unknown shard to flash.
func (e *Engine) onShardReceived(incoming *shard.Shard) {
	for _, s := range e.shards {
		if s.Header.ShardID == incoming.Header.ShardID {
			s.FedAvg(incoming)
			return
		}
	}
	e.flash.WriteShard(incoming)
}
