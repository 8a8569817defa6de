package engine

import "lumenmesh/internal/config"

// ShardDiagnostic is a lightweight snapshot of one resident shard, enough
// to render wear/contribution status without exposing the weight payload.
type ShardDiagnostic struct {
	ShardID      uint8
	Version      uint8
	Contributors uint8
	GlobalEpoch  uint32
}

// EngineDiagnostics is the engine's diagnostic counter set: local epoch,
// coherence, samples since the last sync, and per-shard wear/contribution
// status. The reference firmware's training_monitor CLI polled the
// equivalent struct over a debug channel; here it is a plain getter
// consumed by cmd/bulbsimctl's status output.
type EngineDiagnostics struct {
	LocalEpoch       uint16
	Coherence        float64
	SamplesSinceSync uint8
	Shards           [config.MaxShardsInRAM]ShardDiagnostic
}

// Diagnostics snapshots the engine's current training state.
func (e *Engine) Diagnostics() EngineDiagnostics {
	d := EngineDiagnostics{
		LocalEpoch:       e.localEpoch,
		Coherence:        e.coherenceScore,
		SamplesSinceSync: e.samplesSinceSync,
	}
	for i, s := range e.shards {
		d.Shards[i] = ShardDiagnostic{
			ShardID:      s.Header.ShardID,
			Version:      s.Header.Version,
			Contributors: s.Header.Contributors,
			GlobalEpoch:  s.Header.GlobalEpoch,
		}
	}
	return d
}
