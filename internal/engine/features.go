package engine

import "lumenmesh/internal/config"

// FeatureVector is the engine's fixed 16-byte observation. Fields are raw
// bytes; forward/backward passes reinterpret them as int8 two's complement,
// exactly as the reference firmware's int8_t feature buffer does.
type FeatureVector [config.FeatureVectorSize]byte

// TargetVector is the fixed 8-byte "what actually happened" vector the
// loss is computed against.
type TargetVector [config.TargetVectorSize]byte

// featureIndex names the byte offsets within FeatureVector, in fixed order.
const (
	featPowerLevel = iota
	featTemperature
	featMeshActivity
	featNeighborCount
	featUptimePhase
	featCircadianPhase
	featRSSIAvg
	featRSSIVariance
	featBrightness
	featColorTemp
	featSceneID
	featBrightnessVelocity
	featHopCountAvg
	featShardDiversity
	featReserved0
	featReserved1
)

// collectFeatures builds the current observation from the engine's
// collaborators. mesh_activity, rssi_avg, rssi_variance, and hop_count_avg
// are unimplemented placeholders and stay zero.
func (e *Engine) collectFeatures() FeatureVector {
	var fv FeatureVector

	fv[featPowerLevel] = e.light.PowerEstimate()
	fv[featTemperature] = byte(int8(int(e.sched.CurrentTemperatureC()) - 40))
	fv[featMeshActivity] = 0
	fv[featNeighborCount] = byte(len(e.mesh.Neighbors()))
	fv[featUptimePhase] = byte((e.sched.CurrentTick() >> 20) & 0x7F)
	fv[featCircadianPhase] = byte(circadianPhase(e.localEpoch))
	fv[featRSSIAvg] = 0
	fv[featRSSIVariance] = 0
	fv[featBrightness] = e.light.Brightness()
	fv[featColorTemp] = e.light.ColorTemp()
	fv[featSceneID] = byte(e.light.DetectScene())
	fv[featBrightnessVelocity] = byte(e.light.BrightnessVelocity())
	fv[featHopCountAvg] = 0
	fv[featShardDiversity] = config.MaxShardsInRAM
	fv[featReserved0] = 0
	fv[featReserved1] = 0

	return fv
}

// actualTargets derives "what actually happened" from the current and
// previous feature observations, aligned to the forward pass's six-head
// ordering: next_mesh_activity, next_power_level, circadian_next,
// neighbor_rssi_delta, next_scene, temperature_trend. The last two bytes
// mirror the feature vector's reserved tail.
func actualTargets(curr, prev FeatureVector) TargetVector {
	var tv TargetVector
	tv[0] = curr[featMeshActivity]
	tv[1] = curr[featPowerLevel]
	tv[2] = curr[featCircadianPhase]
	tv[3] = byte(int8(curr[featRSSIAvg]) - int8(prev[featRSSIAvg]))
	tv[4] = curr[featSceneID]
	tv[5] = byte(int8(curr[featTemperature]) - int8(prev[featTemperature]))
	tv[6] = 0
	tv[7] = 0
	return tv
}
