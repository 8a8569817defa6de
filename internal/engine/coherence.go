package engine

import (
	"lumenmesh/internal/config"
	"lumenmesh/internal/fixedpoint"
)

// phi is the golden ratio, the coherence curve's ceiling above c > 0.8.
var phi = fixedpoint.FromFraction(161803, 100000)

var (
	thresholdHigh = fixedpoint.FromFraction(8, 10)
	thresholdMid  = fixedpoint.FromFraction(5, 10)
	thresholdLow  = fixedpoint.FromFraction(2, 10)
	half          = fixedpoint.FromFraction(1, 2)
	one           = fixedpoint.FromInt(1)
	span          = fixedpoint.FromFraction(3, 10)
)

// coherenceCurve computes the resonance scalar in roughly [0.5, 1.618] from
// device stability (throttle level), mesh health (neighbor count), and
// light steadiness. All arithmetic is Q8.8 fixed-point; no floating point
// runs on this path.
func coherenceCurve(throttle uint8, neighborCount int, lightTransitioning bool) fixedpoint.Q8 {
	stability := fixedpoint.Sub(one, fixedpoint.FromFraction(int(throttle), 100))
	meshHealth := fixedpoint.FromFraction(neighborCount, config.MaxNeighbors)
	lightStable := one
	if lightTransitioning {
		lightStable = half
	}

	c := fixedpoint.Mul(fixedpoint.Mul(stability, meshHealth), lightStable)

	switch {
	case c > thresholdHigh:
		return phi
	case c > thresholdMid:
		frac := fixedpoint.Div(fixedpoint.Sub(c, thresholdMid), span)
		return fixedpoint.Add(one, fixedpoint.Mul(frac, fixedpoint.Sub(phi, one)))
	case c > thresholdLow:
		return one
	default:
		return fixedpoint.Add(half, c)
	}
}

// circadianPhase approximates a daily sine-like cycle with a piecewise
// linear triangle wave over local_epoch, treated as ~1 second per epoch.
// Each segment is monotone between its extrema.
func circadianPhase(localEpoch uint16) int8 {
	approxSeconds := uint32(localEpoch)
	dayPhase := (approxSeconds % 86400) * 256 / 86400

	switch {
	case dayPhase < 64:
		return int8(int32(dayPhase) * 127 / 64)
	case dayPhase < 192:
		return int8(127 - (int32(dayPhase)-64)*255/128)
	default:
		return int8(-128 + (int32(dayPhase)-192)*128/64)
	}
}
