// Package orbit places gallery objects on concentric rings and advances their
// periodic floating motion, with freeze/resume that preserves continuity.
package orbit

import (
	"math"
	"math/rand/v2"
)

// Layout holds the ring placement constants and the ranges the per-object randoms are drawn from.
type Layout struct {
	RingCapacity   int
	BaseRadius     float32
	RingSpacing    float32
	RingSkew       float32
	IndexJitter    float32
	RadiusVariance float32
	VarianceFreq   float32

	HeightBand       int
	HeightBandCenter float32
	HeightStep       float32
	RingRise         float32

	BaseSpeed     float32
	RingSpeedStep float32
	BobMin        float32
	BobRange      float32
	BobFreqMin    float32
	BobFreqRange  float32
	PulseMin      float32
	PulseRange    float32

	// FocalHeight and FocalDrift describe the point near the gallery centre every object turns toward.
	FocalHeight float32
	FocalDrift  float32
	// LookFollow is the fraction of the remaining rotation applied each frame.
	LookFollow float32
}

// DefaultLayout returns the gallery's ring layout.
func DefaultLayout() Layout {
	return Layout{
		RingCapacity:     12,
		BaseRadius:       8.8,
		RingSpacing:      2.6,
		RingSkew:         0.32,
		IndexJitter:      0.05,
		RadiusVariance:   0.4,
		VarianceFreq:     0.92,
		HeightBand:       6,
		HeightBandCenter: 2.5,
		HeightStep:       0.9,
		RingRise:         0.7,
		BaseSpeed:        0.042,
		RingSpeedStep:    0.004,
		BobMin:           0.38,
		BobRange:         0.28,
		BobFreqMin:       0.55,
		BobFreqRange:     0.3,
		PulseMin:         0.05,
		PulseRange:       0.035,
		FocalHeight:      1.6,
		FocalDrift:       0.25,
		LookFollow:       0.08,
	}
}

// Params is the fixed-at-creation description of one object's periodic motion.
type Params struct {
	BaseAngle    float32
	Radius       float32
	BaseHeight   float32
	Speed        float32
	BobAmplitude float32
	BobFrequency float32
	RadialPulse  float32
	Phase        float32
}

// Params derives the ring placement for index and draws its randomised motion terms from rng.
//
// Parameters:
//   - index: the object's stable index
//   - rng: the random source; a seeded source yields a reproducible layout
//
// Returns:
//   - Params: the object's orbit parameters
func (l Layout) Params(index int, rng *rand.Rand) Params {
	capacity := max(l.RingCapacity, 1)
	ring := index / capacity
	pos := index % capacity
	band := max(l.HeightBand, 1)

	angleStep := 2 * math.Pi / float64(capacity)
	angle := float32(float64(pos)*angleStep) + float32(ring)*l.RingSkew + float32(index%3)*l.IndexJitter
	radius := l.BaseRadius + l.RingSpacing*float32(ring) + float32(math.Sin(float64(float32(pos)*l.VarianceFreq)))*l.RadiusVariance
	height := (float32(pos%band)-l.HeightBandCenter)*l.HeightStep + float32(ring)*l.RingRise

	return Params{
		BaseAngle:    angle,
		Radius:       radius,
		BaseHeight:   height,
		Phase:        rng.Float32() * 2 * math.Pi,
		Speed:        l.BaseSpeed + float32(ring)*l.RingSpeedStep,
		BobAmplitude: l.BobMin + rng.Float32()*l.BobRange,
		BobFrequency: l.BobFreqMin + rng.Float32()*l.BobFreqRange,
		RadialPulse:  l.PulseMin + rng.Float32()*l.PulseRange,
	}
}
