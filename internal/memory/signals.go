package memory

import (
	"math/rand/v2"
	"sync"
)

// NoiseSpread is the half-width of the uniform noise added to retention when
// drawing confidence and reconstruction scores.
const NoiseSpread = 0.15

// Band is the coarse label over a noised retention draw.
type Band int

const (
	BandHigh Band = iota
	BandMedium
	BandLow
	BandVeryLow
	BandConfused
)

// String returns the bare band name.
func (b Band) String() string {
	switch b {
	case BandHigh:
		return "High"
	case BandMedium:
		return "Medium"
	case BandLow:
		return "Low"
	case BandVeryLow:
		return "Very Low"
	default:
		return "Confused"
	}
}

// ConfidenceLabel is the full label used in prompts, fallback tables, and
// persisted records.
func (b Band) ConfidenceLabel() string {
	if b == BandConfused {
		return "Confused"
	}
	return b.String() + " Confidence"
}

// ReconstructionLabel is the full label for the reconstruction variant of the
// same band.
func (b Band) ReconstructionLabel() string {
	if b == BandConfused {
		return "Confused"
	}
	return b.String() + " Reconstruction"
}

func bandFor(score float64) Band {
	switch {
	case score >= 0.8:
		return BandHigh
	case score >= 0.6:
		return BandMedium
	case score >= 0.4:
		return BandLow
	case score >= 0.3:
		return BandVeryLow
	default:
		return BandConfused
	}
}

// Sampler is the explicit randomness source behind the signal draws. A seeded
// sampler reproduces its sequence exactly, which is what tests want; the
// package-level Confidence and Reconstruction functions share one
// process-wide sampler. Safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler with a deterministic stream for the seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var defaultSampler = &Sampler{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}

func (s *Sampler) uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

// Confidence draws a noised confidence score from a retention value: the
// retention plus uniform noise in ±NoiseSpread, clamped to [0, 1], rounded to
// four decimals, with its band. Every call is a fresh draw.
func (s *Sampler) Confidence(retention float64) (float64, Band) {
	c := clamp(0, 1, retention+s.uniform(-NoiseSpread, NoiseSpread))
	c = round4(c)
	return c, bandFor(c)
}

// Reconstruction mirrors Confidence with an independent draw. Callers label
// the band with ReconstructionLabel instead of ConfidenceLabel.
func (s *Sampler) Reconstruction(retention float64) (float64, Band) {
	r := clamp(0, 1, retention+s.uniform(-NoiseSpread, NoiseSpread))
	r = round4(r)
	return r, bandFor(r)
}

// Confidence draws from the process-wide sampler.
func Confidence(retention float64) (float64, Band) {
	return defaultSampler.Confidence(retention)
}

// Reconstruction draws from the process-wide sampler.
func Reconstruction(retention float64) (float64, Band) {
	return defaultSampler.Reconstruction(retention)
}
