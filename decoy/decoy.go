// Package decoy implements Botho's ring decoy selector (spec §4.5): a
// fee-inflation age/cluster-factor filter on the wallet side, and an
// OSPEAD gamma-distribution age-matching sampler to defeat chain-analysis
// heuristics. Gamma PDF/sampling is delegated to
// gonum.org/v1/gonum/stat/distuv, grounded on the pack-wide gonum
// dependency — no distribution math is hand-rolled here.
package decoy

import (
	"math"

	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Candidate is one member of the decoy pool: an output the selector may
// choose to include in a ring, together with the attributes the fee and
// chain-analysis defenses key on.
type Candidate struct {
	UtxoId       botmsg.UtxoId
	Age          uint64 // blocks since creation, measured at selection time
	ClusterFactor float64
}

// Config bounds the selector's behavior (spec §4.5 defaults).
type Config struct {
	RingSize       int
	MaxAgeRatio    float64 // default 2.0
	MaxFactorRatio float64 // default 1.5
	GammaShape     float64 // default 19.28
	GammaScale     float64 // default 1/1.61
	MinAge         uint64  // default 10
}

// DefaultConfig returns spec.md §4.5's default selector parameters.
func DefaultConfig() Config {
	return Config{
		RingSize:       11,
		MaxAgeRatio:    2.0,
		MaxFactorRatio: 1.5,
		GammaShape:     19.28,
		GammaScale:     1.0 / 1.61,
		MinAge:         10,
	}
}

// relaxationStep is one rung of the fee-inflation defense's graceful
// degradation ladder (spec §4.5).
type relaxationStep struct {
	ageRatio    float64
	factorRatio float64
}

var relaxationLadder = []relaxationStep{
	{ageRatio: 3.0, factorRatio: 2.0},
	{ageRatio: 4.0, factorRatio: 2.5},
}

// ErrEmptyUtxoPool is returned when the candidate pool has no members.
var ErrEmptyUtxoPool = errors.New("decoy: empty utxo pool")

// ErrInvalidRingSize is returned when cfg.RingSize is too small to admit
// any decoys (ring size 1 means zero decoys requested).
var ErrInvalidRingSize = errors.New("decoy: invalid ring size")

// ErrZeroAgeReal is returned when the real spent output has age zero,
// which the fee-inflation defense cannot bound a ratio against.
var ErrZeroAgeReal = errors.New("decoy: real input has zero age")

// ErrInsufficientCandidates is returned when, even after the full
// relaxation ladder, fewer than RingSize-1 eligible candidates exist.
var ErrInsufficientCandidates = errors.New("decoy: insufficient eligible candidates")

// Result is the outcome of a decoy selection.
type Result struct {
	Decoys    []Candidate
	Relaxed   bool
	RelaxStep int // 0 = no relaxation, 1/2 = ladder rung used
}

func eligible(real Candidate, pool []Candidate, ageRatio, factorRatio float64) []Candidate {
	minAge := float64(real.Age) / ageRatio
	maxAge := float64(real.Age) * ageRatio
	maxFactor := real.ClusterFactor * factorRatio

	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		age := float64(c.Age)
		if age < minAge || age > maxAge {
			continue
		}
		if c.ClusterFactor > maxFactor {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SelectDecoys produces ring_size-1 decoys for real, applying the
// fee-inflation age/cluster-factor filter with graceful degradation, then
// sampling from the surviving pool by the OSPEAD gamma age distribution
// (weighted-draw mode).
func SelectDecoys(real Candidate, pool []Candidate, cfg Config, rng Stream) (Result, error) {
	if cfg.RingSize <= 1 {
		return Result{}, ErrInvalidRingSize
	}
	if len(pool) == 0 {
		return Result{}, ErrEmptyUtxoPool
	}
	if real.Age == 0 {
		return Result{}, ErrZeroAgeReal
	}

	need := cfg.RingSize - 1
	candidates := eligible(real, pool, cfg.MaxAgeRatio, cfg.MaxFactorRatio)
	step := 0
	for i := 0; len(candidates) < need && i < len(relaxationLadder); i++ {
		r := relaxationLadder[i]
		candidates = eligible(real, pool, r.ageRatio, r.factorRatio)
		step = i + 1
	}
	if len(candidates) < need {
		return Result{}, ErrInsufficientCandidates
	}

	gamma := distuv.Gamma{Alpha: cfg.GammaShape, Beta: 1 / cfg.GammaScale}
	chosen := weightedDrawWithoutReplacement(candidates, need, gamma, rng)

	return Result{Decoys: chosen, Relaxed: step > 0, RelaxStep: step}, nil
}

// weightedDrawWithoutReplacement draws n distinct candidates weighted by
// the gamma PDF evaluated at each candidate's age (OSPEAD mode (i)).
func weightedDrawWithoutReplacement(pool []Candidate, n int, gamma distuv.Gamma, rng Stream) []Candidate {
	remaining := make([]Candidate, len(pool))
	copy(remaining, pool)
	out := make([]Candidate, 0, n)

	for len(out) < n && len(remaining) > 0 {
		weights := make([]float64, len(remaining))
		var total float64
		for i, c := range remaining {
			age := float64(c.Age)
			if age <= 0 {
				age = 1
			}
			w := gamma.Prob(age)
			weights[i] = w
			total += w
		}
		idx := weightedIndex(weights, total, rng)
		out = append(out, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return out
}

func weightedIndex(weights []float64, total float64, rng Stream) int {
	if total <= 0 {
		return int(rng.Uint64() % uint64(len(weights)))
	}
	target := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target <= cum {
			return i
		}
	}
	return len(weights) - 1
}

// SnapToClosestAge implements OSPEAD mode (ii): draw n target ages from
// the gamma distribution, then snap each to the nearest-age pool member
// not already chosen.
func SnapToClosestAge(pool []Candidate, n int, cfg Config, rng Stream) []Candidate {
	gamma := distuv.Gamma{Alpha: cfg.GammaShape, Beta: 1 / cfg.GammaScale}
	remaining := make([]Candidate, len(pool))
	copy(remaining, pool)
	out := make([]Candidate, 0, n)

	for len(out) < n && len(remaining) > 0 {
		targetAge := gamma.Rand()
		best := 0
		bestDist := math.Abs(float64(remaining[0].Age) - targetAge)
		for i := 1; i < len(remaining); i++ {
			d := math.Abs(float64(remaining[i].Age) - targetAge)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		out = append(out, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return out
}

// EffectiveAnonymity returns 2^H, where H is the Shannon entropy of the
// normalized gamma PDF weights over the ring's actual member ages
// (spec §4.5/§8).
func EffectiveAnonymity(ring []Candidate, cfg Config) float64 {
	if len(ring) == 0 {
		return 0
	}
	gamma := distuv.Gamma{Alpha: cfg.GammaShape, Beta: 1 / cfg.GammaScale}
	weights := make([]float64, len(ring))
	var total float64
	for i, c := range ring {
		age := float64(c.Age)
		if age <= 0 {
			age = 1
		}
		w := gamma.Prob(age)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return 1
	}
	var entropy float64
	for _, w := range weights {
		p := w / total
		if p <= 0 {
			continue
		}
		entropy -= p * math.Log2(p)
	}
	return math.Pow(2, entropy)
}

// ValidateDecoys checks that ring (the real spend plus its chosen decoys)
// satisfies the fee-inflation age/cluster-factor bounds relative to real,
// at the relaxation level the selector actually used.
func ValidateDecoys(real Candidate, ring []Candidate, cfg Config, relaxStep int) error {
	ageRatio := cfg.MaxAgeRatio
	factorRatio := cfg.MaxFactorRatio
	if relaxStep > 0 && relaxStep <= len(relaxationLadder) {
		ageRatio = relaxationLadder[relaxStep-1].ageRatio
		factorRatio = relaxationLadder[relaxStep-1].factorRatio
	}
	minAge := float64(real.Age) / ageRatio
	maxAge := float64(real.Age) * ageRatio
	maxFactor := real.ClusterFactor * factorRatio

	for _, c := range ring {
		age := float64(c.Age)
		if age < minAge || age > maxAge {
			return errors.Errorf("decoy: candidate age %d outside [%f,%f]", c.Age, minAge, maxAge)
		}
		if c.ClusterFactor > maxFactor {
			return errors.Errorf("decoy: candidate cluster factor %f exceeds %f", c.ClusterFactor, maxFactor)
		}
	}
	return nil
}
