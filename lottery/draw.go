package lottery

import (
	"sort"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/bterrors"
)

// Result is the outcome of one block's lottery draw.
type Result struct {
	Seed            botmsg.Hash
	PoolAmount      uint64
	AmountBurned    uint64
	Winners         []Candidate
	PayoutPerWinner uint64
}

// eligible filters candidates by the configured minimum age and value
// (spec §4.6 inputs).
func eligible(candidates []Candidate, cfg Config) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Age >= cfg.MinUtxoAge && c.Value >= cfg.MinUtxoValue {
			out = append(out, c)
		}
	}
	return out
}

// Draw runs the deterministic weighted lottery for a candidate block at
// height h, given the pre-application eligible UTXO snapshot at height
// h-1 (the snapshot timing resolved in SPEC_FULL.md's design notes),
// the previous block hash, and the block's total collected fees.
func Draw(candidates []Candidate, prevBlockHash botmsg.Hash, height uint64, totalFees uint64, cfg Config) (*Result, error) {
	pool, burn := cfg.FeeCurve.SplitFees(totalFees)
	seed := DeriveSeed(prevBlockHash, height, pool)

	elig := eligible(candidates, cfg)
	if len(elig) == 0 {
		return &Result{
			Seed:         seed,
			PoolAmount:   0,
			AmountBurned: totalFees,
		}, nil
	}

	winners, err := drawWinners(elig, seed, cfg.WinnersPerDraw)
	if err != nil {
		return nil, err
	}

	payoutPerWinner := pool / uint64(len(winners))
	remainder := pool - payoutPerWinner*uint64(len(winners))

	return &Result{
		Seed:            seed,
		PoolAmount:      pool,
		AmountBurned:    burn + remainder,
		Winners:         winners,
		PayoutPerWinner: payoutPerWinner,
	}, nil
}

// drawWinners runs winnersPerDraw independent weighted choices over the
// eligible pool, drawing pseudorandom values from a seed-keyed stream and
// re-drawing within the same slot on a collision with an already-chosen
// UtxoId (spec §4.6). Candidates are sorted into a stable order first so
// the drawing is a pure function of (candidates, seed) regardless of the
// order the caller happened to collect them in.
func drawWinners(elig []Candidate, seed botmsg.Hash, winnersPerDraw int) ([]Candidate, error) {
	ordered := make([]Candidate, len(elig))
	copy(ordered, elig)
	sort.Slice(ordered, func(i, j int) bool {
		return utxoIdLess(ordered[i].UtxoId, ordered[j].UtxoId)
	})

	weights := make([]float64, len(ordered))
	var total float64
	for i, c := range ordered {
		w := weight(c)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return nil, bterrors.New(bterrors.ErrEmptyUtxoPool, "lottery: eligible pool has zero total weight")
	}

	n := winnersPerDraw
	if n > len(ordered) {
		n = len(ordered)
	}

	s := newStream(seed)
	chosen := make(map[botmsg.UtxoId]bool, n)
	winners := make([]Candidate, 0, n)
	const maxAttemptsPerSlot = 64
	for len(winners) < n {
		var picked *Candidate
		for attempt := 0; attempt < maxAttemptsPerSlot; attempt++ {
			c := weightedPick(ordered, weights, total, s)
			if !chosen[c.UtxoId] {
				picked = &c
				break
			}
		}
		if picked == nil {
			// maxAttemptsPerSlot consecutive draws all hit candidates
			// already chosen; stop with fewer winners rather than loop
			// forever.
			break
		}
		chosen[picked.UtxoId] = true
		winners = append(winners, *picked)
	}
	return winners, nil
}

// weightedPick draws one candidate from ordered, weighted by weights: the
// next stream value is reduced modulo 2^53, scaled in float64 onto
// [0, total), and the first candidate whose cumulative weight exceeds it
// is returned. The stream value is not reduced modulo the cumulative
// weight sum itself.
func weightedPick(ordered []Candidate, weights []float64, total float64, s *stream) Candidate {
	const precision = 1 << 53
	r := s.next() % precision
	target := (float64(r) / float64(precision)) * total

	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return ordered[i]
		}
	}
	return ordered[len(ordered)-1]
}

func utxoIdLess(a, b botmsg.UtxoId) bool {
	ab, bb := a.Bytes(), b.Bytes()
	for i := range ab {
		if ab[i] != bb[i] {
			return ab[i] < bb[i]
		}
	}
	return false
}
