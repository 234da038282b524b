// Package lottery implements Botho's fee-lottery: a deterministic,
// verifiable weighted drawing over eligible UTXOs that pays out most of a
// block's fee pool to a handful of winners and burns the remainder,
// grounded on the same seed-keyed pseudorandom drawing idea the decoy
// selector uses for chain-analysis defense (see package decoy), but keyed
// off chain data instead of crypto/rand so every node derives the same
// outcome.
package lottery

import (
	"math"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/feecurve"
)

// Config bounds the drawing (spec §4.6).
type Config struct {
	MinUtxoAge     uint64 // minimum UTXO age, in blocks, to be eligible
	MinUtxoValue   uint64 // minimum UTXO value to be eligible
	WinnersPerDraw int    // number of payout slots per block
	FeeCurve       feecurve.Config
}

// DefaultConfig returns Botho's reference lottery parameters.
func DefaultConfig() Config {
	return Config{
		MinUtxoAge:     100,
		MinUtxoValue:   1_000,
		WinnersPerDraw: 4,
		FeeCurve:       feecurve.DefaultConfig(),
	}
}

// Candidate is one UTXO eligible for the draw.
type Candidate struct {
	UtxoId        botmsg.UtxoId
	Value         uint64
	Age           uint64
	ClusterFactor float64 // dominant-cluster weighting; higher discourages concentration
	Tags          clustertag.Vector
	TargetKey     [32]byte
}

// weight computes a candidate's draw weight: value divided by its cluster
// factor (concentrated wealth draws less favorably, mirroring the fee
// curve's progressive-taxation intent) times an entropy bonus rewarding
// diffusely-attributed outputs.
func weight(c Candidate) float64 {
	factor := c.ClusterFactor
	if factor <= 0 {
		factor = 1
	}
	return float64(c.Value) / factor * entropyBonus(c.Tags)
}

// entropyBonus rewards cluster-tag vectors whose attribution is spread
// across more clusters (including the implicit background weight) with a
// multiplier in [1, 2], using the same Shannon-entropy construction as
// decoy.EffectiveAnonymity, normalized against log2 of the vector's own
// category count (its explicit entries plus background) so the bonus
// stays bounded regardless of how many clusters a vector happens to
// carry. A vector with a single non-zero category (all background, or
// fully attributed to one cluster) gets a bonus of 1.
func entropyBonus(tags clustertag.Vector) float64 {
	entries := tags.Entries()
	n := len(entries) + 1 // +1 for the implicit background share
	if n <= 1 {
		return 1
	}
	scale := float64(clustertag.TagWeightScale)
	var h float64
	add := func(w clustertag.TagWeight) {
		p := float64(w) / scale
		if p <= 0 {
			return
		}
		h -= p * math.Log2(p)
	}
	add(tags.Background())
	for _, e := range entries {
		add(e.Weight)
	}
	maxEntropy := math.Log2(float64(n))
	if maxEntropy <= 0 {
		return 1
	}
	return 1 + h/maxEntropy
}
