// Package feecurve implements Botho's progressive fee curve: transaction
// fees scale with the wealth of the dominant cluster funding the spend, so
// concentrated wealth pays proportionally more than diffused wealth.
package feecurve

import (
	"math"

	"github.com/botho-project/botho/clustertag"
)

// Config holds the tunables of the piecewise sigmoid fee curve (spec §4.2).
type Config struct {
	// RMinBps is the basis-point rate for fully diffused wealth.
	RMinBps uint32
	// RMaxBps is the basis-point rate for very concentrated wealth.
	RMaxBps uint32
	// WMid is the wealth (picocredits) at which the curve sits at its
	// midpoint.
	WMid uint64
	// Steepness controls the transition width, in wealth units.
	Steepness float64
	// BackgroundRateBps is applied to the implicit cluster-0 component.
	BackgroundRateBps uint32
	// PoolFractionPermille is the share (out of 1000) of a transaction fee
	// routed to the lottery pool; the remainder is burned.
	PoolFractionPermille uint32
}

// DefaultConfig returns Botho's reference fee-curve parameters.
func DefaultConfig() Config {
	return Config{
		RMinBps:              5,
		RMaxBps:              2000,
		WMid:                 500_000_000_000, // 0.5x an illustrative whale wealth
		Steepness:            50_000_000_000,
		BackgroundRateBps:    10,
		PoolFractionPermille: 800,
	}
}

// RateBps returns the basis-point rate attributable to a cluster with the
// given global wealth, per the piecewise sigmoid of spec §4.2:
//
//	r(wealth) = RMin + (RMax-RMin) / (1 + exp(-(wealth-WMid)/Steepness))
func (c Config) RateBps(wealth uint64) float64 {
	if c.Steepness <= 0 {
		if wealth >= c.WMid {
			return float64(c.RMaxBps)
		}
		return float64(c.RMinBps)
	}
	x := (float64(wealth) - float64(c.WMid)) / c.Steepness
	sigmoid := 1.0 / (1.0 + math.Exp(-x))
	return float64(c.RMinBps) + (float64(c.RMaxBps)-float64(c.RMinBps))*sigmoid
}

// ClusterContribution is one input cluster's weighted share of a
// transaction's input value, plus that cluster's current global wealth.
type ClusterContribution struct {
	ClusterID clustertag.ClusterID
	Weight    clustertag.TagWeight
	Wealth    uint64
}

// EffectiveRateBps computes the weighted effective rate for an input set
// per spec §4.2:
//
//	rate = background_rate * bg_weight/SCALE + sum_j rate_bps(wealth_j) * w_j/SCALE
func (c Config) EffectiveRateBps(backgroundWeight clustertag.TagWeight, contributions []ClusterContribution) float64 {
	scale := float64(clustertag.TagWeightScale)
	rate := float64(c.BackgroundRateBps) * float64(backgroundWeight) / scale
	for _, cc := range contributions {
		rate += c.RateBps(cc.Wealth) * float64(cc.Weight) / scale
	}
	return rate
}

// NominalFee multiplies the effective basis-point rate by a transaction
// size (bytes) or value (picocredits), per the caller's chosen basis.
func (c Config) NominalFee(effectiveRateBps float64, basis uint64) uint64 {
	fee := effectiveRateBps / 10_000 * float64(basis)
	if fee < 0 {
		return 0
	}
	return uint64(fee)
}

// SplitFees deterministically splits a fee into its lottery-pool and
// burned components per spec §4.2 / §4.6.
func (c Config) SplitFees(fee uint64) (pool uint64, burn uint64) {
	pool = fee * uint64(c.PoolFractionPermille) / 1000
	burn = fee - pool
	return pool, burn
}
