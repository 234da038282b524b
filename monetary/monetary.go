// Package monetary implements Botho's two-phase monetary policy
// controller (spec §4.7): a halving schedule for the early-emission
// phase, transitioning into a fee-burn-aware tail-emission regime whose
// difficulty adjustment blends block-timing error with monetary-target
// error. Structured as an explicit value type (spec.md §9 Design Notes:
// "Dynamic subsystems to concrete designs") rather than reading supply
// back out of the ledger, breaking the ledger/controller/validator cycle
// described there: the ledger stores the controller's figures as plain
// ChainState fields, cmd/bothod rebuilds a Controller from them, and the
// validator receives the ledger and the controller by parameter.
package monetary

import "math"

// Config bundles the controller's tunables, following the teacher's
// dagconfig.Params style of grouping related constants into one value
// (reward/halving/difficulty constants threaded through blockdag/mining
// in the teacher become first-class fields here).
type Config struct {
	InitialReward   uint64 // phase-1 reward at height 0, picocredits
	HalvingInterval uint64 // blocks per halving epoch
	HalvingCount    uint64 // number of halvings before tail emission begins

	TargetBlockTimeSeconds      uint64
	DifficultyAdjustmentInterval uint64
	MaxAdjustmentFraction       float64 // e.g. 0.25 for +-25%

	TailInflationBps         uint32 // target net annual inflation once tail emission starts
	ExpectedFeeBurnRateBps   uint32 // assumed steady-state annual fee-burn rate, bps of supply
	TimingWeight             float64 // phase-2 blend weight for the timing ratio (0.3)
	MonetaryWeight           float64 // phase-2 blend weight for the monetary ratio (0.7)
}

// DefaultConfig returns Botho's reference monetary parameters.
func DefaultConfig() Config {
	return Config{
		InitialReward:                50_000_000_000, // 50 credits, picocredit units
		HalvingInterval:              1_051_200,       // ~2 years at 60s blocks
		HalvingCount:                 32,
		TargetBlockTimeSeconds:       60,
		DifficultyAdjustmentInterval: 2016,
		MaxAdjustmentFraction:        0.25,
		TailInflationBps:             200,
		ExpectedFeeBurnRateBps:       50,
		TimingWeight:                 0.3,
		MonetaryWeight:               0.7,
	}
}

// EpochStats is the per-difficulty-epoch bookkeeping the controller needs
// to compute both the timing and the monetary adjustment ratios (spec §3:
// "per-epoch counters (blocks, rewards, fees burned, timestamps)").
type EpochStats struct {
	Blocks        uint64
	RewardsIssued uint64
	FeesBurned    uint64
	StartTime     int64 // unix seconds of the epoch's first block
	EndTime       int64 // unix seconds of the epoch's last block
}

// Controller is the monetary policy state. Its exported fields are the
// authoritative values the ledger writes on every block apply and that
// RPC surfaces verbatim (spec §4.7 "Ledger linkage").
type Controller struct {
	Cfg Config

	Height      uint64
	TotalSupply uint64
	Difficulty  uint32

	// TailReward is nil until the controller transitions into phase 2; it
	// is then fixed for the lifetime of the chain (spec §4.7: "set at
	// transition").
	TailReward *uint64

	Epoch EpochStats
}

// NewController constructs a fresh controller at genesis.
func NewController(cfg Config, genesisDifficulty uint32) *Controller {
	return &Controller{Cfg: cfg, Difficulty: genesisDifficulty}
}

// tailEmissionStartHeight is the first height at which phase 2 applies.
func (c *Controller) tailEmissionStartHeight() uint64 {
	return c.Cfg.HalvingCount * c.Cfg.HalvingInterval
}

// InPhase2 reports whether height h has entered the tail-emission regime.
func (c *Controller) InPhase2(h uint64) bool {
	return h >= c.tailEmissionStartHeight()
}

// BlockReward returns the minting reward for height h (spec §4.7):
// phase 1 halves every HalvingInterval blocks; phase 2 pays the fixed,
// once-calibrated TailReward.
func (c *Controller) BlockReward(h uint64) uint64 {
	if c.InPhase2(h) {
		if c.TailReward != nil {
			return *c.TailReward
		}
		// Transition boundary: calibrate now if it has not happened yet.
		return c.calibrateTailReward()
	}
	shifts := h / c.Cfg.HalvingInterval
	if shifts >= 64 {
		return 0
	}
	return c.Cfg.InitialReward >> shifts
}

// blocksPerYear derives the number of blocks expected in a calendar year
// at the configured target block time.
func (c *Config) blocksPerYear() float64 {
	const secondsPerYear = 365.0 * 24 * 3600
	if c.TargetBlockTimeSeconds == 0 {
		return secondsPerYear
	}
	return secondsPerYear / float64(c.TargetBlockTimeSeconds)
}

// calibrateTailReward computes the fixed per-block tail reward so that, at
// the target block rate and the assumed steady-state fee-burn rate, net
// annual inflation equals Cfg.TailInflationBps (spec §4.7, scenario §8.5):
//
//	grossAnnualEmission = supply * (tailInflationBps + feeBurnRateBps) / 10000
//	tailReward = grossAnnualEmission / blocksPerYear
//
// because burned fees must be replaced by extra minting to hit the target
// *net* inflation figure.
func (c *Controller) calibrateTailReward() uint64 {
	grossBps := uint64(c.Cfg.TailInflationBps) + uint64(c.Cfg.ExpectedFeeBurnRateBps)
	grossAnnual := float64(c.TotalSupply) * float64(grossBps) / 10_000
	reward := grossAnnual / c.Cfg.blocksPerYear()
	if reward < 0 {
		reward = 0
	}
	r := uint64(reward)
	c.TailReward = &r
	return r
}

// clamp bounds ratio to [1-MaxAdjustmentFraction, 1+MaxAdjustmentFraction].
func (c *Config) clamp(ratio float64) float64 {
	lo := 1 - c.MaxAdjustmentFraction
	hi := 1 + c.MaxAdjustmentFraction
	if ratio < lo {
		return lo
	}
	if ratio > hi {
		return hi
	}
	return ratio
}

// timingRatio is expected_time / observed_time for one epoch.
func (c *Config) timingRatio(epoch EpochStats) float64 {
	observed := float64(epoch.EndTime - epoch.StartTime)
	if observed <= 0 {
		observed = 1
	}
	expected := float64(epoch.Blocks) * float64(c.TargetBlockTimeSeconds)
	return expected / observed
}

// targetEpochNet is the expected net emission (rewards minus burn) for one
// full epoch at the calibrated tail rate: the tail reward is calibrated
// against *gross* annual emission (reward + expected burn), so the target
// net share per block is the TailInflationBps fraction of that gross
// figure, scaled up to the epoch length.
func (c *Controller) targetEpochNet() float64 {
	if c.TailReward == nil {
		return 0
	}
	grossBps := float64(c.Cfg.TailInflationBps) + float64(c.Cfg.ExpectedFeeBurnRateBps)
	if grossBps <= 0 {
		return 0
	}
	netShare := float64(c.Cfg.TailInflationBps) / grossBps
	return float64(*c.TailReward) * float64(c.Cfg.DifficultyAdjustmentInterval) * netShare
}

// NextDifficulty computes the difficulty for the epoch following `epoch`,
// applying phase 1's pure timing adjustment or phase 2's 30%-timing/
// 70%-monetary convex blend (spec §4.7), both bounded by the same
// +-MaxAdjustmentFraction per-epoch clamp.
func (c *Controller) NextDifficulty(h uint64, epoch EpochStats) uint32 {
	timing := c.Cfg.timingRatio(epoch)

	var ratio float64
	if !c.InPhase2(h) {
		ratio = c.Cfg.clamp(timing)
	} else {
		netEmission := float64(epoch.RewardsIssued) - float64(epoch.FeesBurned)
		target := c.targetEpochNet()

		var monetary float64
		if netEmission <= 0 || target <= 0 {
			// Deflationary epoch: speed up block production as
			// aggressively as the bound allows (spec §4.7).
			monetary = 1 - c.Cfg.MaxAdjustmentFraction
		} else {
			monetary = netEmission / target
		}
		blended := c.Cfg.TimingWeight*timing + c.Cfg.MonetaryWeight*monetary
		ratio = c.Cfg.clamp(blended)
	}

	next := float64(c.Difficulty) * ratio
	if next < 1 {
		next = 1
	}
	if next > math.MaxUint32 {
		next = math.MaxUint32
	}
	return uint32(next)
}

// Advance updates the controller's running totals after a block at
// height h mints `reward` picocredits and burns `burned` in fees; it is
// the ledger-side call matching AddBlock's own bookkeeping (spec §4.7
// "Ledger linkage": the ledger is the authoritative writer of these
// fields, monetary.Controller is the value type it writes through).
func (c *Controller) Advance(h uint64, reward, burned uint64, timestamp int64, nextDifficulty uint32) {
	c.Height = h
	c.TotalSupply += reward
	c.Difficulty = nextDifficulty

	c.Epoch.Blocks++
	c.Epoch.RewardsIssued += reward
	c.Epoch.FeesBurned += burned
	if c.Epoch.StartTime == 0 {
		c.Epoch.StartTime = timestamp
	}
	c.Epoch.EndTime = timestamp

	if c.Epoch.Blocks >= c.Cfg.DifficultyAdjustmentInterval {
		c.Epoch = EpochStats{}
	}
}
