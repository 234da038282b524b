package lottery

import (
	"reflect"
	"testing"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/clustertag"
)

func candidate(i byte, value, age uint64) Candidate {
	return Candidate{
		UtxoId:        botmsg.UtxoId{TxHash: botmsg.SumHash([]byte{i}), OutputIndex: uint32(i)},
		Value:         value,
		Age:           age,
		ClusterFactor: 1.0,
		TargetKey:     [32]byte{i},
	}
}

func samplePool() []Candidate {
	return []Candidate{
		candidate(1, 10_000, 500),
		candidate(2, 20_000, 600),
		candidate(3, 30_000, 700),
		candidate(4, 40_000, 800),
		candidate(5, 50_000, 900),
	}
}

var prevHash = botmsg.SumHash([]byte("prev-block"))

// Lottery determinism (spec §8 Laws): Draw is a pure function of its
// arguments, and re-running it reproduces bit-identical winners and seed.
func TestDrawDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed != b.Seed {
		t.Fatal("seed must be deterministic across runs")
	}
	if !reflect.DeepEqual(a.Winners, b.Winners) {
		t.Fatalf("winners must be deterministic across runs: %+v vs %+v", a.Winners, b.Winners)
	}
	if a.PayoutPerWinner != b.PayoutPerWinner || a.AmountBurned != b.AmountBurned {
		t.Fatal("payout split must be deterministic across runs")
	}
}

// merge_weighted-style permutation invariance: the drawing only depends on
// the candidate set, not on the order the caller happened to collect it in.
func TestDrawInvariantUnderCandidateOrder(t *testing.T) {
	cfg := DefaultConfig()
	pool := samplePool()
	reversed := make([]Candidate, len(pool))
	for i, c := range pool {
		reversed[len(pool)-1-i] = c
	}
	a, err := Draw(pool, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Draw(reversed, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Winners, b.Winners) {
		t.Fatalf("draw must be invariant under candidate ordering: %+v vs %+v", a.Winners, b.Winners)
	}
}

// Different seeds (distinct height/prevHash/pool) must not collapse to the
// same outcome for an otherwise-identical candidate set.
func TestDrawDifferentHeightsDifferentSeeds(t *testing.T) {
	cfg := DefaultConfig()
	a, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Draw(samplePool(), prevHash, 101, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed == b.Seed {
		t.Fatal("seed must depend on height")
	}
}

// No-winners policy (spec §4.6): an empty eligible set burns the full fee
// amount and records pool_distributed = 0 with no outputs.
func TestDrawNoEligibleCandidatesBurnsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinUtxoAge = 10_000 // above every sample candidate's age
	result, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if result.PoolAmount != 0 {
		t.Fatalf("expected pool_distributed = 0, got %d", result.PoolAmount)
	}
	if result.AmountBurned != 1000 {
		t.Fatalf("expected amount_burned = total_fees (1000), got %d", result.AmountBurned)
	}
	if len(result.Winners) != 0 {
		t.Fatalf("expected no winners, got %d", len(result.Winners))
	}
}

// Fee split scenario from spec §8.4: split_fees(1000) with
// pool_fraction_permille = 800 returns (800, 200).
func TestFeeSplitScenario(t *testing.T) {
	cfg := DefaultConfig()
	pool, burn := cfg.FeeCurve.SplitFees(1000)
	if pool != 800 || burn != 200 {
		t.Fatalf("expected (800, 200), got (%d, %d)", pool, burn)
	}
}

// Pool + burn always reconstitutes total fees when winners exist (spec §8
// invariant), with any division remainder folded into the burn.
func TestDrawPoolPlusBurnEqualsTotalFees(t *testing.T) {
	cfg := DefaultConfig()
	result, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Winners) == 0 {
		t.Fatal("expected winners for a populated eligible pool")
	}
	distributed := result.PayoutPerWinner * uint64(len(result.Winners))
	if distributed+result.AmountBurned != 1000 {
		t.Fatalf("distributed(%d) + burned(%d) must equal total fees (1000)", distributed, result.AmountBurned)
	}
}

// Winners must be distinct UtxoIds even when the eligible pool is smaller
// than winners_per_draw.
func TestDrawWinnersDistinctWhenPoolSmallerThanSlots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WinnersPerDraw = 10
	small := []Candidate{candidate(1, 10_000, 500), candidate(2, 20_000, 600)}
	result, err := Draw(small, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[botmsg.UtxoId]bool{}
	for _, w := range result.Winners {
		if seen[w.UtxoId] {
			t.Fatalf("duplicate winner %+v", w.UtxoId)
		}
		seen[w.UtxoId] = true
	}
	if len(result.Winners) > len(small) {
		t.Fatalf("cannot draw more winners (%d) than eligible candidates (%d)", len(result.Winners), len(small))
	}
}

// Decoy validation law's lottery analogue: a result produced by Draw passes
// Verify against the same inputs with zero mismatch.
func TestVerifyAcceptsMatchingDraw(t *testing.T) {
	cfg := DefaultConfig()
	pool := samplePool()
	result, err := Draw(pool, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(pool, *result, prevHash, 100, 1000, cfg); err != nil {
		t.Fatalf("verify must accept a matching draw: %v", err)
	}
}

func TestVerifyRejectsTamperedWinner(t *testing.T) {
	cfg := DefaultConfig()
	pool := samplePool()
	result, err := Draw(pool, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Winners) == 0 {
		t.Fatal("expected winners")
	}
	tampered := *result
	tampered.Winners = append([]Candidate{}, result.Winners...)
	tampered.Winners[0].UtxoId = botmsg.UtxoId{TxHash: botmsg.SumHash([]byte("intruder")), OutputIndex: 99}
	if err := Verify(pool, tampered, prevHash, 100, 1000, cfg); err == nil {
		t.Fatal("verify must reject a tampered winner")
	}
}

func TestVerifyRejectsTamperedPayoutSplit(t *testing.T) {
	cfg := DefaultConfig()
	pool := samplePool()
	result, err := Draw(pool, prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	tampered := *result
	tampered.PoolAmount++
	if err := Verify(pool, tampered, prevHash, 100, 1000, cfg); err == nil {
		t.Fatal("verify must reject a tampered pool amount")
	}
}

// Entropy bonus favors diffusely attributed vectors over fully-attributed
// ones at equal value, matching the progressive-taxation intent (spec
// §4.6: weight is "value / cluster_factor * entropy_bonus(tags)").
func TestWeightFavorsDiffuseAttribution(t *testing.T) {
	full, err := clustertag.WithFullAttribution(7)
	if err != nil {
		t.Fatal(err)
	}
	concentrated := Candidate{Value: 1000, ClusterFactor: 1.0, Tags: full}
	diffuse := Candidate{Value: 1000, ClusterFactor: 1.0, Tags: clustertag.Empty()}
	if weight(diffuse) <= weight(concentrated) {
		t.Fatalf("diffuse attribution should draw a higher weight: diffuse=%f concentrated=%f", weight(diffuse), weight(concentrated))
	}
}

// BuildLotteryOutputs binds winners to their existing target keys, not a
// freshly minted stealth key (spec §4.6 design note).
func TestBuildLotteryOutputsBindsExistingTargetKeys(t *testing.T) {
	cfg := DefaultConfig()
	result, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	outs := BuildLotteryOutputs(result)
	if len(outs) != len(result.Winners) {
		t.Fatalf("expected %d outputs, got %d", len(result.Winners), len(outs))
	}
	for i, out := range outs {
		if out.WinnerUtxoId != result.Winners[i].UtxoId {
			t.Fatalf("output %d not bound to its winner", i)
		}
		if out.Output.TargetKey != result.Winners[i].TargetKey {
			t.Fatalf("output %d must reuse the winner's existing target key", i)
		}
		if out.Output.Amount != result.PayoutPerWinner {
			t.Fatalf("output %d amount mismatch: got %d, want %d", i, out.Output.Amount, result.PayoutPerWinner)
		}
	}
}

func TestSummaryNoWinnersPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinUtxoAge = 10_000
	result, err := Draw(samplePool(), prevHash, 100, 1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	summary := Summary(1000, result)
	if summary.PoolDistributed != 0 || summary.AmountBurned != 1000 {
		t.Fatalf("expected pool=0 burn=1000, got pool=%d burn=%d", summary.PoolDistributed, summary.AmountBurned)
	}
}
