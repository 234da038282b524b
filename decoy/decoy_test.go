package decoy

import (
	"testing"

	"github.com/botho-project/botho/botmsg"
)

func candidate(age uint64, factor float64) Candidate {
	return Candidate{
		UtxoId:        botmsg.UtxoId{OutputIndex: uint32(age)},
		Age:           age,
		ClusterFactor: factor,
	}
}

func TestSelectDecoysEmptyPool(t *testing.T) {
	real := candidate(1000, 1.0)
	_, err := SelectDecoys(real, nil, DefaultConfig(), NewSeededStream(1))
	if err != ErrEmptyUtxoPool {
		t.Fatalf("expected ErrEmptyUtxoPool, got %v", err)
	}
}

func TestSelectDecoysInvalidRingSize(t *testing.T) {
	real := candidate(1000, 1.0)
	cfg := DefaultConfig()
	cfg.RingSize = 1
	_, err := SelectDecoys(real, []Candidate{candidate(1000, 1.0)}, cfg, NewSeededStream(1))
	if err != ErrInvalidRingSize {
		t.Fatalf("expected ErrInvalidRingSize, got %v", err)
	}
}

func TestSelectDecoysZeroAgeReal(t *testing.T) {
	real := candidate(0, 1.0)
	_, err := SelectDecoys(real, []Candidate{candidate(100, 1.0)}, DefaultConfig(), NewSeededStream(1))
	if err != ErrZeroAgeReal {
		t.Fatalf("expected ErrZeroAgeReal, got %v", err)
	}
}

// Age filtering scenario from spec §8: real age 1000, max_age_ratio 2.0;
// candidates of age 200 and 3000 excluded, 500/1500/2000 included.
func TestAgeFilteringScenario(t *testing.T) {
	real := candidate(1000, 1.0)
	pool := []Candidate{
		candidate(200, 1.0),
		candidate(500, 1.0),
		candidate(1500, 1.0),
		candidate(2000, 1.0),
		candidate(3000, 1.0),
	}
	got := eligible(real, pool, 2.0, 1.5)
	wantAges := map[uint64]bool{500: true, 1500: true, 2000: true}
	if len(got) != len(wantAges) {
		t.Fatalf("expected %d eligible candidates, got %d: %+v", len(wantAges), len(got), got)
	}
	for _, c := range got {
		if !wantAges[c.Age] {
			t.Fatalf("unexpected candidate age %d survived filtering", c.Age)
		}
	}
}

func TestSelectDecoysRelaxationLadder(t *testing.T) {
	real := candidate(1000, 1.0)
	// Only one candidate within the default bounds; the rest need the
	// first relaxation rung (age ratio 3.0) to qualify.
	pool := []Candidate{
		candidate(1500, 1.0),
		candidate(2900, 1.0),
		candidate(2950, 1.0),
		candidate(2990, 1.0),
	}
	cfg := DefaultConfig()
	cfg.RingSize = 4
	res, err := SelectDecoys(real, pool, cfg, NewSeededStream(7))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Relaxed || res.RelaxStep != 1 {
		t.Fatalf("expected first relaxation rung to be used, got %+v", res)
	}
	if len(res.Decoys) != 3 {
		t.Fatalf("expected 3 decoys, got %d", len(res.Decoys))
	}
}

func TestEffectiveAnonymityBoundedByRingSize(t *testing.T) {
	cfg := DefaultConfig()
	ring := []Candidate{
		candidate(100, 1.0), candidate(200, 1.0), candidate(300, 1.0),
		candidate(400, 1.0), candidate(500, 1.0), candidate(600, 1.0),
		candidate(700, 1.0), candidate(800, 1.0), candidate(900, 1.0),
		candidate(1000, 1.0), candidate(1100, 1.0),
	}
	h := EffectiveAnonymity(ring, cfg)
	if h <= 0 || h > float64(len(ring))+1e-9 {
		t.Fatalf("effective anonymity %f out of bounds for ring size %d", h, len(ring))
	}
}

func TestValidateDecoysAcceptsSelectorOutput(t *testing.T) {
	real := candidate(1000, 1.0)
	pool := []Candidate{
		candidate(500, 1.0), candidate(900, 1.0), candidate(1100, 1.0),
		candidate(1400, 1.0), candidate(1900, 1.0), candidate(600, 1.0),
	}
	cfg := DefaultConfig()
	cfg.RingSize = 4
	res, err := SelectDecoys(real, pool, cfg, NewSeededStream(42))
	if err != nil {
		t.Fatal(err)
	}
	full := append([]Candidate{real}, res.Decoys...)
	if err := ValidateDecoys(real, full, cfg, res.RelaxStep); err != nil {
		t.Fatalf("selector output failed its own validation: %v", err)
	}
}
