package feecurve

import "testing"

func TestSplitFees(t *testing.T) {
	c := DefaultConfig()
	c.PoolFractionPermille = 800
	pool, burn := c.SplitFees(1000)
	if pool != 800 {
		t.Fatalf("expected pool 800, got %d", pool)
	}
	if burn != 200 {
		t.Fatalf("expected burn 200, got %d", burn)
	}
}

func TestRateBpsMonotonic(t *testing.T) {
	c := DefaultConfig()
	low := c.RateBps(0)
	mid := c.RateBps(c.WMid)
	high := c.RateBps(c.WMid * 100)

	if !(low < mid && mid < high) {
		t.Fatalf("expected monotonically increasing rate, got low=%f mid=%f high=%f", low, mid, high)
	}
	if low < float64(c.RMinBps)-0.01 || high > float64(c.RMaxBps)+0.01 {
		t.Fatalf("rate out of configured bounds: low=%f high=%f", low, high)
	}
}

func TestRateBpsMidpointIsHalfway(t *testing.T) {
	c := DefaultConfig()
	got := c.RateBps(c.WMid)
	want := (float64(c.RMinBps) + float64(c.RMaxBps)) / 2
	if got < want-1 || got > want+1 {
		t.Fatalf("expected midpoint rate near %f, got %f", want, got)
	}
}

func TestNominalFeeZeroOnZeroBasis(t *testing.T) {
	c := DefaultConfig()
	if got := c.NominalFee(c.RateBps(0), 0); got != 0 {
		t.Fatalf("expected zero fee for zero basis, got %d", got)
	}
}
