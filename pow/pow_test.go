package pow

import "testing"

func TestTargetDecreasesAsDifficultyIncreases(t *testing.T) {
	low := Target(1)
	high := Target(1000)
	// A higher difficulty means a smaller (harder to satisfy) target.
	if !CheckProof(high, low) {
		t.Fatal("expected target at difficulty 1000 to be <= target at difficulty 1")
	}
	if CheckProof(low, high) {
		t.Fatal("did not expect the easier target to also satisfy the harder one")
	}
}

func TestCheckProofEqualHashSatisfiesTarget(t *testing.T) {
	target := Target(5)
	if !CheckProof(target, target) {
		t.Fatal("a hash equal to the target must satisfy it (spec: <=)")
	}
}

func TestTargetZeroDifficultyTreatedAsOne(t *testing.T) {
	if Target(0) != Target(1) {
		t.Fatal("expected difficulty 0 to behave like difficulty 1")
	}
}
