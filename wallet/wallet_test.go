package wallet

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	payload := []byte(`{"spend_key":"deadbeef"}`)
	f, err := Encrypt(payload, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	got, err := Decrypt(f, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, payload)
	}
}

func TestDecryptRejectsWrongPassword(t *testing.T) {
	f, err := Encrypt([]byte("secret"), []byte("right"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(f, []byte("wrong")); err == nil {
		t.Fatal("expected decryption failure with wrong password")
	}
}

func TestChangePasswordIsIdempotentUnderNewPassword(t *testing.T) {
	payload := []byte("wallet seed material")
	f, err := Encrypt(payload, []byte("old-pass"))
	if err != nil {
		t.Fatal(err)
	}
	f.SyncHeight = 12345
	f.Network = "mainnet"

	changed, err := ChangePassword(f, []byte("old-pass"), []byte("new-pass"))
	if err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if changed.SyncHeight != f.SyncHeight || changed.Network != f.Network {
		t.Fatal("expected plaintext bookkeeping fields to carry over unchanged")
	}

	got, err := Decrypt(changed, []byte("new-pass"))
	if err != nil {
		t.Fatalf("Decrypt under new password failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("decrypt(change(old,new), new) != decrypt(old, old): got %q, want %q", got, payload)
	}

	if _, err := Decrypt(changed, []byte("old-pass")); err == nil {
		t.Fatal("expected old password to no longer decrypt the changed wallet")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.dat")

	f, err := Encrypt([]byte("payload"), []byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	f.SyncHeight = 99
	f.Network = "testnet"

	if err := Save(path, f); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SyncHeight != 99 || loaded.Network != "testnet" {
		t.Fatal("loaded wallet file does not match saved fields")
	}
	got, err := Decrypt(loaded, []byte("pw"))
	if err != nil {
		t.Fatalf("Decrypt after Save/Load failed: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
}

func TestRateLimiterAllowsWhileClean(t *testing.T) {
	r := NewRateLimiter()
	if err := r.CheckAttempt(time.Now()); err != nil {
		t.Fatalf("expected clean limiter to allow, got %v", err)
	}
}

func TestRateLimiterEnforcesBackoffDelay(t *testing.T) {
	r := NewRateLimiter()
	start := time.Now()
	r.OnFailure(start)

	if err := r.CheckAttempt(start.Add(500 * time.Millisecond)); err == nil {
		t.Fatal("expected rejection before the 1000ms first-failure delay elapses")
	}
	if err := r.CheckAttempt(start.Add(1100 * time.Millisecond)); err != nil {
		t.Fatalf("expected attempt to be allowed once the delay elapses, got %v", err)
	}
}

func TestRateLimiterDelaySchedule(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{9, 256000 * time.Millisecond},
		{10, 300000 * time.Millisecond},
		{30, 300000 * time.Millisecond},
	}
	for _, c := range cases {
		if got := delayFor(c.failures); got != c.want {
			t.Errorf("delayFor(%d) = %v, want %v", c.failures, got, c.want)
		}
	}
}

func TestRateLimiterLocksOutAfterThreshold(t *testing.T) {
	r := NewRateLimiter()
	now := time.Now()
	for i := 0; i < lockoutThreshold; i++ {
		r.OnFailure(now)
	}
	// Even long after the schedule's own delay has elapsed, a limiter at
	// or past the lockout threshold continues to reject attempts.
	err := r.CheckAttempt(now.Add(24 * time.Hour))
	if err == nil {
		t.Fatal("expected lockout to persist past the backoff window")
	}
}

func TestRateLimiterResetsOnSuccess(t *testing.T) {
	r := NewRateLimiter()
	now := time.Now()
	r.OnFailure(now)
	r.OnSuccess()
	if err := r.CheckAttempt(now); err != nil {
		t.Fatalf("expected success to clear the cooldown immediately, got %v", err)
	}
	if r.State().ConsecutiveFailures != 0 {
		t.Fatal("expected consecutive failures to reset to 0 after success")
	}
}

func TestLimiterStateSaveLoadDegradesOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rate_limiter.json")

	s := LoadLimiterState(path)
	if s.ConsecutiveFailures != 0 {
		t.Fatal("expected missing file to degrade to a fresh Clean counter")
	}

	want := LimiterState{ConsecutiveFailures: 3, LastFailureTimeMs: 123456}
	if err := SaveLimiterState(path, want); err != nil {
		t.Fatalf("SaveLimiterState failed: %v", err)
	}
	got := LoadLimiterState(path)
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
