package wallet

import (
	"encoding/json"
	"os"
	"time"

	"github.com/botho-project/botho/bterrors"
	"github.com/pkg/errors"
)

// lockoutThreshold is the consecutive-failure count spec.md §6 names as
// the rate limiter's lockout point.
const lockoutThreshold = 5

// delayFor returns the cooldown a caller must wait out after n consecutive
// failures, per spec.md §6's schedule: 1000 * 2^(n-1) ms, capped at
// 300_000ms (5 minutes).
func delayFor(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	const capMs = 300_000
	ms := int64(1000) << uint(failures-1)
	if failures > 20 || ms > capMs || ms <= 0 {
		ms = capMs
	}
	return time.Duration(ms) * time.Millisecond
}

// LimiterState is the persisted half of the rate limiter (spec §6's
// rate_limiter.json): a plain failure counter plus the time of the most
// recent failure. The zero value is the Clean state.
type LimiterState struct {
	ConsecutiveFailures int   `json:"consecutive_failures"`
	LastFailureTimeMs   int64 `json:"last_failure_time"`
}

// RateLimiter is the Clean/Cooling(n, since) finite-state-machine guarding
// wallet unlock attempts (spec §6). Success resets to Clean; Failure
// increments the counter and starts the cooldown timer; Tick (driven by an
// attempt's wall-clock time) determines whether the cooldown has elapsed.
type RateLimiter struct {
	state LimiterState
}

// NewRateLimiter returns a limiter in the Clean state.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{}
}

// FromState reconstructs a limiter from previously persisted state.
func FromState(s LimiterState) *RateLimiter {
	return &RateLimiter{state: s}
}

// State returns the limiter's current persisted state.
func (r *RateLimiter) State() LimiterState {
	return r.state
}

// OnSuccess transitions to Clean (event Success).
func (r *RateLimiter) OnSuccess() {
	r.state = LimiterState{}
}

// OnFailure transitions to Cooling(failures+1, now) (event Failure).
func (r *RateLimiter) OnFailure(now time.Time) {
	r.state.ConsecutiveFailures++
	r.state.LastFailureTimeMs = now.UnixMilli()
}

// CheckAttempt is the Tick event: it reports whether an attempt at now is
// permitted. A Clean limiter always permits. A Cooling limiter permits
// once its schedule-determined delay has elapsed since the last failure;
// otherwise it returns bterrors.RateLimitError with the consecutive
// failure count and the attempts remaining before lockout.
func (r *RateLimiter) CheckAttempt(now time.Time) error {
	if r.state.ConsecutiveFailures == 0 {
		return nil
	}
	remaining := lockoutThreshold - r.state.ConsecutiveFailures
	if remaining < 0 {
		remaining = 0
	}
	delay := delayFor(r.state.ConsecutiveFailures)
	lastFailure := time.UnixMilli(r.state.LastFailureTimeMs)
	if now.Sub(lastFailure) < delay {
		return bterrors.RateLimitError{Violations: r.state.ConsecutiveFailures, Remaining: remaining}
	}
	if r.state.ConsecutiveFailures >= lockoutThreshold {
		return bterrors.RateLimitError{Violations: r.state.ConsecutiveFailures, Remaining: 0}
	}
	return nil
}

// SaveLimiterState persists s to path with the spec-mandated owner-only
// mode.
func SaveLimiterState(path string, s LimiterState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "wallet: encoding rate limiter state")
	}
	return os.WriteFile(path, data, filePerm)
}

// LoadLimiterState reads rate limiter state from path. A missing or
// corrupt file degrades to a fresh Clean counter rather than failing the
// caller (spec §6: rate limiting is advisory-recoverable, not a hard
// dependency for wallet operation).
func LoadLimiterState(path string) LimiterState {
	data, err := os.ReadFile(path)
	if err != nil {
		return LimiterState{}
	}
	var s LimiterState
	if err := json.Unmarshal(data, &s); err != nil {
		return LimiterState{}
	}
	return s
}
