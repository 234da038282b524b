package pex

import (
	"sync"
	"time"

	"github.com/botho-project/botho/bterrors"
)

// perPeerWindow tracks one peer's PEX message timestamps within the
// trailing hour, enforcing MaxPerHour (spec §4.9).
type perPeerWindow struct {
	times []time.Time
}

// RateLimiter enforces MAX_PEX_PER_HOUR per peer (spec §4.9).
type RateLimiter struct {
	mu    sync.Mutex
	cfg   Config
	peers map[PeerID]*perPeerWindow
}

// NewRateLimiter constructs an empty per-peer PEX rate limiter.
func NewRateLimiter(cfg Config) *RateLimiter {
	return &RateLimiter{cfg: cfg, peers: make(map[PeerID]*perPeerWindow)}
}

// Allow records one PEX message from peer at now and reports whether it
// is within the hourly quota; it returns a QuotaError carrying the
// remaining allowance when the peer is over quota (spec §7: "Resource
// exhaustion ... rejected with a typed error that carries remaining-quota
// info").
func (r *RateLimiter) Allow(peer PeerID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.peers[peer]
	if !ok {
		w = &perPeerWindow{}
		r.peers[peer] = w
	}

	cutoff := now.Add(-time.Hour)
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept

	if len(w.times) >= r.cfg.MaxPerHour {
		return bterrors.QuotaError{Kind: "pex_per_hour", Remaining: 0}
	}
	w.times = append(w.times, now)
	return nil
}
