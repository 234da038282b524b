package miner

import (
	"context"
	"math"
	"time"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/pow"
)

// SolveConfig bounds a nonce search.
type SolveConfig struct {
	Workers int // number of concurrent nonce-searching goroutines

	// RetargetEvery is carried in the config, but Solve does not read it:
	// each worker hashes the copy of tmpl.Block.Header taken when Solve
	// starts, and header changes made after that are not picked up.
	RetargetEvery time.Duration
}

// DefaultSolveConfig returns a config using the given worker count (at
// least 1) and a RetargetEvery of 250ms. It does not detect the number of
// available cores itself; the caller passes the count in.
func DefaultSolveConfig(workers int) SolveConfig {
	if workers < 1 {
		workers = 1
	}
	return SolveConfig{Workers: workers, RetargetEvery: 250 * time.Millisecond}
}

// solution is what a worker publishes over the results channel: the nonce
// it found and the header hash it produced, so Solve never has to
// recompute or re-trust the worker's claim.
type solution struct {
	nonce uint64
	hash  botmsg.Hash
}

// Solve searches for a nonce satisfying tmpl's target, spreading the
// search across cfg.Workers goroutines. Each worker owns a disjoint nonce
// subrange (spec.md's concurrency model: "Mining threads own their own
// nonce range and publish only through a channel; no shared-mutable
// mining state") and works on its own private copy of the header, so no
// worker ever mutates state another worker reads. Solve returns the first
// solution found, or ctx.Err() if ctx is canceled first (e.g. because a
// competing block arrived on the network).
func Solve(ctx context.Context, tmpl *Template, cfg SolveConfig) (nonce uint64, blockHash botmsg.Hash, err error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	target := pow.Target(tmpl.Difficulty)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan solution, cfg.Workers)
	span := uint64(math.MaxUint64) / uint64(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		start := uint64(w) * span
		end := uint64(math.MaxUint64)
		if w != cfg.Workers-1 {
			end = start + span
		}
		header := tmpl.Block.Header // each worker gets its own copy
		go searchRange(workerCtx, &header, start, end, target, results)
	}

	select {
	case sol := <-results:
		cancel()
		return sol.nonce, sol.hash, nil
	case <-ctx.Done():
		return 0, botmsg.Hash{}, ctx.Err()
	}
}

// searchRange is one worker's nonce loop: it owns header (a private copy)
// and [start, end) exclusively, publishing at most one solution.
func searchRange(ctx context.Context, header *botmsg.BlockHeader, start, end uint64, target botmsg.Hash, results chan<- solution) {
	const checkInterval = 4096
	for n := start; n < end; n++ {
		if n%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
		header.Nonce = n
		hash, err := header.Hash()
		if err != nil {
			return
		}
		if pow.CheckProof(hash, target) {
			select {
			case results <- solution{nonce: n, hash: hash}:
			case <-ctx.Done():
			}
			return
		}
	}
}
