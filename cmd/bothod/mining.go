package main

import (
	"context"
	"time"

	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/mempool"
	"github.com/botho-project/botho/miner"
	"github.com/botho-project/botho/monetary"
	"github.com/botho-project/botho/pow"
	"github.com/botho-project/botho/ringsig"
	"github.com/botho-project/botho/validator"
)

// mineLoop repeatedly assembles a candidate block, searches for a
// satisfying nonce, validates it the same way an incoming block would be
// validated, and applies it -- until ctx is canceled. Each iteration's
// nonce search runs in its own worker pool (package miner), per spec.md's
// concurrency model.
func mineLoop(ctx context.Context, l *ledger.Ledger, mp *mempool.Mempool, ctrl *monetary.Controller, params chaincfg.Params, minterAddr ringsig.Subaddress, workers int) {
	solveCfg := miner.DefaultSolveConfig(workers)
	validatorCfg := validator.DefaultConfig()
	validatorCfg.FeeCurve = params.FeeCurve
	validatorCfg.Lottery = params.Lottery

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tmpl, err := miner.BuildTemplate(l, mp, ctrl, params, minterAddr, time.Now())
		if err != nil {
			minrLog.Errorf("building block template: %v", err)
			time.Sleep(time.Second)
			continue
		}

		nonce, _, err := miner.Solve(ctx, tmpl, solveCfg)
		if err != nil {
			return // ctx canceled
		}
		tmpl.Block.Header.Nonce = nonce

		if err := validator.Validate(l, ctrl, tmpl.Block, validatorCfg, time.Now()); err != nil {
			minrLog.Warnf("mined block failed self-validation, discarding: %v", err)
			continue
		}

		if err := applyMinedBlock(l, ctrl, tmpl); err != nil {
			minrLog.Errorf("applying mined block: %v", err)
			continue
		}

		for _, t := range tmpl.Block.Transactions {
			hash, err := t.Hash()
			if err == nil {
				mp.Remove(hash)
			}
		}

		minrLog.Infof("mined block %d (%d txs, reward %d)", tmpl.Block.Header.Height, len(tmpl.Block.Transactions), tmpl.Reward)
	}
}

// applyMinedBlock persists tmpl's block and advances ctrl, mirroring the
// exact bookkeeping ledger.AddBlock/monetary.Controller.Advance expect:
// the next difficulty is only recomputed when this block completes the
// current adjustment epoch, matching the epoch-reset condition
// Controller.Advance itself applies after the fact.
func applyMinedBlock(l *ledger.Ledger, ctrl *monetary.Controller, tmpl *miner.Template) error {
	block := tmpl.Block

	prospective := ctrl.Epoch
	prospective.Blocks++
	prospective.RewardsIssued += tmpl.Reward
	prospective.FeesBurned += tmpl.FeesBurned
	if prospective.StartTime == 0 {
		prospective.StartTime = block.Header.Timestamp
	}
	prospective.EndTime = block.Header.Timestamp

	nextDifficulty := ctrl.Difficulty
	nextEpoch := uint64(0)
	if cs, ok, err := l.ChainState(); err == nil && ok {
		nextEpoch = cs.EmissionEpoch
	}
	if prospective.Blocks >= ctrl.Cfg.DifficultyAdjustmentInterval {
		nextDifficulty = ctrl.NextDifficulty(block.Header.Height, prospective)
		nextEpoch++
	}

	err := l.AddBlock(ledger.ApplyParams{
		Block:          block,
		PoWTarget:      pow.Target(block.Header.Difficulty),
		BlockReward:    tmpl.Reward,
		NextDifficulty: nextDifficulty,
		EmissionEpoch:  nextEpoch,
	})
	if err != nil {
		return err
	}

	ctrl.Advance(block.Header.Height, tmpl.Reward, tmpl.FeesBurned, block.Header.Timestamp, nextDifficulty)
	return nil
}
