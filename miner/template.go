// Package miner assembles candidate blocks and searches for a
// proof-of-work nonce satisfying them. Template assembly is grounded on
// the teacher's mining.BlkTmplGenerator.NewBlockTemplate (mining.go):
// pull the best transactions out of the mempool, build the coinbase, and
// hand back a ready-to-solve block. The teacher's own nonce-search loop
// was not carried into this pack (mining.go there stops at template
// assembly), so the worker-pool search in solve.go follows spec.md's own
// concurrency-model instruction directly: each worker owns a disjoint
// nonce subrange and publishes a solution only through a channel, with no
// shared mutable mining state.
package miner

import (
	"time"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/lottery"
	"github.com/botho-project/botho/mempool"
	"github.com/botho-project/botho/monetary"
	"github.com/botho-project/botho/ringsig"
)

// MaxBlockTransactions bounds how many mempool transactions one template
// pulls in, mirroring the teacher's policy.BlockMaxMass cap in spirit
// (mining.go's NewBlockTemplate also bounds candidate selection).
const MaxBlockTransactions = 4096

// Template is a fully assembled, unsolved block plus the bookkeeping the
// daemon's apply step needs once a nonce is found: the reward and total
// fees burned, which ledger.ApplyParams requires but botmsg.Block itself
// does not carry redundantly.
type Template struct {
	Block        *botmsg.Block
	Reward       uint64
	FeesBurned   uint64
	Difficulty   uint32 // the difficulty this block's PoW must satisfy
}

// BuildTemplate assembles a candidate block extending the ledger's
// current tip (or a genesis block if the ledger is empty), paying the
// block reward to minter's stealth address.
func BuildTemplate(l *ledger.Ledger, mp *mempool.Mempool, ctrl *monetary.Controller, params chaincfg.Params, minter ringsig.Subaddress, now time.Time) (*Template, error) {
	cs, hasState, err := l.ChainState()
	if err != nil {
		return nil, err
	}

	var height uint64
	var prevHash botmsg.Hash
	if hasState {
		height = cs.Height + 1
		prevHash = cs.TipHash
	}

	txs := mp.SelectForBlock(MaxBlockTransactions)
	deref := make([]botmsg.Transaction, len(txs))
	var totalFees uint64
	for i, t := range txs {
		deref[i] = *t
		totalFees += t.Fee
	}

	candidates, err := l.LotteryCandidates(cs.Height)
	if err != nil {
		return nil, err
	}
	result, err := lottery.Draw(candidates, prevHash, height, totalFees, params.Lottery)
	if err != nil {
		return nil, err
	}
	lotteryOutputs := lottery.BuildLotteryOutputs(result)

	reward := ctrl.BlockReward(height)
	mintingTx, err := buildMintingTx(minter, reward, height)
	if err != nil {
		return nil, err
	}

	allTxs := make([]*botmsg.Transaction, 0, len(deref)+1)
	allTxs = append(allTxs, mintingTx)
	for i := range deref {
		allTxs = append(allTxs, &deref[i])
	}
	hashes := make([]botmsg.Hash, len(allTxs))
	for i, t := range allTxs {
		h, err := t.Hash()
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}

	header := botmsg.BlockHeader{
		Version:         1,
		PrevHash:        prevHash,
		TxMerkleRoot:    botmsg.MerkleRoot(hashes),
		Timestamp:       now.Unix(),
		Height:          height,
		Difficulty:      ctrl.Difficulty,
		MinterTargetKey: mintingTx.Outputs[0].TargetKey,
		MinterPublicKey: mintingTx.Outputs[0].PublicKey,
	}
	if !hasState {
		header.Timestamp = params.GenesisTimestamp
		header.Difficulty = params.GenesisDifficulty
	}

	block := &botmsg.Block{
		Header:         header,
		MintingTx:      *mintingTx,
		Transactions:   deref,
		LotteryOutputs: lotteryOutputs,
		LotterySummary: lottery.Summary(totalFees, result),
	}

	return &Template{
		Block:      block,
		Reward:     reward,
		FeesBurned: block.LotterySummary.AmountBurned,
		Difficulty: header.Difficulty,
	}, nil
}

// buildMintingTx mints a single output paying reward to a fresh stealth
// one-time key derived from minter (spec §3: stealth one-time keys, the
// same derivation package txbuilder uses for ordinary recipients).
func buildMintingTx(minter ringsig.Subaddress, reward, height uint64) (*botmsg.Transaction, error) {
	out, _, err := ringsig.DeriveOneTimeKey(minter)
	if err != nil {
		return nil, err
	}
	return &botmsg.Transaction{
		Outputs: []botmsg.TxOut{{
			Amount:      reward,
			TargetKey:   ringsig.EncodePoint(out.TargetKey),
			PublicKey:   ringsig.EncodePoint(out.TxPub),
			ClusterTags: clustertag.Empty(),
		}},
		CreatedAtHeight: height,
	}, nil
}
