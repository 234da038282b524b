// Package validator implements Botho's block validator (spec §4.8): the
// eight ordered, fatal-on-first-failure checks a candidate block must
// pass before the ledger will apply it. Grounded on the teacher's
// blockdag/validate.go and blockdag/process.go (sequential rule checks,
// ruleError-style error reporting, ProcessBlock/processBlockNoLock
// shape), adapted to Botho's single-chain, ring-signed, cluster-taxed
// block format.
package validator

import (
	"time"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/bterrors"
	"github.com/botho-project/botho/feecurve"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/lottery"
	"github.com/botho-project/botho/monetary"
	"github.com/botho-project/botho/pow"
)

// Config bounds the validator's non-consensus-critical tolerances.
type Config struct {
	MaxFutureDrift time.Duration // spec §4.8 check 3 "now + drift"
	FeeCurve       feecurve.Config
	Lottery        lottery.Config
}

// DefaultConfig returns Botho's reference validator tolerances.
func DefaultConfig() Config {
	return Config{
		MaxFutureDrift: 2 * time.Hour,
		FeeCurve:       feecurve.DefaultConfig(),
		Lottery:        lottery.DefaultConfig(),
	}
}

// Validate runs the eight ordered checks of spec §4.8 against a candidate
// block. It takes the ledger and the monetary controller by parameter
// (Design Notes §9: breaking the ledger/controller/validator cycle; the
// validator has no back-edge to either) and never mutates either.
func Validate(l *ledger.Ledger, ctrl *monetary.Controller, block *botmsg.Block, cfg Config, now time.Time) error {
	cs, hasState, err := l.ChainState()
	if err != nil {
		return err
	}

	// Check 1: height and prev-hash linkage.
	if hasState {
		if block.Header.Height != cs.Height+1 {
			return bterrors.New(bterrors.ErrBadBlockHeight,
				"expected height %d, got %d", cs.Height+1, block.Header.Height)
		}
		if block.Header.PrevHash != cs.TipHash {
			return bterrors.New(bterrors.ErrBadPrevHash, "prev hash does not match tip")
		}
	} else if !block.Header.IsGenesis() {
		return bterrors.New(bterrors.ErrUnknownParent, "ledger is empty, expected a genesis block")
	}

	// Check 2: proof of work.
	blockHash, err := block.Header.Hash()
	if err != nil {
		return err
	}
	target := pow.Target(block.Header.Difficulty)
	if !pow.CheckProof(blockHash, target) {
		return bterrors.New(bterrors.ErrHighHash, "block hash exceeds difficulty target")
	}

	// Check 3: timestamp bounds.
	if hasState && block.Header.Timestamp < cs.TipTimestamp {
		return bterrors.New(bterrors.ErrBlockTimestampTooOld,
			"block timestamp %d precedes tip timestamp %d", block.Header.Timestamp, cs.TipTimestamp)
	}
	if block.Header.Timestamp > now.Add(cfg.MaxFutureDrift).Unix() {
		return bterrors.New(bterrors.ErrBlockTimestampTooNew,
			"block timestamp %d is too far in the future", block.Header.Timestamp)
	}

	// Check 4: merkle root.
	allTxs := block.AllTransactions()
	hashes := make([]botmsg.Hash, len(allTxs))
	for i, t := range allTxs {
		h, err := t.Hash()
		if err != nil {
			return err
		}
		hashes[i] = h
	}
	if botmsg.MerkleRoot(hashes) != block.Header.TxMerkleRoot {
		return bterrors.New(bterrors.ErrBadMerkleRoot, "transaction merkle root mismatch")
	}

	// Check 5: per-transaction structural, fee, signature, key-image,
	// and tombstone checks.
	var totalFees uint64
	for _, t := range block.Transactions {
		if err := validateTransaction(l, t, block.Header.Height, cfg); err != nil {
			return err
		}
		totalFees += t.Fee
	}

	// Check 6: declared lottery total_fees matches the sum of tx fees.
	if block.LotterySummary.TotalFees != totalFees {
		return bterrors.New(bterrors.ErrLotteryPayoutMismatch,
			"lottery summary total_fees %d does not match sum of tx fees %d",
			block.LotterySummary.TotalFees, totalFees)
	}

	// Check 7: lottery validation against the pre-application eligible
	// set. SPEC_FULL.md §4.6 resolves the Open Question: the snapshot is
	// taken at the current tip height (i.e. the state after block h-1,
	// before h is applied) -- exactly the ledger state Validate itself is
	// reading right now.
	candidates, err := l.LotteryCandidates(cs.Height)
	if err != nil {
		return err
	}
	if err := lottery.Verify(candidates, resultFromBlock(block), block.Header.PrevHash, block.Header.Height, totalFees, cfg.Lottery); err != nil {
		return err
	}

	// Check 8: minting transaction reward.
	wantReward := ctrl.BlockReward(block.Header.Height)
	gotReward := mintedAmount(&block.MintingTx)
	if gotReward != wantReward {
		return bterrors.New(bterrors.ErrFeeTooLow,
			"minting reward %d does not match controller's expected reward %d at height %d",
			gotReward, wantReward, block.Header.Height)
	}

	return nil
}

func mintedAmount(mintingTx *botmsg.Transaction) uint64 {
	var total uint64
	for _, o := range mintingTx.Outputs {
		total += o.Amount
	}
	return total
}

// resultFromBlock reconstructs a lottery.Result from a block's on-wire
// LotteryOutputs/LotterySummary, the shape lottery.Verify compares
// against a freshly re-run draw.
func resultFromBlock(block *botmsg.Block) lottery.Result {
	r := lottery.Result{
		Seed:         block.LotterySummary.Seed,
		PoolAmount:   block.LotterySummary.PoolDistributed,
		AmountBurned: block.LotterySummary.AmountBurned,
	}
	if len(block.LotteryOutputs) == 0 {
		return r
	}
	r.PayoutPerWinner = block.LotteryOutputs[0].Output.Amount
	r.Winners = make([]lottery.Candidate, len(block.LotteryOutputs))
	for i, lo := range block.LotteryOutputs {
		r.Winners[i] = lottery.Candidate{UtxoId: lo.WinnerUtxoId}
	}
	return r
}

// validateTransaction runs the structural/fee/signature/key-image/
// tombstone sub-checks of spec §4.8 check 5 against one transaction.
func validateTransaction(l *ledger.Ledger, t botmsg.Transaction, height uint64, cfg Config) error {
	if len(t.Outputs) == 0 {
		return bterrors.New(bterrors.ErrMissingUtxo, "transaction has no outputs")
	}
	if t.TombstoneBlock != 0 && t.TombstoneBlock < height {
		return bterrors.New(bterrors.ErrTransactionExpired,
			"transaction tombstone block %d is before current height %d", t.TombstoneBlock, height)
	}
	for i := range t.Inputs {
		seen := make(map[botmsg.UtxoId]bool, len(t.Inputs[i].Ring))
		for _, id := range t.Inputs[i].Ring {
			if seen[id] {
				return bterrors.New(bterrors.ErrDuplicateTxInRing, "ring contains duplicate utxo %s", id.TxHash)
			}
			seen[id] = true
		}
	}

	if err := l.VerifyTransaction(&t); err != nil {
		return err
	}
	if _, has, err := l.HasAnyKeyImage(&t); err != nil {
		return err
	} else if has {
		return bterrors.New(bterrors.ErrKeyImageReuse, "key image already spent")
	}

	minFee, err := minimumFee(l, t, cfg.FeeCurve)
	if err != nil {
		return err
	}
	if t.Fee < minFee {
		return bterrors.New(bterrors.ErrFeeTooLow, "fee %d below required minimum %d", t.Fee, minFee)
	}
	return nil
}

// minimumFee computes the fee the progressive cluster-tax curve requires
// for t, per spec §4.2. Because ring signatures hide which input is the
// real spender, the validator reads the transaction's own declared output
// cluster tags (set once, identically across every output, at
// construction time -- see package txbuilder) as the public stand-in for
// "the weighted cluster tags of the input set" the spec's formula
// references.
func minimumFee(l *ledger.Ledger, t botmsg.Transaction, cfg feecurve.Config) (uint64, error) {
	tags := t.Outputs[0].ClusterTags
	contributions := make([]feecurve.ClusterContribution, 0, tags.Len())
	for _, e := range tags.Entries() {
		wealth, err := l.ClusterWealth(e.ClusterID)
		if err != nil {
			return 0, err
		}
		contributions = append(contributions, feecurve.ClusterContribution{
			ClusterID: e.ClusterID,
			Weight:    e.Weight,
			Wealth:    wealth,
		})
	}
	rate := cfg.EffectiveRateBps(tags.Background(), contributions)

	var value uint64
	for _, o := range t.Outputs {
		value += o.Amount
	}
	return cfg.NominalFee(rate, value), nil
}
