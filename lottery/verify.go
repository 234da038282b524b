package lottery

import (
	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/bterrors"
)

// Verify re-derives the lottery outcome from the claimed candidate set
// and checks it against result, the outcome recorded in a candidate
// block. Any mismatch invalidates the block (spec §4.6).
func Verify(candidates []Candidate, result Result, prevBlockHash botmsg.Hash, height uint64, totalFees uint64, cfg Config) error {
	want, err := Draw(candidates, prevBlockHash, height, totalFees, cfg)
	if err != nil {
		return err
	}

	if want.Seed != result.Seed {
		return bterrors.New(bterrors.ErrLotterySeedMismatch,
			"lottery: expected seed %s, got %s", want.Seed, result.Seed)
	}
	if want.PoolAmount != result.PoolAmount || want.AmountBurned != result.AmountBurned {
		return bterrors.New(bterrors.ErrLotteryPayoutMismatch,
			"lottery: expected pool=%d burn=%d, got pool=%d burn=%d",
			want.PoolAmount, want.AmountBurned, result.PoolAmount, result.AmountBurned)
	}
	if len(want.Winners) != len(result.Winners) {
		return bterrors.New(bterrors.ErrLotteryWinnerMismatch,
			"lottery: expected %d winners, got %d", len(want.Winners), len(result.Winners))
	}
	for i := range want.Winners {
		if want.Winners[i].UtxoId != result.Winners[i].UtxoId {
			return bterrors.New(bterrors.ErrLotteryWinnerMismatch,
				"lottery: winner %d mismatch: expected %v, got %v",
				i, want.Winners[i].UtxoId.Bytes(), result.Winners[i].UtxoId.Bytes())
		}
	}
	if want.PayoutPerWinner != result.PayoutPerWinner {
		return bterrors.New(bterrors.ErrLotteryPayoutMismatch,
			"lottery: expected payout-per-winner %d, got %d",
			want.PayoutPerWinner, result.PayoutPerWinner)
	}
	return nil
}
