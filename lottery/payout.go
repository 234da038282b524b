package lottery

import "github.com/botho-project/botho/botmsg"

// BuildLotteryOutputs turns a draw result's winners into the block's
// LotteryOutputs: each winning UtxoId is bound to a freshly minted output
// paying payoutPerWinner picocredits to the winner's existing target key
// (spec §4.6: "paid to the winner's target key"). Unlike a regular
// transfer, the recipient is already publicly the winner, so there is no
// need to mint a new stealth one-time key — the existing output's target
// key is reused as the payout destination.
func BuildLotteryOutputs(result *Result) []botmsg.LotteryOutput {
	outs := make([]botmsg.LotteryOutput, 0, len(result.Winners))
	for _, w := range result.Winners {
		outs = append(outs, botmsg.LotteryOutput{
			WinnerUtxoId: w.UtxoId,
			Output: botmsg.TxOut{
				Amount:    result.PayoutPerWinner,
				TargetKey: w.TargetKey,
			},
		})
	}
	return outs
}

// Summary converts a draw Result into the block-level LotterySummary
// carried in botmsg.Block.
func Summary(totalFees uint64, result *Result) botmsg.LotterySummary {
	return botmsg.LotterySummary{
		TotalFees:       totalFees,
		PoolDistributed: result.PoolAmount,
		AmountBurned:    result.AmountBurned,
		Seed:            result.Seed,
	}
}
