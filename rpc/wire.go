package rpc

import (
	"time"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/pex"
)

// blockHeaderResult is the JSON-friendly projection of botmsg.BlockHeader
// getBlockByHeight returns (RPC consumers get hex strings, not raw wire
// bytes).
type blockHeaderResult struct {
	Version    uint32 `json:"version"`
	PrevHash   string `json:"prevHash"`
	MerkleRoot string `json:"merkleRoot"`
	Timestamp  int64  `json:"timestamp"`
	Height     uint64 `json:"height"`
	Difficulty uint32 `json:"difficulty"`
	Nonce      uint64 `json:"nonce"`
}

type blockResult struct {
	Header         blockHeaderResult `json:"header"`
	MintingTx      txResult          `json:"mintingTx"`
	TransactionCount int             `json:"transactionCount"`
	LotterySummary lotterySummaryResult `json:"lotterySummary"`
}

type lotterySummaryResult struct {
	TotalFees       uint64 `json:"totalFees"`
	PoolDistributed uint64 `json:"poolDistributed"`
	AmountBurned    uint64 `json:"amountBurned"`
	Seed            string `json:"seed"`
}

func blockToWire(block *botmsg.Block) (blockResult, error) {
	mintingHash, err := block.MintingTx.Hash()
	if err != nil {
		return blockResult{}, err
	}
	return blockResult{
		Header: blockHeaderResult{
			Version:    block.Header.Version,
			PrevHash:   block.Header.PrevHash.String(),
			MerkleRoot: block.Header.TxMerkleRoot.String(),
			Timestamp:  block.Header.Timestamp,
			Height:     block.Header.Height,
			Difficulty: block.Header.Difficulty,
			Nonce:      block.Header.Nonce,
		},
		MintingTx:        txToResult(mintingHash, &block.MintingTx),
		TransactionCount: len(block.Transactions),
		LotterySummary: lotterySummaryResult{
			TotalFees:       block.LotterySummary.TotalFees,
			PoolDistributed: block.LotterySummary.PoolDistributed,
			AmountBurned:    block.LotterySummary.AmountBurned,
			Seed:            block.LotterySummary.Seed.String(),
		},
	}, nil
}

func protocolVersionString(p chaincfg.Params) string {
	v := pex.ProtocolVersion{Major: p.ProtocolVersionMajor, Minor: p.ProtocolVersionMinor, Patch: p.ProtocolVersionPatch}
	return v.String()
}

func timeSinceSeconds(t time.Time) float64 {
	return time.Since(t).Seconds()
}
