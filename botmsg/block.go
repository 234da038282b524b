package botmsg

import (
	"bytes"
	"io"
)

// BlockHeader carries the fields that are hashed for PoW (spec §3/§4.8).
// Unlike the teacher's DAG block header (multiple ParentHashes, blue
// score), Botho is a single-chain ledger, so there is exactly one
// PrevHash.
type BlockHeader struct {
	Version      uint32
	PrevHash     Hash
	TxMerkleRoot Hash
	Timestamp    int64 // unix seconds
	Height       uint64
	Difficulty   uint32 // scalar difficulty; pow.Target converts it to the 256-bit target
	Nonce        uint64

	// MinterTargetKey/MinterPublicKey are the stealth keys the block
	// reward (minting transaction) pays to; carried in the header so PoW
	// commits to the intended recipient.
	MinterTargetKey [32]byte
	MinterPublicKey [32]byte
}

func (h *BlockHeader) encode(w io.Writer) error {
	if err := writeUint32(w, h.Version); err != nil {
		return err
	}
	if err := writeHash(w, h.PrevHash); err != nil {
		return err
	}
	if err := writeHash(w, h.TxMerkleRoot); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(h.Timestamp)); err != nil {
		return err
	}
	if err := writeUint64(w, h.Height); err != nil {
		return err
	}
	if err := writeUint32(w, h.Difficulty); err != nil {
		return err
	}
	if err := writeUint64(w, h.Nonce); err != nil {
		return err
	}
	if err := writeFixedBytes(w, h.MinterTargetKey[:]); err != nil {
		return err
	}
	return writeFixedBytes(w, h.MinterPublicKey[:])
}

func decodeBlockHeader(r io.Reader) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.Version, err = readUint32(r); err != nil {
		return h, err
	}
	if h.PrevHash, err = readHash(r); err != nil {
		return h, err
	}
	if h.TxMerkleRoot, err = readHash(r); err != nil {
		return h, err
	}
	ts, err := readUint64(r)
	if err != nil {
		return h, err
	}
	h.Timestamp = int64(ts)
	if h.Height, err = readUint64(r); err != nil {
		return h, err
	}
	if h.Difficulty, err = readUint32(r); err != nil {
		return h, err
	}
	if h.Nonce, err = readUint64(r); err != nil {
		return h, err
	}
	tk, err := readFixedBytes(r, 32)
	if err != nil {
		return h, err
	}
	copy(h.MinterTargetKey[:], tk)
	pk, err := readFixedBytes(r, 32)
	if err != nil {
		return h, err
	}
	copy(h.MinterPublicKey[:], pk)
	return h, nil
}

// Serialize returns the header's canonical byte serialization.
func (h *BlockHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeHeader writes the header's canonical wire encoding to w, exported
// for callers (e.g. package gossip's header-only sync messages) outside
// botmsg that need just the header, not a full block.
func (h *BlockHeader) EncodeHeader(w io.Writer) error {
	return h.encode(w)
}

// DecodeHeader reads a BlockHeader from r.
func DecodeHeader(r io.Reader) (*BlockHeader, error) {
	h, err := decodeBlockHeader(r)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Hash computes the block identifier (and PoW input) hash for this header.
func (h *BlockHeader) Hash() (Hash, error) {
	data, err := h.Serialize()
	if err != nil {
		return Hash{}, err
	}
	return SumHash(data), nil
}

// IsGenesis reports whether this header has no predecessor.
func (h *BlockHeader) IsGenesis() bool {
	return h.Height == 0 && h.PrevHash.IsZero()
}

func (lo *LotteryOutput) encode(w io.Writer) error {
	idBytes := lo.WinnerUtxoId.Bytes()
	if err := writeFixedBytes(w, idBytes[:]); err != nil {
		return err
	}
	return lo.Output.encode(w)
}

func decodeLotteryOutput(r io.Reader) (LotteryOutput, error) {
	var lo LotteryOutput
	idBytes, err := readFixedBytes(r, UtxoIdSize)
	if err != nil {
		return lo, err
	}
	id, err := UtxoIdFromBytes(idBytes)
	if err != nil {
		return lo, err
	}
	out, err := decodeTxOut(r)
	if err != nil {
		return lo, err
	}
	lo.WinnerUtxoId = id
	lo.Output = out
	return lo, nil
}

func (ls *LotterySummary) encode(w io.Writer) error {
	if err := writeUint64(w, ls.TotalFees); err != nil {
		return err
	}
	if err := writeUint64(w, ls.PoolDistributed); err != nil {
		return err
	}
	if err := writeUint64(w, ls.AmountBurned); err != nil {
		return err
	}
	return writeHash(w, ls.Seed)
}

func decodeLotterySummary(r io.Reader) (LotterySummary, error) {
	var ls LotterySummary
	var err error
	if ls.TotalFees, err = readUint64(r); err != nil {
		return ls, err
	}
	if ls.PoolDistributed, err = readUint64(r); err != nil {
		return ls, err
	}
	if ls.AmountBurned, err = readUint64(r); err != nil {
		return ls, err
	}
	if ls.Seed, err = readHash(r); err != nil {
		return ls, err
	}
	return ls, nil
}

// LotteryOutput binds a winning UtxoId to a newly minted stealth output
// paid to the winner's target key (spec §4.6).
type LotteryOutput struct {
	WinnerUtxoId UtxoId
	Output       TxOut
}

// LotterySummary records the outcome of a block's lottery draw (spec §4.6).
type LotterySummary struct {
	TotalFees       uint64
	PoolDistributed uint64
	AmountBurned    uint64
	Seed            Hash
}

// Block is a full block: header, coinbase, regular transactions, and the
// lottery outcome (spec §3).
type Block struct {
	Header         BlockHeader
	MintingTx      Transaction
	Transactions   []Transaction
	LotteryOutputs []LotteryOutput
	LotterySummary LotterySummary
}

// AllTransactions returns the minting transaction followed by all regular
// transactions, the order used for merkle-root computation.
func (b *Block) AllTransactions() []*Transaction {
	out := make([]*Transaction, 0, len(b.Transactions)+1)
	out = append(out, &b.MintingTx)
	for i := range b.Transactions {
		out = append(out, &b.Transactions[i])
	}
	return out
}

// Encode writes the block's canonical serialization to w: header,
// minting transaction, regular transactions, lottery outputs, and lottery
// summary, each length-prefixed where the count can vary.
func (b *Block) Encode(w io.Writer) error {
	if err := b.Header.encode(w); err != nil {
		return err
	}
	if err := b.MintingTx.Encode(w); err != nil {
		return err
	}
	if err := writeCollectionLen(w, len(b.Transactions)); err != nil {
		return err
	}
	for i := range b.Transactions {
		if err := b.Transactions[i].Encode(w); err != nil {
			return err
		}
	}
	if err := writeCollectionLen(w, len(b.LotteryOutputs)); err != nil {
		return err
	}
	for i := range b.LotteryOutputs {
		if err := b.LotteryOutputs[i].encode(w); err != nil {
			return err
		}
	}
	return b.LotterySummary.encode(w)
}

// Serialize returns the block's canonical byte serialization.
func (b *Block) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBlock reads a block from r.
func DecodeBlock(r io.Reader) (*Block, error) {
	b := &Block{}
	header, err := decodeBlockHeader(r)
	if err != nil {
		return nil, err
	}
	b.Header = header

	mintingTx, err := DecodeTransaction(r)
	if err != nil {
		return nil, err
	}
	b.MintingTx = *mintingTx

	n, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	b.Transactions = make([]Transaction, n)
	for i := 0; i < n; i++ {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		b.Transactions[i] = *tx
	}

	m, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	b.LotteryOutputs = make([]LotteryOutput, m)
	for i := 0; i < m; i++ {
		lo, err := decodeLotteryOutput(r)
		if err != nil {
			return nil, err
		}
		b.LotteryOutputs[i] = lo
	}

	summary, err := decodeLotterySummary(r)
	if err != nil {
		return nil, err
	}
	b.LotterySummary = summary
	return b, nil
}

// MerkleRoot computes a simple Merkle root (BLAKE3, Bitcoin-style binary
// tree with last-node duplication on odd levels) over the block's
// transaction hashes.
func MerkleRoot(txHashes []Hash) Hash {
	if len(txHashes) == 0 {
		return Hash{}
	}
	level := make([]Hash, len(txHashes))
	copy(level, txHashes)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf bytes.Buffer
			buf.Write(level[2*i][:])
			buf.Write(level[2*i+1][:])
			next[i] = SumHash(buf.Bytes())
		}
		level = next
	}
	return level[0]
}
