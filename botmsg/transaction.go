package botmsg

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// TxIn is one signed input: a ring of candidate UTXOs (decoys plus the real
// spender, position hidden), the resulting key image, and the raw CLSAG
// signature bytes produced by package ringsig.
type TxIn struct {
	Ring      []UtxoId
	KeyImage  Hash
	Signature []byte
}

func (in *TxIn) encode(w io.Writer) error {
	if err := writeCollectionLen(w, len(in.Ring)); err != nil {
		return err
	}
	for _, id := range in.Ring {
		b := id.Bytes()
		if err := writeFixedBytes(w, b[:]); err != nil {
			return err
		}
	}
	if err := writeHash(w, in.KeyImage); err != nil {
		return err
	}
	if err := writeCollectionLen(w, len(in.Signature)); err != nil {
		return err
	}
	return writeFixedBytes(w, in.Signature)
}

func decodeTxIn(r io.Reader) (TxIn, error) {
	var in TxIn
	n, err := readCollectionLen(r)
	if err != nil {
		return in, err
	}
	in.Ring = make([]UtxoId, n)
	for i := 0; i < n; i++ {
		b, err := readFixedBytes(r, UtxoIdSize)
		if err != nil {
			return in, err
		}
		id, err := UtxoIdFromBytes(b)
		if err != nil {
			return in, err
		}
		in.Ring[i] = id
	}
	keyImage, err := readHash(r)
	if err != nil {
		return in, err
	}
	in.KeyImage = keyImage
	sigLen, err := readCollectionLen(r)
	if err != nil {
		return in, err
	}
	sig, err := readFixedBytes(r, sigLen)
	if err != nil {
		return in, err
	}
	in.Signature = sig
	return in, nil
}

// Transaction is a fully formed, (possibly) signed transaction (spec §3).
// A coinbase/minting transaction has zero Inputs.
type Transaction struct {
	Inputs          []TxIn
	Outputs         []TxOut
	Fee             uint64
	TombstoneBlock  uint64
	CreatedAtHeight uint64
}

// IsCoinbase reports whether this is a minting (coinbase) transaction.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// Encode writes the transaction's canonical serialization to w.
func (tx *Transaction) Encode(w io.Writer) error {
	if err := writeCollectionLen(w, len(tx.Inputs)); err != nil {
		return err
	}
	for i := range tx.Inputs {
		if err := tx.Inputs[i].encode(w); err != nil {
			return err
		}
	}
	if err := writeCollectionLen(w, len(tx.Outputs)); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := tx.Outputs[i].encode(w); err != nil {
			return err
		}
	}
	if err := writeUint64(w, tx.Fee); err != nil {
		return err
	}
	if err := writeUint64(w, tx.TombstoneBlock); err != nil {
		return err
	}
	return writeUint64(w, tx.CreatedAtHeight)
}

// DecodeTransaction reads a transaction from r.
func DecodeTransaction(r io.Reader) (*Transaction, error) {
	tx := &Transaction{}
	n, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]TxIn, n)
	for i := 0; i < n; i++ {
		in, err := decodeTxIn(r)
		if err != nil {
			return nil, errors.Wrap(err, "botmsg: decoding tx input")
		}
		tx.Inputs[i] = in
	}
	m, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]TxOut, m)
	for i := 0; i < m; i++ {
		out, err := decodeTxOut(r)
		if err != nil {
			return nil, errors.Wrap(err, "botmsg: decoding tx output")
		}
		tx.Outputs[i] = out
	}
	fee, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	tombstone, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	height, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	tx.Fee = fee
	tx.TombstoneBlock = tombstone
	tx.CreatedAtHeight = height
	return tx, nil
}

// Serialize returns the transaction's canonical byte serialization.
func (tx *Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the BLAKE3 digest of the transaction's canonical
// serialization (spec §3: "Transaction hash is the BLAKE3 of the canonical
// serialization").
func (tx *Transaction) Hash() (Hash, error) {
	data, err := tx.Serialize()
	if err != nil {
		return Hash{}, err
	}
	return SumHash(data), nil
}

// SigningHash returns the hash each input's ring signature signs: the
// transaction's canonical bytes with every input's Signature field left
// out (neither its bytes nor its length prefix are written), so that
// signing does not need to commit to its own output.
func (tx *Transaction) SigningHash() (Hash, error) {
	var buf bytes.Buffer
	if err := writeCollectionLen(&buf, len(tx.Inputs)); err != nil {
		return Hash{}, err
	}
	for i := range tx.Inputs {
		if err := writeCollectionLen(&buf, len(tx.Inputs[i].Ring)); err != nil {
			return Hash{}, err
		}
		for _, id := range tx.Inputs[i].Ring {
			b := id.Bytes()
			if err := writeFixedBytes(&buf, b[:]); err != nil {
				return Hash{}, err
			}
		}
		if err := writeHash(&buf, tx.Inputs[i].KeyImage); err != nil {
			return Hash{}, err
		}
	}
	if err := writeCollectionLen(&buf, len(tx.Outputs)); err != nil {
		return Hash{}, err
	}
	for i := range tx.Outputs {
		if err := tx.Outputs[i].encode(&buf); err != nil {
			return Hash{}, err
		}
	}
	if err := writeUint64(&buf, tx.Fee); err != nil {
		return Hash{}, err
	}
	if err := writeUint64(&buf, tx.TombstoneBlock); err != nil {
		return Hash{}, err
	}
	if err := writeUint64(&buf, tx.CreatedAtHeight); err != nil {
		return Hash{}, err
	}
	return SumHash(buf.Bytes()), nil
}

// OutputUtxoId returns the UtxoId of the i'th output of this transaction,
// given its own hash.
func (tx *Transaction) OutputUtxoId(txHash Hash, index int) UtxoId {
	return UtxoId{TxHash: txHash, OutputIndex: uint32(index)}
}
