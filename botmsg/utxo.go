package botmsg

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/botho-project/botho/clustertag"
	"github.com/pkg/errors"
)

// UtxoIdSize is the serialized size of a UtxoId: 32-byte tx hash + 4-byte
// output index.
const UtxoIdSize = HashSize + 4

// UtxoId uniquely identifies an unspent output (spec §3).
type UtxoId struct {
	TxHash      Hash
	OutputIndex uint32
}

// Bytes returns the 36-byte key form (tx hash, then the output index as
// little-endian uint32) used as the ledger's
// utxos-table and address_index key (teacher dbaccess convention: fixed
// binary keys, no reflection).
func (id UtxoId) Bytes() [UtxoIdSize]byte {
	var out [UtxoIdSize]byte
	copy(out[:HashSize], id.TxHash[:])
	binary.LittleEndian.PutUint32(out[HashSize:], id.OutputIndex)
	return out
}

// UtxoIdFromBytes decodes the format written by Bytes.
func UtxoIdFromBytes(b []byte) (UtxoId, error) {
	if len(b) != UtxoIdSize {
		return UtxoId{}, errors.Errorf("botmsg: invalid UtxoId length %d", len(b))
	}
	var id UtxoId
	copy(id.TxHash[:], b[:HashSize])
	id.OutputIndex = binary.LittleEndian.Uint32(b[HashSize:])
	return id, nil
}

// TxOut is one transaction output. ClusterTags is set once by the sender
// at transaction construction time, from the weighted merge of the
// spent inputs' own tags (spec §3: "cluster tags of outputs are derived
// once at transaction construction ... and do not change afterwards");
// tags are public, so they travel on the wire rather than being derived
// by validators, who cannot see which ring member was the real spender.
type TxOut struct {
	Amount      uint64
	TargetKey   [32]byte // stealth one-time public key P
	PublicKey   [32]byte // per-output transaction public key R
	ClusterTags clustertag.Vector
	Memo        *[32]byte
}

func (o *TxOut) encode(w io.Writer) error {
	if err := writeUint64(w, o.Amount); err != nil {
		return err
	}
	if err := writeFixedBytes(w, o.TargetKey[:]); err != nil {
		return err
	}
	if err := writeFixedBytes(w, o.PublicKey[:]); err != nil {
		return err
	}
	tagBytes, err := o.ClusterTags.MarshalBinary()
	if err != nil {
		return err
	}
	if err := writeCollectionLen(w, len(tagBytes)); err != nil {
		return err
	}
	if err := writeFixedBytes(w, tagBytes); err != nil {
		return err
	}
	hasMemo := byte(0)
	if o.Memo != nil {
		hasMemo = 1
	}
	if _, err := w.Write([]byte{hasMemo}); err != nil {
		return err
	}
	if o.Memo != nil {
		if err := writeFixedBytes(w, o.Memo[:]); err != nil {
			return err
		}
	}
	return nil
}

func decodeTxOut(r io.Reader) (TxOut, error) {
	var o TxOut
	amount, err := readUint64(r)
	if err != nil {
		return o, err
	}
	o.Amount = amount
	tk, err := readFixedBytes(r, 32)
	if err != nil {
		return o, err
	}
	copy(o.TargetKey[:], tk)
	pk, err := readFixedBytes(r, 32)
	if err != nil {
		return o, err
	}
	copy(o.PublicKey[:], pk)
	tagLen, err := readCollectionLen(r)
	if err != nil {
		return o, err
	}
	tagBytes, err := readFixedBytes(r, tagLen)
	if err != nil {
		return o, err
	}
	var tags clustertag.Vector
	if err := tags.UnmarshalBinary(tagBytes); err != nil {
		return o, err
	}
	o.ClusterTags = tags
	flag, err := readFixedBytes(r, 1)
	if err != nil {
		return o, err
	}
	if flag[0] == 1 {
		memoBytes, err := readFixedBytes(r, 32)
		if err != nil {
			return o, err
		}
		var memo [32]byte
		copy(memo[:], memoBytes)
		o.Memo = &memo
	}
	return o, nil
}

// UTXO is an unspent output as stored in the ledger (spec §3): a TxOut
// plus the creation height the ledger needs for age-based queries.
type UTXO struct {
	TxOut
	CreatedAtHeight uint64
}

// MarshalBinary encodes a UTXO for ledger storage.
func (u *UTXO) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := u.TxOut.encode(&buf); err != nil {
		return nil, err
	}
	if err := writeUint64(&buf, u.CreatedAtHeight); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (u *UTXO) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	out, err := decodeTxOut(r)
	if err != nil {
		return err
	}
	height, err := readUint64(r)
	if err != nil {
		return err
	}
	u.TxOut = out
	u.CreatedAtHeight = height
	return nil
}
