package ledger

import (
	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// putUTXO stores a UTXO and appends its id to the owning target key's
// address index entry, within an existing transaction.
func putUTXO(tx *bbolt.Tx, id botmsg.UtxoId, u *botmsg.UTXO) error {
	data, err := u.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "ledger: marshaling utxo")
	}
	idBytes := id.Bytes()
	if err := tx.Bucket(bucketUtxos).Put(idBytes[:], data); err != nil {
		return err
	}
	return appendAddressIndex(tx, u.TargetKey, id)
}

// GetUTXO fetches a UTXO by id.
func (l *Ledger) GetUTXO(id botmsg.UtxoId) (*botmsg.UTXO, error) {
	var u botmsg.UTXO
	var found bool
	err := l.View(func(tx *bbolt.Tx) error {
		idBytes := id.Bytes()
		data := tx.Bucket(bucketUtxos).Get(idBytes[:])
		if data == nil {
			return nil
		}
		found = true
		return u.UnmarshalBinary(data)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("ledger: utxo %s not found", id.TxHash)
	}
	return &u, nil
}

// HasUTXO reports whether id refers to an unspent output.
func (l *Ledger) HasUTXO(id botmsg.UtxoId) (bool, error) {
	var exists bool
	err := l.View(func(tx *bbolt.Tx) error {
		idBytes := id.Bytes()
		exists = tx.Bucket(bucketUtxos).Get(idBytes[:]) != nil
		return nil
	})
	return exists, err
}

func deleteUTXO(tx *bbolt.Tx, id botmsg.UtxoId) error {
	idBytes := id.Bytes()
	return tx.Bucket(bucketUtxos).Delete(idBytes[:])
}

// appendAddressIndex appends id's 36-byte encoding to the address_index
// entry for targetKey (spec §4.4: "concatenation of 36-byte UtxoIds").
func appendAddressIndex(tx *bbolt.Tx, targetKey [32]byte, id botmsg.UtxoId) error {
	b := tx.Bucket(bucketAddressIndex)
	existing := b.Get(targetKey[:])
	idBytes := id.Bytes()
	out := make([]byte, len(existing)+botmsg.UtxoIdSize)
	copy(out, existing)
	copy(out[len(existing):], idBytes[:])
	return b.Put(targetKey[:], out)
}

// AddressUtxoIds returns every UtxoId indexed under targetKey.
func (l *Ledger) AddressUtxoIds(targetKey [32]byte) ([]botmsg.UtxoId, error) {
	var ids []botmsg.UtxoId
	err := l.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAddressIndex).Get(targetKey[:])
		for off := 0; off+botmsg.UtxoIdSize <= len(data); off += botmsg.UtxoIdSize {
			id, err := botmsg.UtxoIdFromBytes(data[off : off+botmsg.UtxoIdSize])
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// rebuildAddressIndex clears and reconstructs the address_index table from
// the current utxos table (spec §4.4 snapshot load: "the address index is
// rebuilt from the UTXOs").
func rebuildAddressIndex(tx *bbolt.Tx) error {
	addrBucket := tx.Bucket(bucketAddressIndex)
	if err := tx.DeleteBucket(bucketAddressIndex); err != nil && err != bbolt.ErrBucketNotFound {
		return err
	}
	newBucket, err := tx.CreateBucket(bucketAddressIndex)
	if err != nil {
		return err
	}
	_ = addrBucket

	c := tx.Bucket(bucketUtxos).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		id, err := botmsg.UtxoIdFromBytes(k)
		if err != nil {
			return err
		}
		var u botmsg.UTXO
		if err := u.UnmarshalBinary(v); err != nil {
			return err
		}
		existing := newBucket.Get(u.TargetKey[:])
		idBytes := id.Bytes()
		out := make([]byte, len(existing)+botmsg.UtxoIdSize)
		copy(out, existing)
		copy(out[len(existing):], idBytes[:])
		if err := newBucket.Put(u.TargetKey[:], out); err != nil {
			return err
		}
	}
	return nil
}
