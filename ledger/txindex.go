package ledger

import (
	"encoding/binary"

	"github.com/botho-project/botho/botmsg"
	"go.etcd.io/bbolt"
)

// putTxIndex records where (height, position within block) a transaction
// was confirmed, within an existing transaction.
func putTxIndex(tx *bbolt.Tx, txHash botmsg.Hash, height uint64, index uint32) error {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf[:8], height)
	binary.LittleEndian.PutUint32(buf[8:], index)
	return tx.Bucket(bucketTxIndex).Put(txHash[:], buf)
}

// TxLocation is the (height, index-within-block) position of a confirmed
// transaction.
type TxLocation struct {
	Height uint64
	Index  uint32
}

// TxIndex looks up where a transaction was confirmed.
func (l *Ledger) TxIndex(txHash botmsg.Hash) (loc TxLocation, found bool, err error) {
	err = l.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTxIndex).Get(txHash[:])
		if data == nil {
			return nil
		}
		found = true
		loc.Height = binary.LittleEndian.Uint64(data[:8])
		loc.Index = binary.LittleEndian.Uint32(data[8:])
		return nil
	})
	return loc, found, err
}
