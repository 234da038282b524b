package ledger

import (
	"encoding/binary"

	"github.com/botho-project/botho/botmsg"
	"go.etcd.io/bbolt"
)

// hasKeyImage reports whether a key image has already been spent, within
// an existing transaction.
func hasKeyImage(tx *bbolt.Tx, keyImage botmsg.Hash) bool {
	return tx.Bucket(bucketKeyImages).Get(keyImage[:]) != nil
}

// putKeyImage records a key image at its spending height, within an
// existing transaction.
func putKeyImage(tx *bbolt.Tx, keyImage botmsg.Hash, height uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, height)
	return tx.Bucket(bucketKeyImages).Put(keyImage[:], buf)
}

// HasKeyImage reports whether a key image has already been spent.
func (l *Ledger) HasKeyImage(keyImage botmsg.Hash) (bool, error) {
	var exists bool
	err := l.View(func(tx *bbolt.Tx) error {
		exists = hasKeyImage(tx, keyImage)
		return nil
	})
	return exists, err
}
