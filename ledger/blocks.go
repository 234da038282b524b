package ledger

import (
	"bytes"
	"encoding/binary"

	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

func blockKey(height uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, height)
	return buf
}

func putBlock(tx *bbolt.Tx, height uint64, block *botmsg.Block) error {
	data, err := block.Serialize()
	if err != nil {
		return errors.Wrap(err, "ledger: serializing block")
	}
	return tx.Bucket(bucketBlocks).Put(blockKey(height), data)
}

// GetBlock fetches the block stored at height.
func (l *Ledger) GetBlock(height uint64) (*botmsg.Block, error) {
	var block *botmsg.Block
	err := l.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketBlocks).Get(blockKey(height))
		if data == nil {
			return errors.Errorf("ledger: no block at height %d", height)
		}
		b, err := botmsg.DecodeBlock(bytes.NewReader(data))
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	return block, err
}
