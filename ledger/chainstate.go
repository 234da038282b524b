package ledger

import (
	"encoding/binary"

	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// ChainState is the aggregate view over the meta table's labeled rows
// (spec §3: "height, tip hash, tip timestamp, total mined, total fees
// burned, difficulty, emission-epoch counters, current block reward").
type ChainState struct {
	Height              uint64
	TipHash             botmsg.Hash
	TipTimestamp        int64
	TotalMined          uint64
	TotalFeesBurned     uint64
	Difficulty          uint32
	EmissionEpoch       uint64
	CurrentBlockReward  uint64
}

var (
	metaKeyHeight       = []byte("height")
	metaKeyTipHash      = []byte("tip_hash")
	metaKeyTipTimestamp = []byte("tip_timestamp")
	metaKeyTotalMined   = []byte("total_mined")
	metaKeyFeesBurned   = []byte("total_fees_burned")
	metaKeyDifficulty   = []byte("difficulty")
	metaKeyEpoch        = []byte("emission_epoch")
	metaKeyBlockReward  = []byte("current_block_reward")
)

func putUint64(b *bbolt.Bucket, key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return b.Put(key, buf)
}

func getUint64(b *bbolt.Bucket, key []byte) (uint64, bool) {
	v := b.Get(key)
	if v == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint64(v), true
}

func putUint32(b *bbolt.Bucket, key []byte, v uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return b.Put(key, buf)
}

func getUint32(b *bbolt.Bucket, key []byte) (uint32, bool) {
	v := b.Get(key)
	if v == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(v), true
}

// storeChainState writes every meta row within an existing transaction.
func storeChainState(tx *bbolt.Tx, cs ChainState) error {
	b := tx.Bucket(bucketMeta)
	if err := putUint64(b, metaKeyHeight, cs.Height); err != nil {
		return err
	}
	if err := b.Put(metaKeyTipHash, cs.TipHash[:]); err != nil {
		return err
	}
	if err := putUint64(b, metaKeyTipTimestamp, uint64(cs.TipTimestamp)); err != nil {
		return err
	}
	if err := putUint64(b, metaKeyTotalMined, cs.TotalMined); err != nil {
		return err
	}
	if err := putUint64(b, metaKeyFeesBurned, cs.TotalFeesBurned); err != nil {
		return err
	}
	if err := putUint32(b, metaKeyDifficulty, cs.Difficulty); err != nil {
		return err
	}
	if err := putUint64(b, metaKeyEpoch, cs.EmissionEpoch); err != nil {
		return err
	}
	return putUint64(b, metaKeyBlockReward, cs.CurrentBlockReward)
}

// loadChainState reads every meta row within an existing transaction. ok
// is false if the ledger has no chain state yet (fresh/genesis ledger).
func loadChainState(tx *bbolt.Tx) (ChainState, bool) {
	b := tx.Bucket(bucketMeta)
	height, ok := getUint64(b, metaKeyHeight)
	if !ok {
		return ChainState{}, false
	}
	var cs ChainState
	cs.Height = height
	copy(cs.TipHash[:], b.Get(metaKeyTipHash))
	ts, _ := getUint64(b, metaKeyTipTimestamp)
	cs.TipTimestamp = int64(ts)
	cs.TotalMined, _ = getUint64(b, metaKeyTotalMined)
	cs.TotalFeesBurned, _ = getUint64(b, metaKeyFeesBurned)
	cs.Difficulty, _ = getUint32(b, metaKeyDifficulty)
	cs.EmissionEpoch, _ = getUint64(b, metaKeyEpoch)
	cs.CurrentBlockReward, _ = getUint64(b, metaKeyBlockReward)
	return cs, true
}

// ChainState returns the current chain tip state, or the zero value with
// ok=false if the ledger is empty (no genesis applied yet).
func (l *Ledger) ChainState() (cs ChainState, ok bool, err error) {
	err = l.View(func(tx *bbolt.Tx) error {
		cs, ok = loadChainState(tx)
		return nil
	})
	return cs, ok, err
}

// ErrLedgerEmpty is returned by operations that require an existing tip
// (e.g. computing the next expected height) when none exists yet.
var ErrLedgerEmpty = errors.New("ledger: no chain state, ledger is empty")
