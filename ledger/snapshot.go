package ledger

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// Snapshot is a self-describing bundle of ledger state, sealed by the tip
// block hash (spec §4.4: "a self-describing bundle of (a) chain state,
// (b) every UTXO, (c) every key image with creation height, (d) every
// cluster-wealth entry, sealed by the tip block hash").
type Snapshot struct {
	ChainState   ChainState
	Utxos        []SnapshotUtxo
	KeyImages    []SnapshotKeyImage
	ClusterWealth []SnapshotClusterWealth
}

// SnapshotUtxo is one utxos-table row.
type SnapshotUtxo struct {
	Id  botmsg.UtxoId
	Out botmsg.UTXO
}

// SnapshotKeyImage is one key_images-table row.
type SnapshotKeyImage struct {
	KeyImage botmsg.Hash
	Height   uint64
}

// SnapshotClusterWealth is one cluster_wealth-table row.
type SnapshotClusterWealth struct {
	ClusterId uint64
	Wealth    uint64
}

// CreateSnapshot reads the full ledger state into a Snapshot.
func (l *Ledger) CreateSnapshot() (*Snapshot, error) {
	snap := &Snapshot{}
	err := l.View(func(tx *bbolt.Tx) error {
		cs, ok := loadChainState(tx)
		if !ok {
			return errors.New("ledger: cannot snapshot an empty ledger")
		}
		snap.ChainState = cs

		uc := tx.Bucket(bucketUtxos).Cursor()
		for k, v := uc.First(); k != nil; k, v = uc.Next() {
			id, err := botmsg.UtxoIdFromBytes(k)
			if err != nil {
				return err
			}
			var u botmsg.UTXO
			if err := u.UnmarshalBinary(v); err != nil {
				return err
			}
			snap.Utxos = append(snap.Utxos, SnapshotUtxo{Id: id, Out: u})
		}

		kic := tx.Bucket(bucketKeyImages).Cursor()
		for k, v := kic.First(); k != nil; k, v = kic.Next() {
			var ki botmsg.Hash
			copy(ki[:], k)
			snap.KeyImages = append(snap.KeyImages, SnapshotKeyImage{
				KeyImage: ki,
				Height:   binary.LittleEndian.Uint64(v),
			})
		}

		cwc := tx.Bucket(bucketClusterWealth).Cursor()
		for k, v := cwc.First(); k != nil; k, v = cwc.Next() {
			snap.ClusterWealth = append(snap.ClusterWealth, SnapshotClusterWealth{
				ClusterId: binary.LittleEndian.Uint64(k),
				Wealth:    binary.LittleEndian.Uint64(v),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SealHash returns the hash that seals a snapshot: the tip block hash it
// was taken at. Loaders verify this against the tip block they expect
// before performing any destructive write.
func (s *Snapshot) SealHash() botmsg.Hash {
	return s.ChainState.TipHash
}

// LoadSnapshot replaces every UTXO/key-image/address-index/cluster-wealth
// table and rewrites metadata, rebuilding the address index from the
// loaded UTXOs. expectedTipHash must equal the snapshot's seal; integrity
// is verified before any destructive write begins (spec §4.4).
func (l *Ledger) LoadSnapshot(snap *Snapshot, expectedTipHash botmsg.Hash) error {
	if snap.SealHash() != expectedTipHash {
		return errors.New("ledger: snapshot seal hash does not match expected tip")
	}

	return l.Update(func(tx *bbolt.Tx) error {
		for _, name := range []([]byte){bucketUtxos, bucketKeyImages, bucketAddressIndex, bucketClusterWealth} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		utxoBucket := tx.Bucket(bucketUtxos)
		for _, su := range snap.Utxos {
			data, err := su.Out.MarshalBinary()
			if err != nil {
				return err
			}
			idBytes := su.Id.Bytes()
			if err := utxoBucket.Put(idBytes[:], data); err != nil {
				return err
			}
		}

		kiBucket := tx.Bucket(bucketKeyImages)
		for _, ki := range snap.KeyImages {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, ki.Height)
			if err := kiBucket.Put(ki.KeyImage[:], buf); err != nil {
				return err
			}
		}

		cwBucket := tx.Bucket(bucketClusterWealth)
		for _, cw := range snap.ClusterWealth {
			key := make([]byte, 8)
			binary.LittleEndian.PutUint64(key, cw.ClusterId)
			val := make([]byte, 8)
			binary.LittleEndian.PutUint64(val, cw.Wealth)
			if err := cwBucket.Put(key, val); err != nil {
				return err
			}
		}

		if err := rebuildAddressIndex(tx); err != nil {
			return err
		}

		return storeChainState(tx, snap.ChainState)
	})
}

// EncodeSnapshot writes a length-prefixed binary encoding of snap to w, in
// the same little-endian/length-prefixed style as package botmsg.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := writeUint64LE(&buf, snap.ChainState.Height); err != nil {
		return err
	}
	buf.Write(snap.ChainState.TipHash[:])
	if err := writeUint64LE(&buf, uint64(snap.ChainState.TipTimestamp)); err != nil {
		return err
	}
	if err := writeUint64LE(&buf, snap.ChainState.TotalMined); err != nil {
		return err
	}
	if err := writeUint64LE(&buf, snap.ChainState.TotalFeesBurned); err != nil {
		return err
	}
	if err := writeUint32LE(&buf, snap.ChainState.Difficulty); err != nil {
		return err
	}
	if err := writeUint64LE(&buf, snap.ChainState.EmissionEpoch); err != nil {
		return err
	}
	if err := writeUint64LE(&buf, snap.ChainState.CurrentBlockReward); err != nil {
		return err
	}

	if err := writeUint64LE(&buf, uint64(len(snap.Utxos))); err != nil {
		return err
	}
	for _, su := range snap.Utxos {
		idBytes := su.Id.Bytes()
		buf.Write(idBytes[:])
		data, err := su.Out.MarshalBinary()
		if err != nil {
			return err
		}
		if err := writeUint64LE(&buf, uint64(len(data))); err != nil {
			return err
		}
		buf.Write(data)
	}

	if err := writeUint64LE(&buf, uint64(len(snap.KeyImages))); err != nil {
		return err
	}
	for _, ki := range snap.KeyImages {
		buf.Write(ki.KeyImage[:])
		if err := writeUint64LE(&buf, ki.Height); err != nil {
			return err
		}
	}

	if err := writeUint64LE(&buf, uint64(len(snap.ClusterWealth))); err != nil {
		return err
	}
	for _, cw := range snap.ClusterWealth {
		if err := writeUint64LE(&buf, cw.ClusterId); err != nil {
			return err
		}
		if err := writeUint64LE(&buf, cw.Wealth); err != nil {
			return err
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeUint64LE(w io.Writer, v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	_, err := w.Write(b)
	return err
}

func writeUint32LE(w io.Writer, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	_, err := w.Write(b)
	return err
}

func readUint64LE(r io.Reader) (uint64, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func readUint32LE(r io.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeSnapshot reads the format written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	if snap.ChainState.Height, err = readUint64LE(r); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, snap.ChainState.TipHash[:]); err != nil {
		return nil, err
	}
	ts, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	snap.ChainState.TipTimestamp = int64(ts)
	if snap.ChainState.TotalMined, err = readUint64LE(r); err != nil {
		return nil, err
	}
	if snap.ChainState.TotalFeesBurned, err = readUint64LE(r); err != nil {
		return nil, err
	}
	if snap.ChainState.Difficulty, err = readUint32LE(r); err != nil {
		return nil, err
	}
	if snap.ChainState.EmissionEpoch, err = readUint64LE(r); err != nil {
		return nil, err
	}
	if snap.ChainState.CurrentBlockReward, err = readUint64LE(r); err != nil {
		return nil, err
	}

	numUtxos, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numUtxos; i++ {
		idBytes := make([]byte, botmsg.UtxoIdSize)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, err
		}
		id, err := botmsg.UtxoIdFromBytes(idBytes)
		if err != nil {
			return nil, err
		}
		dataLen, err := readUint64LE(r)
		if err != nil {
			return nil, err
		}
		data := make([]byte, dataLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		var u botmsg.UTXO
		if err := u.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		snap.Utxos = append(snap.Utxos, SnapshotUtxo{Id: id, Out: u})
	}

	numKi, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numKi; i++ {
		var ki botmsg.Hash
		if _, err := io.ReadFull(r, ki[:]); err != nil {
			return nil, err
		}
		height, err := readUint64LE(r)
		if err != nil {
			return nil, err
		}
		snap.KeyImages = append(snap.KeyImages, SnapshotKeyImage{KeyImage: ki, Height: height})
	}

	numCw, err := readUint64LE(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numCw; i++ {
		id, err := readUint64LE(r)
		if err != nil {
			return nil, err
		}
		wealth, err := readUint64LE(r)
		if err != nil {
			return nil, err
		}
		snap.ClusterWealth = append(snap.ClusterWealth, SnapshotClusterWealth{ClusterId: id, Wealth: wealth})
	}

	return snap, nil
}
