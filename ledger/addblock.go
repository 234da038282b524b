package ledger

import (
	"github.com/botho-project/botho/bterrors"
	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/ringsig"
	"go.etcd.io/bbolt"
)

// ApplyParams carries the values a caller (the validator/monetary layer)
// has already computed and that AddBlock must persist, keeping ledger
// free of a dependency on package monetary (spec.md §9 Design Notes:
// breaking the ledger/monetary/validator cycle by passing these by
// parameter rather than having ledger compute them itself).
type ApplyParams struct {
	Block          *botmsg.Block
	PoWTarget      botmsg.Hash // the block hash must be <= this value
	BlockReward    uint64      // newly minted amount credited to total_mined
	NextDifficulty uint32      // difficulty to store for the following block
	EmissionEpoch  uint64      // difficulty-adjustment epochs completed through this block
}

// AddBlock atomically applies a block to the ledger, implementing the
// six-step contract of spec §4.4 add_block. Any failure aborts the whole
// transaction, leaving the ledger state untouched.
func (l *Ledger) AddBlock(p ApplyParams) error {
	return l.Update(func(tx *bbolt.Tx) error {
		return applyBlock(tx, p)
	})
}

func applyBlock(tx *bbolt.Tx, p ApplyParams) error {
	block := p.Block
	cs, hasState := loadChainState(tx)

	// (i) height, prev-hash linkage, PoW threshold.
	if hasState {
		if block.Header.Height != cs.Height+1 {
			return bterrors.New(bterrors.ErrBadBlockHeight,
				"expected height %d, got %d", cs.Height+1, block.Header.Height)
		}
		if block.Header.PrevHash != cs.TipHash {
			return bterrors.New(bterrors.ErrBadPrevHash, "prev hash does not match tip")
		}
	} else if !block.Header.IsGenesis() {
		return bterrors.New(bterrors.ErrUnknownParent, "ledger is empty, expected a genesis block")
	}

	blockHash, err := block.Header.Hash()
	if err != nil {
		return err
	}
	if hashGreater(blockHash, p.PoWTarget) {
		return bterrors.New(bterrors.ErrHighHash, "block hash exceeds PoW target")
	}

	// (ii) ring signature verification and key-image dedup.
	allTxs := block.AllTransactions()
	seen := make(map[botmsg.Hash]bool)
	for txIdx, t := range block.Transactions {
		_ = txIdx
		if t.IsCoinbase() {
			continue
		}
		signingHash, err := t.SigningHash()
		if err != nil {
			return err
		}
		for i := range t.Inputs {
			in := &t.Inputs[i]
			if hasKeyImage(tx, in.KeyImage) {
				return bterrors.New(bterrors.ErrKeyImageReuse,
					"key image %s already spent", in.KeyImage)
			}
			if seen[in.KeyImage] {
				return bterrors.New(bterrors.ErrKeyImageReuse,
					"key image %s appears twice in block", in.KeyImage)
			}
			seen[in.KeyImage] = true
			if err := verifyRingSignature(tx, in, signingHash[:]); err != nil {
				return err
			}
		}
	}

	// Record key images only after every input in the block has been
	// checked for collisions against existing AND sibling-transaction
	// state, so a block cannot double-spend the same output twice
	// against itself either.
	for _, t := range block.Transactions {
		for i := range t.Inputs {
			if err := putKeyImage(tx, t.Inputs[i].KeyImage, block.Header.Height); err != nil {
				return err
			}
		}
	}

	// (iii) insert new UTXOs, update address_index/cluster_wealth/tx_index.
	for txIdx, t := range allTxs {
		txHash, err := t.Hash()
		if err != nil {
			return err
		}
		if err := putTxIndex(tx, txHash, block.Header.Height, uint32(txIdx)); err != nil {
			return err
		}
		for outIdx, out := range t.Outputs {
			id := t.OutputUtxoId(txHash, outIdx)
			u := &botmsg.UTXO{
				TxOut:           out,
				CreatedAtHeight: block.Header.Height,
			}
			if err := putUTXO(tx, id, u); err != nil {
				return err
			}
			if err := applyUtxoToClusterWealth(tx, out.Amount, out.ClusterTags); err != nil {
				return err
			}
		}
	}

	// Ring signatures hide which ring member is the real spender, so
	// spent outputs are never removed from the utxos table — they
	// remain forever as decoy candidates for future transactions.
	// Double-spend prevention is entirely key-image based (above).

	// (iv)/(v) store block, update tip/height/total_mined/fees_burned/difficulty.
	if err := putBlock(tx, block.Header.Height, block); err != nil {
		return err
	}

	next := ChainState{
		Height:             block.Header.Height,
		TipHash:            blockHash,
		TipTimestamp:       block.Header.Timestamp,
		TotalMined:         cs.TotalMined + p.BlockReward,
		TotalFeesBurned:    cs.TotalFeesBurned + block.LotterySummary.AmountBurned,
		Difficulty:         p.NextDifficulty,
		EmissionEpoch:      p.EmissionEpoch,
		CurrentBlockReward: p.BlockReward,
	}
	return storeChainState(tx, next)
}

func hashGreater(a, b botmsg.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// verifyRingSignature decodes the input's ring members from the ledger's
// UTXO table and checks the CLSAG signature against them.
func verifyRingSignature(tx *bbolt.Tx, in *botmsg.TxIn, msg []byte) error {
	ring := make([]*ringsig.PublicPoint, len(in.Ring))
	for i, id := range in.Ring {
		idBytes := id.Bytes()
		data := tx.Bucket(bucketUtxos).Get(idBytes[:])
		if data == nil {
			return bterrors.New(bterrors.ErrMissingUtxo, "ring member %s not found", id.TxHash)
		}
		var u botmsg.UTXO
		if err := u.UnmarshalBinary(data); err != nil {
			return err
		}
		p, err := ringsig.ParsePoint(u.TargetKey[:])
		if err != nil {
			return bterrors.New(bterrors.ErrInvalidRingSignature, "ring member %s has invalid key: %v", id.TxHash, err)
		}
		ring[i] = p
	}
	keyImagePoint, err := ringsig.ParsePoint(in.KeyImage[:])
	if err != nil {
		return bterrors.New(bterrors.ErrInvalidRingSignature, "invalid key image encoding: %v", err)
	}
	sig, err := ringsig.DecodeSignature(in.Signature)
	if err != nil {
		return bterrors.New(bterrors.ErrInvalidRingSignature, "invalid signature encoding: %v", err)
	}
	if err := ringsig.Verify(msg, ring, keyImagePoint, sig); err != nil {
		return bterrors.New(bterrors.ErrInvalidRingSignature, "ring signature verification failed: %v", err)
	}
	return nil
}
