package ledger

import (
	"github.com/botho-project/botho/botmsg"
	"go.etcd.io/bbolt"
)

// VerifyTransaction checks every input's CLSAG ring signature against the
// ring members currently stored in the ledger, without checking or
// mutating key-image state. It is the read-only half of what AddBlock
// does inline during apply, exposed separately so the block validator
// (spec §4.8 check 5) can run signature verification ahead of, and
// independently from, ledger application.
func (l *Ledger) VerifyTransaction(t *botmsg.Transaction) error {
	if t.IsCoinbase() {
		return nil
	}
	signingHash, err := t.SigningHash()
	if err != nil {
		return err
	}
	return l.View(func(tx *bbolt.Tx) error {
		for i := range t.Inputs {
			if err := verifyRingSignature(tx, &t.Inputs[i], signingHash[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasAnyKeyImage reports whether any of t's inputs already have a key
// image recorded in the ledger (spec §4.8 check 5: "every key image is
// absent from the key-image table at the pre-application snapshot").
func (l *Ledger) HasAnyKeyImage(t *botmsg.Transaction) (botmsg.Hash, bool, error) {
	var found botmsg.Hash
	var has bool
	err := l.View(func(tx *bbolt.Tx) error {
		for i := range t.Inputs {
			if hasKeyImage(tx, t.Inputs[i].KeyImage) {
				found = t.Inputs[i].KeyImage
				has = true
				return nil
			}
		}
		return nil
	})
	return found, has, err
}
