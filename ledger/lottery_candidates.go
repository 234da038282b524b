package ledger

import (
	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/lottery"
	"go.etcd.io/bbolt"
)

// LotteryCandidates scans the full utxos table and returns every output as
// a lottery.Candidate, with Age computed relative to atHeight (spec §4.6
// inputs: "the set of eligible UTXOs"; eligibility filtering by age/value
// is applied later by package lottery itself, so this is deliberately an
// unfiltered full scan).
func (l *Ledger) LotteryCandidates(atHeight uint64) ([]lottery.Candidate, error) {
	var out []lottery.Candidate
	err := l.View(func(tx *bbolt.Tx) error {
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
			var age uint64
			if atHeight > u.CreatedAtHeight {
				age = atHeight - u.CreatedAtHeight
			}
			out = append(out, lottery.Candidate{
				UtxoId:        id,
				Value:         u.Amount,
				Age:           age,
				ClusterFactor: u.ClusterTags.ClusterFactor(),
				Tags:          u.ClusterTags,
				TargetKey:     u.TargetKey,
			})
		}
		return nil
	})
	return out, err
}
