// Package ledger is Botho's persistent UTXO ledger (spec §4.4): typed
// tables over an ordered key-value store with ACID write transactions.
// Grounded on the teacher's dbaccess bucket-keyed accessor pattern
// (dbaccess/fee_data.go, dbaccess/reachability.go), but backed by
// go.etcd.io/bbolt rather than LevelDB+flatfiles — bbolt's
// single-writer/many-reader B+tree transactions are a closer structural
// match to the LMDB semantics the spec names.
package ledger

import (
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	bucketBlocks        = []byte("blocks")
	bucketMeta          = []byte("meta")
	bucketUtxos         = []byte("utxos")
	bucketAddressIndex  = []byte("address_index")
	bucketKeyImages     = []byte("key_images")
	bucketTxIndex       = []byte("tx_index")
	bucketClusterWealth = []byte("cluster_wealth")
)

var allBuckets = [][]byte{
	bucketBlocks, bucketMeta, bucketUtxos, bucketAddressIndex,
	bucketKeyImages, bucketTxIndex, bucketClusterWealth,
}

// Ledger is the embedded UTXO store.
type Ledger struct {
	db *bbolt.DB
}

// Open creates or opens the ledger database at path, creating every typed
// table bucket if this is a fresh database.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "ledger: opening database")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.Wrapf(err, "ledger: creating bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// View runs fn in a read-only transaction.
func (l *Ledger) View(fn func(tx *bbolt.Tx) error) error {
	return l.db.View(fn)
}

// Update runs fn in a read-write transaction; fn's error (if any) aborts
// the transaction, leaving state untouched (spec §4.4: "a failure at any
// step aborts the transaction leaving state untouched").
func (l *Ledger) Update(fn func(tx *bbolt.Tx) error) error {
	return l.db.Update(fn)
}
