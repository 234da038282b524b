// Package mempool is Botho's transaction mempool: fee-per-KB priority
// ordering, key-image double-spend rejection, and capacity-bounded
// eviction. Admission does not check a transaction's fee against the fee
// curve. The priority queue is grounded directly on
// the teacher's mining.go txPriorityQueue (container/heap.Interface over
// a lessFunc-selected comparison, reserved-capacity slice backing).
package mempool

import (
	"container/heap"
	"sync"
	"time"

	"github.com/botho-project/botho/bterrors"
	"github.com/botho-project/botho/botmsg"
)

// txDesc mirrors the teacher's TxDesc: a transaction plus pool metadata.
type txDesc struct {
	tx       *botmsg.Transaction
	hash     botmsg.Hash
	added    time.Time
	feePerKB uint64
}

// Config bounds the pool's behavior.
type Config struct {
	MaxSize int // maximum number of admitted transactions
}

// DefaultConfig returns a reasonable default pool size.
func DefaultConfig() Config {
	return Config{MaxSize: 50_000}
}

// Mempool holds pending, unconfirmed transactions.
type Mempool struct {
	mu  sync.RWMutex
	cfg Config

	byHash     map[botmsg.Hash]*txDesc
	keyImages  map[botmsg.Hash]botmsg.Hash // key image -> owning tx hash
	lastUpdate time.Time
}

// New constructs an empty mempool.
func New(cfg Config) *Mempool {
	return &Mempool{
		cfg:       cfg,
		byHash:    make(map[botmsg.Hash]*txDesc),
		keyImages: make(map[botmsg.Hash]botmsg.Hash),
	}
}

// sizeEstimate approximates a transaction's wire size for fee-per-KB
// computation; the pool does not need byte-exact sizing, only a stable
// ordering input.
func sizeEstimate(tx *botmsg.Transaction) uint64 {
	data, err := tx.Serialize()
	if err != nil || len(data) == 0 {
		return 1
	}
	return uint64(len(data))
}

// Accept admits tx into the pool. If any of its key images are already
// claimed by a transaction already in the pool, admission is serialized by
// a fee contest (spec §5 "Ordering guarantees": "if two transactions
// present the same key image, the one with higher fee wins on tie-break by
// hash") rather than a blanket rejection: tx wins against every
// conflicting pooled transaction, each pooled conflict is evicted, and tx
// is admitted; if tx loses against any conflict, it is rejected and the
// pool is left untouched.
func (m *Mempool) Accept(tx *botmsg.Transaction) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byHash[hash]; exists {
		return bterrors.New(bterrors.ErrDuplicateBlock, "transaction %s already in pool", hash)
	}

	conflicts := make(map[botmsg.Hash]struct{})
	for i := range tx.Inputs {
		if owner, spent := m.keyImages[tx.Inputs[i].KeyImage]; spent {
			conflicts[owner] = struct{}{}
		}
	}
	for ownerHash := range conflicts {
		owner, ok := m.byHash[ownerHash]
		if !ok {
			continue
		}
		if !feeWins(tx.Fee, hash, owner.tx.Fee, owner.hash) {
			return bterrors.New(bterrors.ErrKeyImageReuse,
				"key image already claimed by higher-fee pooled tx %s", ownerHash)
		}
	}
	for ownerHash := range conflicts {
		m.removeLocked(ownerHash)
	}

	size := sizeEstimate(tx)
	feePerKB := tx.Fee * 1000 / size

	desc := &txDesc{tx: tx, hash: hash, added: time.Now(), feePerKB: feePerKB}
	m.byHash[hash] = desc
	for i := range tx.Inputs {
		m.keyImages[tx.Inputs[i].KeyImage] = hash
	}
	m.lastUpdate = time.Now()

	if len(m.byHash) > m.cfg.MaxSize {
		m.evictLowestFeeLocked()
	}
	return nil
}

// evictLowestFeeLocked drops the single lowest fee-per-KB transaction,
// tie-broken by transaction hash (lowest hash evicted first) for
// determinism across nodes. Caller must hold m.mu.
func (m *Mempool) evictLowestFeeLocked() {
	var worst *txDesc
	for _, d := range m.byHash {
		if worst == nil || d.feePerKB < worst.feePerKB ||
			(d.feePerKB == worst.feePerKB && hashLess(d.hash, worst.hash)) {
			worst = d
		}
	}
	if worst == nil {
		return
	}
	m.removeLocked(worst.hash)
}

func (m *Mempool) removeLocked(hash botmsg.Hash) {
	d, ok := m.byHash[hash]
	if !ok {
		return
	}
	for i := range d.tx.Inputs {
		delete(m.keyImages, d.tx.Inputs[i].KeyImage)
	}
	delete(m.byHash, hash)
}

// Remove drops a transaction from the pool (e.g. because it was mined).
func (m *Mempool) Remove(hash botmsg.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(hash)
}

// Has reports whether a transaction hash is in the pool.
func (m *Mempool) Has(hash botmsg.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byHash[hash]
	return ok
}

// Get returns the pooled transaction with the given hash, if any (RPC
// tx_get/tx_getStatus convenience lookup).
func (m *Mempool) Get(hash botmsg.Hash) (*botmsg.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.byHash[hash]
	if !ok {
		return nil, false
	}
	return d.tx, true
}

// Len returns the number of pooled transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byHash)
}

// LastUpdated returns the last time a transaction was added to or removed
// from the pool (teacher TxSource.LastUpdated convention).
func (m *Mempool) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdate
}

func hashLess(a, b botmsg.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// feeWins reports whether a challenger with (newFee, newHash) displaces an
// incumbent with (oldFee, oldHash) on a key-image conflict (spec §5: higher
// fee wins, tie-broken by hash). Equal fees are broken the same direction
// evictLowestFeeLocked already uses for its own fee tie-break: the lower
// hash loses.
func feeWins(newFee uint64, newHash botmsg.Hash, oldFee uint64, oldHash botmsg.Hash) bool {
	if newFee != oldFee {
		return newFee > oldFee
	}
	return hashLess(oldHash, newHash)
}

// SelectForBlock returns up to maxCount pooled transactions ordered by
// descending fee-per-KB (teacher mining.go's priority-queue block
// assembly, simplified to Botho's single fee dimension since there is no
// separate "priority" input-age heuristic).
func (m *Mempool) SelectForBlock(maxCount int) []*botmsg.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pq := newTxPriorityQueue(len(m.byHash))
	for _, d := range m.byHash {
		heap.Push(pq, d)
	}

	out := make([]*botmsg.Transaction, 0, maxCount)
	for pq.Len() > 0 && len(out) < maxCount {
		d := heap.Pop(pq).(*txDesc)
		out = append(out, d.tx)
	}
	return out
}
