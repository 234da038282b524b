package mempool

// txPriorityQueue implements container/heap.Interface over txDesc
// pointers, ordered by descending fee-per-KB with a hash tie-break for
// determinism — directly grounded on the teacher's mining.go
// txPriorityQueue/txPQByFee pattern.
type txPriorityQueue struct {
	items []*txDesc
}

func newTxPriorityQueue(reserve int) *txPriorityQueue {
	return &txPriorityQueue{items: make([]*txDesc, 0, reserve)}
}

func (pq *txPriorityQueue) Len() int { return len(pq.items) }

func (pq *txPriorityQueue) Less(i, j int) bool {
	if pq.items[i].feePerKB != pq.items[j].feePerKB {
		return pq.items[i].feePerKB > pq.items[j].feePerKB
	}
	return hashLess(pq.items[i].hash, pq.items[j].hash)
}

func (pq *txPriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *txPriorityQueue) Push(x interface{}) {
	pq.items = append(pq.items, x.(*txDesc))
}

func (pq *txPriorityQueue) Pop() interface{} {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items[n-1] = nil
	pq.items = pq.items[:n-1]
	return item
}
