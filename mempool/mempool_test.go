package mempool

import (
	"testing"

	"github.com/botho-project/botho/botmsg"
)

func txWithFee(t *testing.T, fee uint64, keyImage byte) *botmsg.Transaction {
	t.Helper()
	return &botmsg.Transaction{
		Inputs: []botmsg.TxIn{
			{
				Ring:      []botmsg.UtxoId{{TxHash: botmsg.SumHash([]byte{keyImage}), OutputIndex: 0}},
				KeyImage:  botmsg.SumHash([]byte{'k', keyImage}),
				Signature: []byte{1, 2, 3},
			},
		},
		Outputs: []botmsg.TxOut{{Amount: 100}},
		Fee:     fee,
	}
}

// Key-image conflict resolution (spec §5 "Ordering guarantees": "if two
// transactions present the same key image, the one with higher fee wins on
// tie-break by hash"): a higher-fee challenger replaces the pooled
// incumbent, evicting it, rather than being unconditionally rejected.
func TestAcceptReplacesLowerFeeKeyImageConflict(t *testing.T) {
	mp := New(DefaultConfig())
	tx1 := txWithFee(t, 10, 1)
	if err := mp.Accept(tx1); err != nil {
		t.Fatal(err)
	}
	tx1Hash, _ := tx1.Hash()

	tx2 := txWithFee(t, 20, 1) // same key image, strictly higher fee
	tx2.Outputs[0].Amount = 200
	if err := mp.Accept(tx2); err != nil {
		t.Fatalf("expected higher-fee challenger to replace the incumbent: %v", err)
	}

	if mp.Has(tx1Hash) {
		t.Fatal("expected the lower-fee incumbent to be evicted")
	}
	tx2Hash, _ := tx2.Hash()
	if !mp.Has(tx2Hash) {
		t.Fatal("expected the higher-fee challenger to be admitted")
	}
	if mp.Len() != 1 {
		t.Fatalf("expected exactly one pooled transaction after replacement, got %d", mp.Len())
	}
}

// The converse: a lower-fee challenger loses the contest and is rejected,
// leaving the higher-fee incumbent in place.
func TestAcceptRejectsLowerFeeKeyImageConflict(t *testing.T) {
	mp := New(DefaultConfig())
	tx1 := txWithFee(t, 20, 1)
	if err := mp.Accept(tx1); err != nil {
		t.Fatal(err)
	}
	tx1Hash, _ := tx1.Hash()

	tx2 := txWithFee(t, 10, 1) // same key image, strictly lower fee
	tx2.Outputs[0].Amount = 200
	if err := mp.Accept(tx2); err == nil {
		t.Fatal("expected lower-fee challenger to be rejected")
	}

	if !mp.Has(tx1Hash) {
		t.Fatal("expected the higher-fee incumbent to remain pooled")
	}
	if mp.Len() != 1 {
		t.Fatalf("expected exactly one pooled transaction, got %d", mp.Len())
	}
}

func TestSelectForBlockOrdersByFeePerKB(t *testing.T) {
	mp := New(DefaultConfig())
	low := txWithFee(t, 1, 1)
	high := txWithFee(t, 1000, 2)
	if err := mp.Accept(low); err != nil {
		t.Fatal(err)
	}
	if err := mp.Accept(high); err != nil {
		t.Fatal(err)
	}

	selected := mp.SelectForBlock(2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(selected))
	}
	if selected[0].Fee != 1000 {
		t.Fatalf("expected highest fee transaction first, got fee %d", selected[0].Fee)
	}
}

func TestRemoveClearsKeyImage(t *testing.T) {
	mp := New(DefaultConfig())
	tx := txWithFee(t, 10, 3)
	if err := mp.Accept(tx); err != nil {
		t.Fatal(err)
	}
	hash, _ := tx.Hash()
	mp.Remove(hash)
	if mp.Has(hash) {
		t.Fatal("expected transaction to be removed")
	}

	// Key image should be free again for a new transaction.
	tx2 := txWithFee(t, 5, 3)
	if err := mp.Accept(tx2); err != nil {
		t.Fatalf("expected key image to be reusable after removal: %v", err)
	}
}

func TestMempoolEvictsLowestFeeWhenFull(t *testing.T) {
	cfg := Config{MaxSize: 2}
	mp := New(cfg)
	if err := mp.Accept(txWithFee(t, 5, 1)); err != nil {
		t.Fatal(err)
	}
	if err := mp.Accept(txWithFee(t, 10, 2)); err != nil {
		t.Fatal(err)
	}
	if err := mp.Accept(txWithFee(t, 1000, 3)); err != nil {
		t.Fatal(err)
	}
	if mp.Len() != 2 {
		t.Fatalf("expected pool capped at 2, got %d", mp.Len())
	}
}
