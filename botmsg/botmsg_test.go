package botmsg

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/botho-project/botho/clustertag"
)

func TestTransactionSerializeRoundTrip(t *testing.T) {
	tx := &Transaction{
		Inputs: []TxIn{
			{
				Ring: []UtxoId{
					{TxHash: SumHash([]byte("a")), OutputIndex: 0},
					{TxHash: SumHash([]byte("b")), OutputIndex: 1},
				},
				KeyImage:  SumHash([]byte("keyimage")),
				Signature: []byte{1, 2, 3, 4},
			},
		},
		Outputs: []TxOut{
			{Amount: 1000, TargetKey: [32]byte{1}, PublicKey: [32]byte{2}},
		},
		Fee:             10,
		TombstoneBlock:  100,
		CreatedAtHeight: 5,
	}

	data, err := tx.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	round, err := DecodeTransaction(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if round.Fee != tx.Fee || round.TombstoneBlock != tx.TombstoneBlock {
		t.Fatalf("round trip mismatch:\ngot:  %s\nwant: %s", spew.Sdump(round), spew.Sdump(tx))
	}
	if len(round.Inputs) != 1 || len(round.Inputs[0].Ring) != 2 {
		t.Fatalf("round trip input mismatch: %+v", round.Inputs)
	}
	h1, _ := tx.Hash()
	h2, _ := round.Hash()
	if h1 != h2 {
		t.Fatal("hash must be stable across round trip")
	}
}

func TestUTXOMarshalRoundTrip(t *testing.T) {
	tags, _ := clustertag.WithFullAttribution(7)
	u := &UTXO{
		TxOut: TxOut{
			Amount:      500,
			TargetKey:   [32]byte{9},
			PublicKey:   [32]byte{8},
			ClusterTags: tags,
		},
		CreatedAtHeight: 42,
	}
	data, err := u.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var round UTXO
	if err := round.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if round.Amount != u.Amount || round.CreatedAtHeight != u.CreatedAtHeight {
		t.Fatalf("round trip mismatch: %+v vs %+v", round, u)
	}
	if round.ClusterTags.WeightOf(7) != u.ClusterTags.WeightOf(7) {
		t.Fatal("cluster tags did not round trip")
	}
}

func TestBlockHeaderHashDeterministic(t *testing.T) {
	h := BlockHeader{Version: 1, Height: 10, Difficulty: 0x1d00ffff, Nonce: 99}
	a, err := h.Hash()
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("header hash must be deterministic")
	}
	h.Nonce++
	c, _ := h.Hash()
	if a == c {
		t.Fatal("changing nonce must change hash")
	}
}

func TestMerkleRootSingleAndEmpty(t *testing.T) {
	if r := MerkleRoot(nil); !r.IsZero() {
		t.Fatal("empty transaction set must produce zero root")
	}
	single := SumHash([]byte("only"))
	if r := MerkleRoot([]Hash{single}); r != single {
		t.Fatal("single-leaf merkle root must equal the leaf")
	}
}

func TestUtxoIdBytesRoundTrip(t *testing.T) {
	id := UtxoId{TxHash: SumHash([]byte("x")), OutputIndex: 3}
	b := id.Bytes()
	round, err := UtxoIdFromBytes(b[:])
	if err != nil {
		t.Fatal(err)
	}
	if round != id {
		t.Fatalf("round trip mismatch: %+v vs %+v", round, id)
	}
}
