package txbuilder

import (
	"testing"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/decoy"
	"github.com/botho-project/botho/ringsig"
)

// fakePool is an in-memory DecoyPool stand-in for tests: a fixed set of
// decoy candidates and a lookup table back to their public keys.
type fakePool struct {
	candidates []decoy.Candidate
	outputs    map[botmsg.UtxoId]botmsg.TxOut
	wealth     map[clustertag.ClusterID]uint64
}

func (p *fakePool) DecoyCandidates(real decoy.Candidate) ([]decoy.Candidate, error) {
	return p.candidates, nil
}

func (p *fakePool) Resolve(id botmsg.UtxoId) (botmsg.TxOut, error) {
	return p.outputs[id], nil
}

func (p *fakePool) ClusterWealth(c clustertag.ClusterID) (uint64, error) {
	return p.wealth[c], nil
}

func newFakePool(t *testing.T, n int) *fakePool {
	t.Helper()
	p := &fakePool{outputs: make(map[botmsg.UtxoId]botmsg.TxOut), wealth: map[clustertag.ClusterID]uint64{}}
	for i := 0; i < n; i++ {
		kp, err := ringsig.GenerateKeyPair()
		if err != nil {
			t.Fatal(err)
		}
		id := botmsg.UtxoId{TxHash: botmsg.Hash{byte(i + 1)}, OutputIndex: 0}
		p.outputs[id] = botmsg.TxOut{Amount: 1000, TargetKey: ringsig.EncodePoint(kp.Pub)}
		p.candidates = append(p.candidates, decoy.Candidate{UtxoId: id, Age: 50, ClusterFactor: 1.0})
	}
	return p
}

func newSpendableInput(t *testing.T, amount uint64, age uint64) SpendableInput {
	t.Helper()
	kp, err := ringsig.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	return SpendableInput{
		UtxoId:     botmsg.UtxoId{TxHash: botmsg.Hash{0xaa}, OutputIndex: 0},
		PrivateKey: kp.Priv,
		TargetKey:  kp.Pub,
		Amount:     amount,
		Age:        age,
		Tags:       clustertag.Empty(),
	}
}

func newRecipientAddress(t *testing.T) ringsig.Subaddress {
	t.Helper()
	spend, err := ringsig.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	view, err := ringsig.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	return ringsig.Subaddress{SpendPub: spend.Pub, ViewPub: view.Pub}
}

func TestBuildProducesVerifiableRingSignature(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RingSize = 5
	pool := newFakePool(t, 10)

	input := newSpendableInput(t, 1_000_000, 200)
	recipient := Recipient{Address: newRecipientAddress(t), Amount: 100_000}
	bp := Blueprint{
		Inputs:        []SpendableInput{input},
		Recipients:    []Recipient{recipient},
		ChangeAddress: newRecipientAddress(t),
		Height:        1000,
	}

	rng := decoy.NewSeededStream(42)
	tx, err := Build(bp, pool, cfg, nil, nil, rng)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(tx.Inputs) != 1 {
		t.Fatalf("expected 1 input, got %d", len(tx.Inputs))
	}
	if len(tx.Inputs[0].Ring) != cfg.RingSize {
		t.Fatalf("expected ring size %d, got %d", cfg.RingSize, len(tx.Inputs[0].Ring))
	}
	if len(tx.Outputs) != 2 {
		t.Fatalf("expected recipient + change outputs, got %d", len(tx.Outputs))
	}
	if tx.Outputs[0].ClusterTags.Len() != tx.Outputs[1].ClusterTags.Len() {
		t.Fatal("expected every output to share the same merged cluster-tag vector")
	}

	signingHash, err := tx.SigningHash()
	if err != nil {
		t.Fatal(err)
	}
	ring := make([]*ringsig.PublicPoint, len(tx.Inputs[0].Ring))
	for i, id := range tx.Inputs[0].Ring {
		out, err := pool.Resolve(id)
		if err != nil {
			t.Fatal(err)
		}
		if id == input.UtxoId {
			ring[i] = input.TargetKey
			continue
		}
		p, err := ringsig.ParsePoint(out.TargetKey[:])
		if err != nil {
			t.Fatal(err)
		}
		ring[i] = p
	}
	keyImage, err := ringsig.ParsePoint(tx.Inputs[0].KeyImage[:])
	if err != nil {
		t.Fatal(err)
	}
	sig, err := ringsig.DecodeSignature(tx.Inputs[0].Signature)
	if err != nil {
		t.Fatal(err)
	}
	if err := ringsig.Verify(signingHash[:], ring, keyImage, sig); err != nil {
		t.Fatalf("ring signature failed to verify: %v", err)
	}
}

func TestBuildRejectsInsufficientFunds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RingSize = 5
	pool := newFakePool(t, 10)

	input := newSpendableInput(t, 100, 200)
	recipient := Recipient{Address: newRecipientAddress(t), Amount: 1_000_000}
	bp := Blueprint{
		Inputs:        []SpendableInput{input},
		Recipients:    []Recipient{recipient},
		ChangeAddress: newRecipientAddress(t),
		Height:        1000,
	}

	_, err := Build(bp, pool, cfg, nil, nil, decoy.NewSeededStream(7))
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}
