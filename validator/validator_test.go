package validator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/botho-project/botho/bterrors"
	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/clustertag"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/monetary"
)

func openTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	dir := t.TempDir()
	l, err := ledger.Open(filepath.Join(dir, "validator-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

var maxPoWTarget = func() botmsg.Hash {
	var h botmsg.Hash
	for i := range h {
		h[i] = 0xff
	}
	return h
}()

func genesisBlock() *botmsg.Block {
	return &botmsg.Block{
		Header: botmsg.BlockHeader{Version: 1, Height: 0},
		MintingTx: botmsg.Transaction{
			Outputs: []botmsg.TxOut{
				{Amount: 1_000_000, TargetKey: [32]byte{1}, PublicKey: [32]byte{2}},
			},
		},
	}
}

func TestValidateRejectsUnknownParentOnEmptyLedger(t *testing.T) {
	l := openTestLedger(t)
	ctrl := monetary.NewController(monetary.DefaultConfig(), 1)

	block := &botmsg.Block{Header: botmsg.BlockHeader{Version: 1, Height: 5}}
	err := Validate(l, ctrl, block, DefaultConfig(), time.Now())
	if !bterrors.Is(err, bterrors.ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
}

func TestValidateRejectsBadHeightAfterGenesis(t *testing.T) {
	l := openTestLedger(t)
	ctrl := monetary.NewController(monetary.DefaultConfig(), 1)

	genesis := genesisBlock()
	if err := l.AddBlock(ledger.ApplyParams{Block: genesis, PoWTarget: maxPoWTarget, BlockReward: 1_000_000}); err != nil {
		t.Fatal(err)
	}

	bad := &botmsg.Block{Header: botmsg.BlockHeader{Version: 1, Height: 7}}
	err := Validate(l, ctrl, bad, DefaultConfig(), time.Now())
	if !bterrors.Is(err, bterrors.ErrBadBlockHeight) {
		t.Fatalf("expected ErrBadBlockHeight, got %v", err)
	}
}

func TestValidateRejectsBadPrevHash(t *testing.T) {
	l := openTestLedger(t)
	ctrl := monetary.NewController(monetary.DefaultConfig(), 1)

	genesis := genesisBlock()
	if err := l.AddBlock(ledger.ApplyParams{Block: genesis, PoWTarget: maxPoWTarget, BlockReward: 1_000_000}); err != nil {
		t.Fatal(err)
	}

	bad := &botmsg.Block{Header: botmsg.BlockHeader{Version: 1, Height: 1, PrevHash: botmsg.Hash{9, 9, 9}}}
	err := Validate(l, ctrl, bad, DefaultConfig(), time.Now())
	if !bterrors.Is(err, bterrors.ErrBadPrevHash) {
		t.Fatalf("expected ErrBadPrevHash, got %v", err)
	}
}

func TestValidateTransactionRejectsExpiredTombstone(t *testing.T) {
	l := openTestLedger(t)
	tx := botmsg.Transaction{
		Outputs:        []botmsg.TxOut{{Amount: 1}},
		TombstoneBlock: 5,
	}
	err := validateTransaction(l, tx, 10, DefaultConfig())
	if !bterrors.Is(err, bterrors.ErrTransactionExpired) {
		t.Fatalf("expected ErrTransactionExpired, got %v", err)
	}
}

func TestValidateTransactionRejectsDuplicateRingEntries(t *testing.T) {
	l := openTestLedger(t)
	id := botmsg.UtxoId{TxHash: botmsg.Hash{1}, OutputIndex: 0}
	tx := botmsg.Transaction{
		Inputs: []botmsg.TxIn{
			{Ring: []botmsg.UtxoId{id, id}, KeyImage: botmsg.Hash{2}},
		},
		Outputs: []botmsg.TxOut{{Amount: 1}},
	}
	err := validateTransaction(l, tx, 0, DefaultConfig())
	if !bterrors.Is(err, bterrors.ErrDuplicateTxInRing) {
		t.Fatalf("expected ErrDuplicateTxInRing, got %v", err)
	}
}

func TestValidateTransactionRejectsFeeBelowBackgroundRate(t *testing.T) {
	l := openTestLedger(t)
	tx := botmsg.Transaction{
		Outputs: []botmsg.TxOut{
			{Amount: 1_000_000, ClusterTags: clustertag.Empty()},
		},
		Fee: 0,
	}
	err := validateTransaction(l, tx, 0, DefaultConfig())
	if !bterrors.Is(err, bterrors.ErrFeeTooLow) {
		t.Fatalf("expected ErrFeeTooLow, got %v", err)
	}
}

func TestValidateTransactionRejectsEmptyOutputs(t *testing.T) {
	l := openTestLedger(t)
	err := validateTransaction(l, botmsg.Transaction{}, 0, DefaultConfig())
	if !bterrors.Is(err, bterrors.ErrMissingUtxo) {
		t.Fatalf("expected ErrMissingUtxo, got %v", err)
	}
}
