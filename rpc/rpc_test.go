package rpc

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/botho-project/botho/botmsg"
	"github.com/botho-project/botho/chaincfg"
	"github.com/botho-project/botho/ledger"
	"github.com/botho-project/botho/mempool"
	"github.com/botho-project/botho/monetary"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })

	var maxTarget botmsg.Hash
	for i := range maxTarget {
		maxTarget[i] = 0xff
	}
	genesis := &botmsg.Block{
		Header: botmsg.BlockHeader{Version: 1, Height: 0},
		MintingTx: botmsg.Transaction{
			Outputs: []botmsg.TxOut{{Amount: 1_000_000, TargetKey: [32]byte{1}, PublicKey: [32]byte{2}}},
		},
	}
	if err := l.AddBlock(ledger.ApplyParams{Block: genesis, PoWTarget: maxTarget, BlockReward: 1_000_000}); err != nil {
		t.Fatal(err)
	}

	mp := mempool.New(mempool.DefaultConfig())
	ctrl := monetary.NewController(monetary.DefaultConfig(), 1)
	return NewServer(l, mp, ctrl, chaincfg.TestNetParams, nil)
}

func call(t *testing.T, s *Server, method string, params interface{}) Response {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
	}
	id := json.RawMessage(`1`)
	return s.dispatch(Request{JSONRPC: jsonrpcVersion, Method: method, Params: raw, ID: id})
}

func TestNodeGetStatus(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "node_getStatus", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(nodeStatusResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Height != 0 {
		t.Fatalf("expected height 0 at genesis, got %d", result.Height)
	}
	if result.Network != "testnet" {
		t.Fatalf("expected testnet, got %q", result.Network)
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "not_a_real_method", nil)
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("expected ErrCodeMethodNotFound, got %+v", resp.Error)
	}
}

func TestTxSubmitRejectsMalformedHex(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "tx_submit", txSubmitParams{Hex: "not-hex"})
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("expected invalid params error, got %+v", resp.Error)
	}
}

func TestAddressValidateRejectsGarbage(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "address_validate", addressValidateParams{Address: "not-an-address"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(addressValidateResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Valid {
		t.Fatal("expected garbage input to be invalid")
	}
}

func TestChainGetOutputsReturnsGenesisOutput(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "chain_getOutputs", chainGetOutputsParams{From: 0, To: 0})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	entries, ok := resp.Result.([]outputEntry)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if len(entries) != 1 || entries[0].Amount != 1_000_000 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestEstimateFeeWithNoContributionsIsBackgroundOnly(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, "estimateFee", estimateFeeParams{BackgroundWeight: 1_000_000, Basis: 1000})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(estimateFeeResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.EffectiveRateBps <= 0 {
		t.Fatalf("expected a positive background rate, got %f", result.EffectiveRateBps)
	}
}
