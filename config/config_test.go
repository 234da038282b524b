package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultFlagsSetsDataDirFromNetwork(t *testing.T) {
	f := DefaultFlags("testnet")
	if f.Network != "testnet" {
		t.Fatalf("expected network testnet, got %q", f.Network)
	}
	if filepath.Base(f.DataDir) != "testnet" {
		t.Fatalf("expected data dir to end in testnet, got %q", f.DataDir)
	}
}

func TestSaveLoadTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ConfigFilePath(dir)

	want := DefaultFlags("testnet")
	want.MaxPeers = 128
	want.RPCListen = "127.0.0.1:1234"
	if err := SaveTOML(path, want); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	got := DefaultFlags("testnet")
	if err := LoadTOML(path, &got); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}
	if got.MaxPeers != 128 || got.RPCListen != "127.0.0.1:1234" {
		t.Fatalf("loaded config does not match saved: %+v", got)
	}
}

func TestLoadTOMLToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	f := DefaultFlags("mainnet")
	if err := LoadTOML(ConfigFilePath(dir), &f); err != nil {
		t.Fatalf("expected missing config.toml to be tolerated, got %v", err)
	}
}

func TestPathHelpers(t *testing.T) {
	dir := "/tmp/botho/mainnet"
	if WalletFilePath(dir) != filepath.Join(dir, "wallet.dat") {
		t.Fatal("unexpected wallet file path")
	}
	if RateLimiterFilePath(dir) != filepath.Join(dir, "rate_limiter.json") {
		t.Fatal("unexpected rate limiter file path")
	}
	if LedgerDir(dir) != filepath.Join(dir, "ledger") {
		t.Fatal("unexpected ledger dir path")
	}
}
