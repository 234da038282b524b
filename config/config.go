// Package config resolves Botho's per-process configuration: CLI flags
// via go-flags layered over a persisted config.toml (spec.md's "Persisted
// state layout": one per-network directory holding config.toml,
// wallet.dat, rate_limiter.json, ledger/). Grounded on the teacher's
// kasparov/kasparovd/config package (a go-flags-parsed struct with a
// package-level ActiveConfig singleton and a Parse() entry point).
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/jessevdk/go-flags"
)

// Flags mirrors the CLI surface bothod accepts, resolved
// against config.toml defaults the same way the teacher's
// ResolveKasparovFlags layers CLI over file config.
type Flags struct {
	Network     string `long:"network" description:"network to connect to (mainnet, testnet)" toml:"network"`
	DataDir     string `long:"datadir" description:"directory to store the per-network state in" toml:"data_dir"`
	P2PListen   string `long:"listen" description:"P2P address to listen on" toml:"p2p_listen"`
	RPCListen   string `long:"rpclisten" description:"JSON-RPC address to listen on" toml:"rpc_listen"`
	MaxPeers    int    `long:"maxpeers" description:"maximum number of peers" toml:"max_peers"`
	DebugLevel  string `long:"debuglevel" description:"logging level / subsystem=level pairs" toml:"debug_level"`
	ConfigFile  string `long:"configfile" description:"path to config.toml" toml:"-"`
	Mine        bool   `long:"mine" description:"produce blocks against the local mempool" toml:"mine"`
	MineWorkers int    `long:"mineworkers" description:"number of proof-of-work search goroutines" toml:"mine_workers"`
}

// DefaultFlags returns Botho's reference defaults, mirroring the
// defaultLogDir/defaultHTTPListen pattern the teacher sets before
// flags.NewParser runs.
func DefaultFlags(network string) Flags {
	return Flags{
		Network:     network,
		DataDir:     defaultDataDir(network),
		P2PListen:   "0.0.0.0:7990",
		RPCListen:   "0.0.0.0:7991",
		MaxPeers:    64,
		DebugLevel:  "info",
		Mine:        false,
		MineWorkers: 1,
	}
}

func defaultDataDir(network string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".botho", network)
}

// ConfigFilePath returns the config.toml path within a network's data
// directory.
func ConfigFilePath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// WalletFilePath returns the wallet.dat path within a network's data
// directory.
func WalletFilePath(dataDir string) string {
	return filepath.Join(dataDir, "wallet.dat")
}

// RateLimiterFilePath returns the rate_limiter.json path within a
// network's data directory.
func RateLimiterFilePath(dataDir string) string {
	return filepath.Join(dataDir, "rate_limiter.json")
}

// LedgerDir returns the ledger/ subdirectory within a network's data
// directory.
func LedgerDir(dataDir string) string {
	return filepath.Join(dataDir, "ledger")
}

// MinerKeyFilePath returns the path of the node's own block-reward
// subaddress file within a network's data directory. Unlike wallet.dat
// (a user's encrypted spending wallet, spec §6), this is the reference
// daemon's own coinbase destination, out of spec scope, so it is kept
// separate and unencrypted rather than folded into the wallet format.
func MinerKeyFilePath(dataDir string) string {
	return filepath.Join(dataDir, "miner_key.json")
}

// LoadTOML reads a config.toml at path into defaults, leaving any field
// config.toml doesn't set at its default value. A missing file is not an
// error: first-run nodes have no config.toml yet.
func LoadTOML(path string, defaults *Flags) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	_, err := toml.DecodeFile(path, defaults)
	return err
}

// SaveTOML writes f to path as config.toml, creating its parent directory
// if needed.
func SaveTOML(path string, f Flags) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(f)
}

// Parse layers CLI flags over a config.toml default set: it resolves
// --network first (or "mainnet" if unset) to locate the right data
// directory, loads config.toml if present, then re-parses the command
// line so explicit flags win over file config.
func Parse(args []string, network string) (*Flags, error) {
	f := DefaultFlags(network)
	if network == "" {
		var probe Flags
		parser := flags.NewParser(&probe, flags.IgnoreUnknown)
		_, _ = parser.ParseArgs(args)
		if probe.Network != "" {
			network = probe.Network
			f = DefaultFlags(network)
		} else {
			network = "mainnet"
			f = DefaultFlags(network)
		}
	}

	if err := LoadTOML(ConfigFilePath(f.DataDir), &f); err != nil {
		return nil, err
	}

	parser := flags.NewParser(&f, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return &f, nil
}
