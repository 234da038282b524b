// Package chaincfg defines Botho's per-network parameter sets (spec.md
// §4.7/§4.9 defaults, SPEC_FULL.md §4.16 EXPANSION), grounded directly on
// the teacher's dagconfig.Params pattern: one struct bundling every
// network-differentiating constant, selected once at node startup.
package chaincfg

import (
	"github.com/botho-project/botho/decoy"
	"github.com/botho-project/botho/feecurve"
	"github.com/botho-project/botho/lottery"
	"github.com/botho-project/botho/monetary"
	"github.com/botho-project/botho/pex"
	"github.com/botho-project/botho/ringsig"
)

// AddressVersion bytes tag a base58check address payload with both the
// network and the address kind (spec §6 "Address format").
type AddressVersion struct {
	Classical       byte
	QuantumExtended byte
}

// Params bundles one network's full parameter set.
type Params struct {
	Name string

	// Genesis header fields. The genesis block's prev hash is all-zero
	// for every network and has no field of its own.
	GenesisTimestamp int64
	GenesisNonce     uint64
	GenesisDifficulty uint32

	Monetary  monetary.Config
	FeeCurve  feecurve.Config
	Lottery   lottery.Config
	RingSig   ringsig.Config
	Decoy     decoy.Config

	AddressVersions AddressVersion

	DefaultP2PPort string
	DefaultRPCPort string

	ProtocolVersionMajor uint16
	ProtocolVersionMinor uint16
	ProtocolVersionPatch uint16
	PEX                  pex.Config
}

// MainNetParams are Botho's production network parameters.
var MainNetParams = Params{
	Name:              "mainnet",
	GenesisTimestamp:  1_700_000_000,
	GenesisNonce:      0,
	GenesisDifficulty: 1,

	Monetary: monetary.DefaultConfig(),
	FeeCurve: feecurve.DefaultConfig(),
	Lottery:  lottery.DefaultConfig(),
	RingSig:  ringsig.DefaultConfig(),
	Decoy:    decoy.DefaultConfig(),

	AddressVersions: AddressVersion{Classical: 0x18, QuantumExtended: 0x19},

	DefaultP2PPort: "7990",
	DefaultRPCPort: "7991",

	ProtocolVersionMajor: 1,
	ProtocolVersionMinor: 0,
	ProtocolVersionPatch: 0,
	PEX:                  pex.DefaultConfig(),
}

// TestNetParams are Botho's test network parameters: faster halving and
// difficulty retargeting so test chains progress through both monetary
// phases in a reasonable amount of wall-clock time.
var TestNetParams = Params{
	Name:              "testnet",
	GenesisTimestamp:  1_700_000_000,
	GenesisNonce:      0,
	GenesisDifficulty: 1,

	Monetary: func() monetary.Config {
		c := monetary.DefaultConfig()
		c.HalvingInterval = 2_000
		c.HalvingCount = 4
		c.DifficultyAdjustmentInterval = 60
		return c
	}(),
	FeeCurve: feecurve.DefaultConfig(),
	Lottery:  lottery.DefaultConfig(),
	RingSig:  ringsig.DefaultConfig(),
	Decoy:    decoy.DefaultConfig(),

	AddressVersions: AddressVersion{Classical: 0x58, QuantumExtended: 0x59},

	DefaultP2PPort: "17990",
	DefaultRPCPort: "17991",

	ProtocolVersionMajor: 1,
	ProtocolVersionMinor: 0,
	ProtocolVersionPatch: 0,
	PEX:                  pex.DefaultConfig(),
}

// ByName resolves a network name ("mainnet"/"testnet") to its Params, the
// lookup the config/cmd layer uses when parsing the --network flag.
func ByName(name string) (Params, bool) {
	switch name {
	case "mainnet":
		return MainNetParams, true
	case "testnet":
		return TestNetParams, true
	default:
		return Params{}, false
	}
}
