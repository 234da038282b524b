package main

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/botho-project/botho/ringsig"
	"github.com/pkg/errors"
)

// minerKeyFile is the node's own persisted block-reward subaddress, kept
// as plain hex-encoded scalars rather than a wallet.File: it never holds
// spendable balances of consequence on its own (a real deployment pays
// mined funds out to an operator-controlled address via the RPC surface)
// and spec.md does not define a format for it.
type minerKeyFile struct {
	SpendPriv string `json:"spend_priv"`
	ViewPriv  string `json:"view_priv"`
}

// loadOrCreateMinerKey reads the node's miner subaddress from path,
// generating and persisting a fresh one on first run.
func loadOrCreateMinerKey(path string) (ringsig.Subaddress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return generateMinerKey(path)
	}
	if err != nil {
		return ringsig.Subaddress{}, errors.Wrap(err, "bothod: reading miner key file")
	}

	var f minerKeyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return ringsig.Subaddress{}, errors.Wrap(err, "bothod: decoding miner key file")
	}
	spendPriv, err := decodeScalarHex(f.SpendPriv)
	if err != nil {
		return ringsig.Subaddress{}, errors.Wrap(err, "bothod: invalid spend key in miner key file")
	}
	viewPriv, err := decodeScalarHex(f.ViewPriv)
	if err != nil {
		return ringsig.Subaddress{}, errors.Wrap(err, "bothod: invalid view key in miner key file")
	}
	return ringsig.Subaddress{
		SpendPub: ristrettoScalarBaseMultPublic(spendPriv),
		ViewPub:  ristrettoScalarBaseMultPublic(viewPriv),
	}, nil
}

func generateMinerKey(path string) (ringsig.Subaddress, error) {
	spend, err := ringsig.GenerateKeyPair()
	if err != nil {
		return ringsig.Subaddress{}, err
	}
	view, err := ringsig.GenerateKeyPair()
	if err != nil {
		return ringsig.Subaddress{}, err
	}
	spendPriv := ringsig.EncodeScalar(spend.Priv)
	viewPriv := ringsig.EncodeScalar(view.Priv)
	f := minerKeyFile{
		SpendPriv: hex.EncodeToString(spendPriv[:]),
		ViewPriv:  hex.EncodeToString(viewPriv[:]),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return ringsig.Subaddress{}, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ringsig.Subaddress{}, errors.Wrap(err, "bothod: writing miner key file")
	}
	return ringsig.Subaddress{SpendPub: spend.Pub, ViewPub: view.Pub}, nil
}

func decodeScalarHex(s string) (*ringsig.PrivateScalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return ringsig.DecodeScalar(b)
}

// ristrettoScalarBaseMultPublic recovers a public key from a persisted
// private scalar, the same base-point multiplication ringsig.GenerateKeyPair
// performs internally but exposed here since loading a key from disk
// starts from the scalar alone.
func ristrettoScalarBaseMultPublic(priv *ringsig.PrivateScalar) *ringsig.PublicPoint {
	return ringsig.BasePoint().ScalarMult(priv, ringsig.BasePoint())
}
