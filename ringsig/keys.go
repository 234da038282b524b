package ringsig

import "github.com/pkg/errors"

const (
	domainTxKey       = "botho/stealth/txkey-v1"
	domainOneTimeKey  = "botho/stealth/onetime-v1"
	domainKeyImage    = "botho/keyimage-v1"
	domainClsagChallenge = "botho/clsag/challenge-v1"
)

// KeyPair is a scalar/point pair: priv·G = pub.
type KeyPair struct {
	Priv *PrivateScalar
	Pub  *PublicPoint
}

// GenerateKeyPair draws a fresh random key pair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := RandomScalar()
	if err != nil {
		return KeyPair{}, err
	}
	pub := ristrettoScalarBaseMult(priv)
	return KeyPair{Priv: priv, Pub: pub}, nil
}

func ristrettoScalarBaseMult(s *PrivateScalar) *PublicPoint {
	return BasePoint().ScalarMult(s, BasePoint())
}

// Subaddress is the dual-key stealth receiving address Botho wallets publish
// (spec §3/§9): a spend public key S and a view public key V. Only the
// owner holds the matching private scalars.
type Subaddress struct {
	SpendPub *PublicPoint
	ViewPub  *PublicPoint
}

// OneTimeOutput is the result of deriving a stealth output for a recipient.
type OneTimeOutput struct {
	TxPub     *PublicPoint // R = r·G, published with the output
	TargetKey *PublicPoint // P = H_s(r·V)·G + S
}

// DeriveOneTimeKey computes a fresh one-time output key for addr, using
// sender-side randomness r (spec §4.3: "stealth one-time output key
// derivation P = H_s(r·V)·G + S").
func DeriveOneTimeKey(addr Subaddress) (OneTimeOutput, *PrivateScalar, error) {
	r, err := RandomScalar()
	if err != nil {
		return OneTimeOutput{}, nil, err
	}
	txPub := BasePoint().ScalarMult(r, BasePoint())
	shared := addr.ViewPub.ScalarMult(r, addr.ViewPub)
	hs := HashToScalar(domainOneTimeKey, shared.Encode(nil))
	target := BasePoint().ScalarMult(hs, BasePoint())
	target = target.Add(target, addr.SpendPub)
	return OneTimeOutput{TxPub: txPub, TargetKey: target}, r, nil
}

// RecognizeOutput tests whether a scanned output (txPub, targetKey) belongs
// to the wallet holding (viewPriv, spendPub): H_s(v·R)·G + S ?= P.
func RecognizeOutput(viewPriv *PrivateScalar, spendPub, txPub, targetKey *PublicPoint) bool {
	shared := txPub.ScalarMult(viewPriv, txPub)
	hs := HashToScalar(domainOneTimeKey, shared.Encode(nil))
	candidate := BasePoint().ScalarMult(hs, BasePoint())
	candidate = candidate.Add(candidate, spendPub)
	return candidate.Equal(targetKey) == 1
}

// RecoverOneTimePrivateKey derives the spendable private key x for a
// recognized output, given the wallet's view and spend private scalars.
func RecoverOneTimePrivateKey(viewPriv, spendPriv *PrivateScalar, txPub *PublicPoint) *PrivateScalar {
	shared := txPub.ScalarMult(viewPriv, txPub)
	hs := HashToScalar(domainOneTimeKey, shared.Encode(nil))
	x := ristrettoScalarAdd(hs, spendPriv)
	return x
}

func ristrettoScalarAdd(a, b *PrivateScalar) *PrivateScalar {
	return a.Add(a, b)
}

// KeyImage computes the double-spend witness I = x·H_p(P) for a one-time
// private key x and its corresponding public key P (spec §4.3).
func KeyImage(x *PrivateScalar, targetKey *PublicPoint) *PublicPoint {
	hp := HashToPoint(domainKeyImage, targetKey.Encode(nil))
	return hp.ScalarMult(x, hp)
}

// ParsePoint is a small convenience wrapper around DecodePoint that wraps
// decode failures with context, used when reading ring members off the
// wire (botmsg.TxOut.TargetKey).
func ParsePoint(b []byte) (*PublicPoint, error) {
	p, err := DecodePoint(b)
	if err != nil {
		return nil, errors.Wrap(err, "ringsig: invalid ristretto255 point encoding")
	}
	return p, nil
}
