// Package ringsig implements Botho's stealth one-time keys and CLSAG ring
// signatures over Ristretto255 (spec §4.3). Curve arithmetic is delegated
// to github.com/gtank/ristretto255 — spec §1 lists Ed25519-Ristretto as a
// primitive "assumed available as a library", so no group arithmetic is
// hand-rolled here.
package ringsig

import (
	"github.com/gtank/ristretto255"
	"lukechampine.com/blake3"
)

// PrivateScalar is a Ristretto255 scalar used as a private key or nonce.
type PrivateScalar = ristretto255.Scalar

// PublicPoint is a Ristretto255 group element used as a public key.
type PublicPoint = ristretto255.Element

// hashWide returns a 64-byte BLAKE3 XOF output over domain||parts, suitable
// for the "hash to uniform bytes" input FromUniformBytes expects for both
// hash-to-scalar and hash-to-group constructions.
func hashWide(domain string, parts ...[]byte) []byte {
	h := blake3.New(64, nil)
	_, _ = h.Write([]byte(domain))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(nil)
}

// HashToScalar is Botho's H_s: a domain-separated hash-to-scalar function.
func HashToScalar(domain string, parts ...[]byte) *PrivateScalar {
	wide := hashWide(domain, parts...)
	return ristretto255.NewScalar().FromUniformBytes(wide)
}

// HashToPoint is Botho's H_p: a domain-separated hash-to-group function,
// used to derive the key-image base point from a one-time output key.
func HashToPoint(domain string, parts ...[]byte) *PublicPoint {
	wide := hashWide(domain, parts...)
	return ristretto255.NewElement().FromUniformBytes(wide)
}

// BasePoint returns the Ristretto255 conventional base point G.
func BasePoint() *PublicPoint {
	one := ristretto255.NewScalar()
	oneBytes := make([]byte, 32)
	oneBytes[0] = 1
	if err := one.Decode(oneBytes); err != nil {
		panic("ringsig: failed to decode scalar one: " + err.Error())
	}
	return ristretto255.NewElement().ScalarBaseMult(one)
}

// RandomScalar draws a uniformly random scalar from crypto/rand-backed
// entropy, suitable for ephemeral transaction keys and CLSAG nonces.
func RandomScalar() (*PrivateScalar, error) {
	seed, err := randomBytes(64)
	if err != nil {
		return nil, err
	}
	return ristretto255.NewScalar().FromUniformBytes(seed), nil
}

// EncodePoint returns the canonical 32-byte encoding of p.
func EncodePoint(p *PublicPoint) [32]byte {
	var out [32]byte
	copy(out[:], p.Encode(nil))
	return out
}

// DecodePoint decodes a canonical 32-byte group-element encoding.
func DecodePoint(b []byte) (*PublicPoint, error) {
	p := ristretto255.NewElement()
	if err := p.Decode(b); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeScalar returns the canonical 32-byte encoding of s.
func EncodeScalar(s *PrivateScalar) [32]byte {
	var out [32]byte
	copy(out[:], s.Encode(nil))
	return out
}

// DecodeScalar decodes a canonical 32-byte scalar encoding.
func DecodeScalar(b []byte) (*PrivateScalar, error) {
	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return nil, err
	}
	return s, nil
}
