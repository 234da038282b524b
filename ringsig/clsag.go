package ringsig

import (
	"github.com/gtank/ristretto255"
	"github.com/pkg/errors"
)

// Ring size bounds (spec §4.3): a transaction input must reference between
// MinRingSize and MaxRingSize candidate outputs, DefaultRingSize when the
// wallet has no other preference.
const (
	MinRingSize     = 5
	MaxRingSize     = 31
	DefaultRingSize = 11
)

// Signature is a CLSAG-style ring signature: a single starting challenge
// plus one aggregated response scalar per ring member (spec §4.3).
type Signature struct {
	C1        *PrivateScalar
	Responses []*PrivateScalar
}

// Encode returns the canonical byte encoding of the signature: 32 bytes for
// C1 followed by 32 bytes per response, in ring order.
func (s *Signature) Encode() []byte {
	out := make([]byte, 0, 32*(1+len(s.Responses)))
	out = append(out, s.C1.Encode(nil)...)
	for _, r := range s.Responses {
		out = append(out, r.Encode(nil)...)
	}
	return out
}

// DecodeSignature parses the format written by Signature.Encode.
func DecodeSignature(data []byte) (*Signature, error) {
	if len(data) == 0 || len(data)%32 != 0 {
		return nil, errors.Errorf("ringsig: invalid signature length %d", len(data))
	}
	n := len(data) / 32
	c1, err := DecodeScalar(data[:32])
	if err != nil {
		return nil, errors.Wrap(err, "ringsig: decoding C1")
	}
	sig := &Signature{C1: c1, Responses: make([]*PrivateScalar, n-1)}
	for i := 1; i < n; i++ {
		r, err := DecodeScalar(data[i*32 : (i+1)*32])
		if err != nil {
			return nil, errors.Wrapf(err, "ringsig: decoding response %d", i)
		}
		sig.Responses[i-1] = r
	}
	return sig, nil
}

func challenge(msg []byte, ring []*PublicPoint, keyImage, l, r *PublicPoint) *PrivateScalar {
	parts := make([][]byte, 0, len(ring)+3)
	parts = append(parts, msg, keyImage.Encode(nil), l.Encode(nil), r.Encode(nil))
	for _, p := range ring {
		parts = append(parts, p.Encode(nil))
	}
	return HashToScalar(domainClsagChallenge, parts...)
}

// Sign produces a CLSAG-style ring signature over msg, proving knowledge of
// the private key behind ring[secretIndex] without revealing which member
// it is, and exposing keyImage as the linkable double-spend witness (spec
// §4.3). len(ring) must be within [MinRingSize, MaxRingSize].
func Sign(msg []byte, ring []*PublicPoint, secretIndex int, priv *PrivateScalar, keyImage *PublicPoint) (*Signature, error) {
	n := len(ring)
	if n < MinRingSize || n > MaxRingSize {
		return nil, errors.Errorf("ringsig: ring size %d out of bounds [%d,%d]", n, MinRingSize, MaxRingSize)
	}
	if secretIndex < 0 || secretIndex >= n {
		return nil, errors.Errorf("ringsig: secret index %d out of range", secretIndex)
	}

	a, err := RandomScalar()
	if err != nil {
		return nil, err
	}

	responses := make([]*PrivateScalar, n)
	challenges := make([]*PrivateScalar, n)

	l := secretIndex
	hpSigner := HashToPoint(domainKeyImage, ring[l].Encode(nil))
	lPoint := BasePoint().ScalarMult(a, BasePoint())
	rPoint := hpSigner.ScalarMult(a, hpSigner)

	next := (l + 1) % n
	challenges[next] = challenge(msg, ring, keyImage, lPoint, rPoint)

	for i := next; i != l; i = (i + 1) % n {
		s, err := RandomScalar()
		if err != nil {
			return nil, err
		}
		responses[i] = s

		sG := BasePoint().ScalarMult(s, BasePoint())
		cP := ring[i].ScalarMult(challenges[i], ring[i])
		Li := ristretto255.NewElement().Add(sG, cP)

		hp := HashToPoint(domainKeyImage, ring[i].Encode(nil))
		sHp := hp.ScalarMult(s, hp)
		cI := keyImage.ScalarMult(challenges[i], keyImage)
		Ri := ristretto255.NewElement().Add(sHp, cI)

		ni := (i + 1) % n
		challenges[ni] = challenge(msg, ring, keyImage, Li, Ri)
	}

	cl := challenges[l]
	clp := ristretto255.NewScalar().Multiply(cl, priv)
	sl := ristretto255.NewScalar().Subtract(a, clp)
	responses[l] = sl

	return &Signature{C1: challenges[0], Responses: responses}, nil
}

// Verify checks a CLSAG-style ring signature produced by Sign, returning
// nil only if the challenge chain closes (spec §4.3: "challenge-ring
// closure check").
func Verify(msg []byte, ring []*PublicPoint, keyImage *PublicPoint, sig *Signature) error {
	n := len(ring)
	if n < MinRingSize || n > MaxRingSize {
		return errors.Errorf("ringsig: ring size %d out of bounds [%d,%d]", n, MinRingSize, MaxRingSize)
	}
	if len(sig.Responses) != n {
		return errors.Errorf("ringsig: expected %d responses, got %d", n, len(sig.Responses))
	}

	c := sig.C1
	for i := 0; i < n; i++ {
		s := sig.Responses[i]

		sG := BasePoint().ScalarMult(s, BasePoint())
		cP := ring[i].ScalarMult(c, ring[i])
		Li := ristretto255.NewElement().Add(sG, cP)

		hp := HashToPoint(domainKeyImage, ring[i].Encode(nil))
		sHp := hp.ScalarMult(s, hp)
		cI := keyImage.ScalarMult(c, keyImage)
		Ri := ristretto255.NewElement().Add(sHp, cI)

		c = challenge(msg, ring, keyImage, Li, Ri)
	}

	if c.Equal(sig.C1) != 1 {
		return errors.New("ringsig: ring signature challenge did not close")
	}
	return nil
}
