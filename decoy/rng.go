package decoy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
)

// Stream is the minimal pseudorandom source the selector needs. Wallet
// callers normally pass a crypto/rand-seeded Stream; deterministic tests
// pass a fixed-seed one.
type Stream interface {
	Uint64() uint64
	Float64() float64
}

// mathRandStream adapts math/rand.Rand to Stream.
type mathRandStream struct {
	r *mathrand.Rand
}

// NewSeededStream returns a deterministic Stream for a given seed, useful
// for reproducible tests and for OSPEAD's seed-keyed drawing.
func NewSeededStream(seed int64) Stream {
	return mathRandStream{r: mathrand.New(mathrand.NewSource(seed))}
}

func (m mathRandStream) Uint64() uint64   { return m.r.Uint64() }
func (m mathRandStream) Float64() float64 { return m.r.Float64() }

// NewCryptoStream returns a Stream seeded from crypto/rand, the source a
// wallet building a real spend should use rather than a fixed seed.
func NewCryptoStream() (Stream, error) {
	var seedBytes [8]byte
	if _, err := rand.Read(seedBytes[:]); err != nil {
		return nil, err
	}
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return NewSeededStream(seed), nil
}
