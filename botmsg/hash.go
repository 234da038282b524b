// Package botmsg defines Botho's on-wire and on-disk message types — UTXOs,
// transactions, blocks — and their canonical binary codec. The codec
// follows the teacher project's readElement/writeElement convention
// (wire/common.go, wire/blockheader.go) adapted from a script-carrying,
// multi-parent DAG block model to Botho's script-free, single-parent,
// ring-signed model.
package botmsg

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// HashSize is the size in bytes of a Botho hash (BLAKE3-256).
const HashSize = 32

// Hash is a BLAKE3-256 digest.
type Hash [HashSize]byte

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zero bytes (used to mark the
// genesis block's previous hash).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// SumHash returns the BLAKE3-256 digest of data.
func SumHash(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// DomainSeparatedHash returns BLAKE3-256(domain || data), giving distinct
// hash families for distinct purposes (tx hashing, lottery seeds, stealth
// key derivation, etc.) from a single primitive.
func DomainSeparatedHash(domain string, parts ...[]byte) Hash {
	h := blake3.New(HashSize, nil)
	_, _ = h.Write([]byte(domain))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
