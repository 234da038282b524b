// Package pow converts Botho's scalar difficulty figure into the 256-bit
// target a block header hash must not exceed, and checks headers against
// it (spec §4.8 check 2). Grounded on the teacher dagconfig's
// PowLimit/big.Int convention (bigOne, mainPowLimit): a single
// arbitrary-precision maximum target divided by the current difficulty,
// exactly the Bitcoin-lineage difficulty-to-target relationship the
// teacher's own dagconfig constants encode.
package pow

import (
	"math/big"

	"github.com/botho-project/botho/botmsg"
)

// maxTarget is the highest allowed proof-of-work target (difficulty 1),
// mirroring the teacher's mainPowLimit = 2^255-1 convention.
var maxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

// Target returns the 256-bit hash target for a given difficulty:
// target = maxTarget / difficulty. Difficulty 0 is treated as 1 (the
// easiest allowed target) so a freshly initialized controller can never
// produce a divide-by-zero.
func Target(difficulty uint32) botmsg.Hash {
	d := uint64(difficulty)
	if d == 0 {
		d = 1
	}
	t := new(big.Int).Div(maxTarget, new(big.Int).SetUint64(d))
	return bigIntToHash(t)
}

func bigIntToHash(t *big.Int) botmsg.Hash {
	var h botmsg.Hash
	b := t.Bytes() // big-endian, shortest form
	if len(b) > botmsg.HashSize {
		b = b[len(b)-botmsg.HashSize:]
	}
	copy(h[botmsg.HashSize-len(b):], b)
	return h
}

// CheckProof reports whether headerHash satisfies target, treating both
// as big-endian 256-bit integers (spec §4.8: "BLAKE3(header) <=
// difficulty_target").
func CheckProof(headerHash, target botmsg.Hash) bool {
	for i := range headerHash {
		if headerHash[i] != target[i] {
			return headerHash[i] < target[i]
		}
	}
	return true
}
