package lottery

import (
	"encoding/binary"

	"github.com/botho-project/botho/botmsg"
)

const domainLotterySeed = "botho-lottery-seed-v1"
const domainLotteryStream = "botho-lottery-stream-v1"

// DeriveSeed computes the per-block lottery seed: a domain-separated
// BLAKE3 digest over the previous block hash, block height, and pool
// amount, so the seed is reproducible from public, already-agreed-upon
// block data (spec §4.6).
func DeriveSeed(prevBlockHash botmsg.Hash, height uint64, poolAmount uint64) botmsg.Hash {
	var heightBuf, poolBuf [8]byte
	binary.LittleEndian.PutUint64(heightBuf[:], height)
	binary.LittleEndian.PutUint64(poolBuf[:], poolAmount)
	return botmsg.DomainSeparatedHash(domainLotterySeed, prevBlockHash[:], heightBuf[:], poolBuf[:])
}

// stream is a seed-keyed pseudorandom byte source: each draw is
// BLAKE3(domain || seed || counter), giving a pure function of (seed,
// counter) so re-running the drawing against the same seed reproduces the
// same winners bit-for-bit.
type stream struct {
	seed    botmsg.Hash
	counter uint64
}

func newStream(seed botmsg.Hash) *stream {
	return &stream{seed: seed}
}

// next returns the next pseudorandom uint64 in the stream.
func (s *stream) next() uint64 {
	var counterBuf [8]byte
	binary.LittleEndian.PutUint64(counterBuf[:], s.counter)
	s.counter++
	h := botmsg.DomainSeparatedHash(domainLotteryStream, s.seed[:], counterBuf[:])
	return binary.LittleEndian.Uint64(h[:8])
}
