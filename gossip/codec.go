package gossip

import (
	"encoding/binary"
	"io"

	"github.com/botho-project/botho/botmsg"
	"github.com/pkg/errors"
)

// These are gossip's own copies of botmsg's little-endian fixed-width
// wire primitives (botmsg.writeUint64 and friends are unexported, and
// gossip sits a layer above botmsg rather than inside it), kept in the
// same little-endian, length-prefixed style so sync messages read exactly
// like the botmsg types they carry.

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeHash(w io.Writer, h botmsg.Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader) (botmsg.Hash, error) {
	var h botmsg.Hash
	_, err := io.ReadFull(r, h[:])
	return h, err
}

// maxCollectionLen bounds decoded collection lengths so a malformed or
// hostile message cannot force an enormous allocation before the
// topic-level size check has even run.
const maxCollectionLen = 1 << 20

func writeCollectionLen(w io.Writer, n int) error {
	return writeUint32(w, uint32(n))
}

func readCollectionLen(r io.Reader) (int, error) {
	n, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	if n > maxCollectionLen {
		return 0, errors.Errorf("gossip: collection length %d exceeds sanity bound", n)
	}
	return int(n), nil
}
