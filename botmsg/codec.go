package botmsg

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// writeUint64, writeUint32, writeHash etc. follow the teacher's
// writeElement/readElement convention (wire/common.go) but are split into
// small typed helpers instead of one reflective switch, since botmsg only
// ever needs a handful of concrete types.

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

func writeHash(w io.Writer, h Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader) (Hash, error) {
	var h Hash
	_, err := io.ReadFull(r, h[:])
	return h, err
}

func writeFixedBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

func readFixedBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// maxCollectionLen bounds every length-prefixed collection this codec
// decodes, guarding against hostile or corrupt length fields causing
// unbounded allocation.
const maxCollectionLen = 1 << 20

func writeCollectionLen(w io.Writer, n int) error {
	if n < 0 || n > maxCollectionLen {
		return errors.Errorf("botmsg: collection length %d out of range", n)
	}
	return writeUint32(w, uint32(n))
}

func readCollectionLen(r io.Reader) (int, error) {
	n, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	if n > maxCollectionLen {
		return 0, errors.Errorf("botmsg: encoded collection length %d exceeds limit", n)
	}
	return int(n), nil
}
