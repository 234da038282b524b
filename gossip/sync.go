package gossip

import (
	"io"

	"github.com/botho-project/botho/botmsg"
)

// GetBlocks requests a contiguous run of blocks by height, the shape
// spec.md §6 names for IBD-style range sync.
type GetBlocks struct {
	FromHeight uint64
	Count      uint32
}

// Encode writes msg in botmsg's little-endian fixed-width style.
func (msg *GetBlocks) Encode(w io.Writer) error {
	if err := writeUint64(w, msg.FromHeight); err != nil {
		return err
	}
	return writeUint32(w, msg.Count)
}

// DecodeGetBlocks reads a GetBlocks message from r.
func DecodeGetBlocks(r io.Reader) (*GetBlocks, error) {
	fromHeight, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return &GetBlocks{FromHeight: fromHeight, Count: count}, nil
}

// Blocks is the response to GetBlocks (and the payload of the blocks
// topic's announcements). A server must split large ranges across
// multiple Blocks messages so no single message exceeds MaxBlockSize.
type Blocks struct {
	Blocks []*botmsg.Block
}

// Encode writes msg.
func (msg *Blocks) Encode(w io.Writer) error {
	if err := writeCollectionLen(w, len(msg.Blocks)); err != nil {
		return err
	}
	for _, b := range msg.Blocks {
		if err := b.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBlocks reads a Blocks message from r.
func DecodeBlocks(r io.Reader) (*Blocks, error) {
	n, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	blocks := make([]*botmsg.Block, n)
	for i := range blocks {
		b, err := botmsg.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}
	return &Blocks{Blocks: blocks}, nil
}

// GetBlockByHash requests a single block by hash; the response is a
// Blocks message with zero or one entries.
type GetBlockByHash struct {
	Hash botmsg.Hash
}

// Encode writes msg.
func (msg *GetBlockByHash) Encode(w io.Writer) error {
	return writeHash(w, msg.Hash)
}

// DecodeGetBlockByHash reads a GetBlockByHash message from r.
func DecodeGetBlockByHash(r io.Reader) (*GetBlockByHash, error) {
	h, err := readHash(r)
	if err != nil {
		return nil, err
	}
	return &GetBlockByHash{Hash: h}, nil
}

// GetHeaders requests headers for a height range, used by light sync
// paths that do not need full block bodies.
type GetHeaders struct {
	FromHeight uint64
	Count      uint32
}

// Encode writes msg.
func (msg *GetHeaders) Encode(w io.Writer) error {
	if err := writeUint64(w, msg.FromHeight); err != nil {
		return err
	}
	return writeUint32(w, msg.Count)
}

// DecodeGetHeaders reads a GetHeaders message from r.
func DecodeGetHeaders(r io.Reader) (*GetHeaders, error) {
	fromHeight, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return &GetHeaders{FromHeight: fromHeight, Count: count}, nil
}

// Headers is the response to GetHeaders.
type Headers struct {
	Headers []botmsg.BlockHeader
}

// Encode writes msg.
func (msg *Headers) Encode(w io.Writer) error {
	if err := writeCollectionLen(w, len(msg.Headers)); err != nil {
		return err
	}
	for i := range msg.Headers {
		if err := msg.Headers[i].EncodeHeader(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeHeaders reads a Headers message from r.
func DecodeHeaders(r io.Reader) (*Headers, error) {
	n, err := readCollectionLen(r)
	if err != nil {
		return nil, err
	}
	headers := make([]botmsg.BlockHeader, n)
	for i := range headers {
		h, err := botmsg.DecodeHeader(r)
		if err != nil {
			return nil, err
		}
		headers[i] = *h
	}
	return &Headers{Headers: headers}, nil
}

// SnapshotChunk requests one slice of a ledger snapshot bundle by byte
// offset, for bootstrapping nodes that skip full block-by-block replay.
type SnapshotChunk struct {
	Offset uint64
	Length uint32
}

// Encode writes msg.
func (msg *SnapshotChunk) Encode(w io.Writer) error {
	if err := writeUint64(w, msg.Offset); err != nil {
		return err
	}
	return writeUint32(w, msg.Length)
}

// DecodeSnapshotChunk reads a SnapshotChunk message from r.
func DecodeSnapshotChunk(r io.Reader) (*SnapshotChunk, error) {
	offset, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	length, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return &SnapshotChunk{Offset: offset, Length: length}, nil
}
