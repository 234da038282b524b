package gossip

import (
	"bytes"
	"testing"

	"github.com/botho-project/botho/botmsg"
)

func TestCheckSizeRejectsOversizedPayload(t *testing.T) {
	if err := CheckSize(TopicPEX, MaxPEXMessageSize+1); err != ErrOversizedMessage {
		t.Fatalf("expected ErrOversizedMessage, got %v", err)
	}
	if err := CheckSize(TopicPEX, MaxPEXMessageSize); err != nil {
		t.Fatalf("expected payload at the exact limit to pass, got %v", err)
	}
}

func TestCheckSizeRejectsUnknownTopic(t *testing.T) {
	if err := CheckSize(Topic("botho/unknown/1.0.0"), 1); err == nil {
		t.Fatal("expected an unknown topic to be rejected")
	}
}

func TestGetBlocksRoundTrip(t *testing.T) {
	msg := &GetBlocks{FromHeight: 100, Count: 50}
	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeGetBlocks(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if *decoded != *msg {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, msg)
	}
}

func TestGetBlockByHashRoundTrip(t *testing.T) {
	msg := &GetBlockByHash{Hash: botmsg.SumHash([]byte("block"))}
	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeGetBlockByHash(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Hash != msg.Hash {
		t.Fatalf("round trip mismatch: got %x, want %x", decoded.Hash, msg.Hash)
	}
}

func TestSnapshotChunkRoundTrip(t *testing.T) {
	msg := &SnapshotChunk{Offset: 4096, Length: 65536}
	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeSnapshotChunk(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if *decoded != *msg {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, msg)
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	msg := &Headers{Headers: []botmsg.BlockHeader{
		{Version: 1, Height: 0},
		{Version: 1, Height: 1, Timestamp: 12345},
	}}
	var buf bytes.Buffer
	if err := msg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeHeaders(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.Headers) != len(msg.Headers) {
		t.Fatalf("expected %d headers, got %d", len(msg.Headers), len(decoded.Headers))
	}
	for i := range msg.Headers {
		if decoded.Headers[i].Height != msg.Headers[i].Height {
			t.Fatalf("header %d height mismatch: got %d, want %d", i, decoded.Headers[i].Height, msg.Headers[i].Height)
		}
	}
}
