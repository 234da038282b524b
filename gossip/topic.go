// Package gossip defines Botho's P2P message envelopes: topic names, the
// per-topic size limit each message type must respect, and the sync
// request/response message shapes (spec.md §6 "Wire: gossip topics").
// Grounded on the teacher's wire package (MessageCommand enum,
// MaxMessagePayload, one small struct per message with its own
// Encode/Decode pair) but addressed by libp2p-style topic strings rather
// than a binary command byte, since the transport itself (libp2p) is an
// external collaborator spec.md §1 explicitly places out of scope.
package gossip

import "github.com/pkg/errors"

// Topic identifies a gossip pubsub topic.
type Topic string

// Topics spec.md §6 names.
const (
	TopicBlocks        Topic = "botho/blocks/1.0.0"
	TopicTransactions  Topic = "botho/transactions/1.0.0"
	TopicSCP           Topic = "botho/scp/1.0.0"
	TopicCompactBlocks Topic = "botho/compact-blocks/1.0.0"
	TopicUpgrades      Topic = "botho/upgrades/1.0.0"
	TopicPEX           Topic = "botho/pex/1.0.0"
)

// Per-topic size limits (spec.md §6). MaxBlockSize and MaxTransactionSize
// bound the wire-encoded form of a single botmsg.Block/Transaction;
// MaxSCPMessageSize bounds the SCP topic, whose message contents are an
// external collaborator concern per spec.md §1 and are therefore carried
// here only as an opaque, size-limited payload.
const (
	MaxBlockSize          = 4 * 1024 * 1024
	MaxTransactionSize    = 128 * 1024
	MaxSCPMessageSize     = 16 * 1024
	MaxPEXMessageSize     = 4096
	MaxUpgradeMessageSize = 4096
)

// SizeLimit returns the maximum encoded payload size permitted on topic.
func SizeLimit(t Topic) (int, bool) {
	switch t {
	case TopicBlocks, TopicCompactBlocks:
		return MaxBlockSize, true
	case TopicTransactions:
		return MaxTransactionSize, true
	case TopicSCP:
		return MaxSCPMessageSize, true
	case TopicPEX:
		return MaxPEXMessageSize, true
	case TopicUpgrades:
		return MaxUpgradeMessageSize, true
	default:
		return 0, false
	}
}

// ErrOversizedMessage is returned by CheckSize when a payload exceeds its
// topic's limit (spec.md §6: "Oversized messages are dropped without
// deserialization").
var ErrOversizedMessage = errors.New("gossip: message exceeds topic size limit")

// CheckSize enforces a topic's size limit against a raw payload length,
// before any attempt is made to deserialize it. Unknown topics are
// rejected outright.
func CheckSize(t Topic, payloadLen int) error {
	limit, ok := SizeLimit(t)
	if !ok {
		return errors.Errorf("gossip: unknown topic %q", t)
	}
	if payloadLen > limit {
		return ErrOversizedMessage
	}
	return nil
}
