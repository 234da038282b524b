// Package pex implements Botho's peer-exchange envelope and eclipse
// defenses (spec §4.9): message size/shape limits, staleness/future
// timestamp rejection, address-class filtering, and a subnet-diversity
// address book, grounded on the teacher's addrmgr/connmgr package family
// (subnet-diversity and address-book concerns already split into their
// own packages there).
package pex

import (
	"net/netip"
	"time"

	"github.com/botho-project/botho/bterrors"
)

// Limits named verbatim in spec §4.9.
const (
	MaxPexPeers         = 8
	MaxPexMessageSize    = 4096
	MaxPexPerHour        = 12
	MaxPeersPerSubnet    = 3
	EntryStaleness       = 24 * time.Hour
	TimestampFutureSkew  = 5 * time.Minute
	IPv4SubnetPrefixBits = 24
	IPv6SubnetPrefixBits = 48
)

// Config bundles pex's tunables (Design Notes §9: named config struct per
// component).
type Config struct {
	MaxPeers         int
	MaxMessageSize   int
	MaxPerHour       int
	MaxPerSubnet     int
	EntryStaleness   time.Duration
	FutureSkew       time.Duration
}

// DefaultConfig returns spec §4.9's reference parameters.
func DefaultConfig() Config {
	return Config{
		MaxPeers:       MaxPexPeers,
		MaxMessageSize: MaxPexMessageSize,
		MaxPerHour:     MaxPexPerHour,
		MaxPerSubnet:   MaxPeersPerSubnet,
		EntryStaleness: EntryStaleness,
		FutureSkew:     TimestampFutureSkew,
	}
}

// PeerID identifies the peer that published a PexEntry; addresses without
// one are never shared (spec §4.9: "addresses must carry a peer
// identifier").
type PeerID [32]byte

// Entry is one advertised peer address (spec §4.9: PexEntry).
type Entry struct {
	Addr     netip.Addr
	Port     uint16
	PeerID   PeerID
	LastSeen time.Time
}

// Message is the gossiped PEX envelope (spec §4.9: PexMessage).
type Message struct {
	Entries   []Entry
	Timestamp time.Time
}

// isShareable reports whether addr is eligible to ever be gossiped:
// private, loopback, link-local, unspecified, and multicast ranges are
// never shared (spec §4.9: "Private/loopback/link-local addresses are
// never shared").
func isShareable(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified() || addr.IsMulticast() {
		return false
	}
	return true
}

// ValidateEntry checks one PEX entry against the shareability,
// staleness, and peer-identifier rules of spec §4.9.
func ValidateEntry(e Entry, now time.Time, cfg Config) error {
	var zero PeerID
	if e.PeerID == zero {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: entry missing peer identifier")
	}
	if !isShareable(e.Addr) {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: address %s is not shareable", e.Addr)
	}
	if now.Sub(e.LastSeen) > cfg.EntryStaleness {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: entry for %s is stale", e.Addr)
	}
	return nil
}

// ValidateMessage checks the envelope-level limits of spec §4.9: size
// (caller supplies the already-measured wire size, since oversized
// messages must be dropped *before* deserialization), entry count, and
// the message timestamp's future-skew bound.
func ValidateMessage(wireSize int, msg Message, now time.Time, cfg Config) error {
	if wireSize > cfg.MaxMessageSize {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: message size %d exceeds limit %d", wireSize, cfg.MaxMessageSize)
	}
	if len(msg.Entries) > cfg.MaxPeers {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: message carries %d entries, limit %d", len(msg.Entries), cfg.MaxPeers)
	}
	if msg.Timestamp.After(now.Add(cfg.FutureSkew)) {
		return bterrors.New(bterrors.ErrInvalidAddress, "pex: message timestamp is too far in the future")
	}
	return nil
}
