package pex

import (
	"net/netip"
	"testing"
	"time"
)

func TestAddressBookSubnetDiversity(t *testing.T) {
	cfg := DefaultConfig()
	book := NewAddressBook(cfg)

	for i := 0; i < 3; i++ {
		addr := netip.MustParseAddr(addrInSubnet8888(i))
		if !book.ShouldConnect(addr) {
			t.Fatalf("peer %d in 8.8.8.0/24 unexpectedly refused before reaching cap", i)
		}
		if !book.RecordPeer(addr) {
			t.Fatalf("peer %d in 8.8.8.0/24 failed to record", i)
		}
	}

	fourth := netip.MustParseAddr(addrInSubnet8888(3))
	if book.ShouldConnect(fourth) {
		t.Fatal("4th peer in same /24 should be refused once MaxPerSubnet is reached")
	}

	other := netip.MustParseAddr("9.9.9.1")
	if !book.ShouldConnect(other) {
		t.Fatal("peer in a distinct /24 should be accepted")
	}
}

func addrInSubnet8888(i int) string {
	return "8.8.8." + []string{"1", "2", "3", "4"}[i]
}

func TestValidateEntryRejectsPrivateAndStale(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Unix(1_700_000_000, 0)

	private := Entry{
		Addr:     netip.MustParseAddr("10.0.0.5"),
		PeerID:   PeerID{1},
		LastSeen: now,
	}
	if err := ValidateEntry(private, now, cfg); err == nil {
		t.Fatal("expected private address to be rejected")
	}

	stale := Entry{
		Addr:     netip.MustParseAddr("8.8.8.8"),
		PeerID:   PeerID{1},
		LastSeen: now.Add(-25 * time.Hour),
	}
	if err := ValidateEntry(stale, now, cfg); err == nil {
		t.Fatal("expected stale entry to be rejected")
	}

	noPeerID := Entry{
		Addr:     netip.MustParseAddr("8.8.8.8"),
		LastSeen: now,
	}
	if err := ValidateEntry(noPeerID, now, cfg); err == nil {
		t.Fatal("expected entry with no peer id to be rejected")
	}

	ok := Entry{
		Addr:     netip.MustParseAddr("8.8.8.8"),
		PeerID:   PeerID{1},
		LastSeen: now,
	}
	if err := ValidateEntry(ok, now, cfg); err != nil {
		t.Fatalf("expected valid entry to pass: %v", err)
	}
}

func TestValidateMessageFutureTimestampRejected(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Unix(1_700_000_000, 0)
	msg := Message{Timestamp: now.Add(10 * time.Minute)}
	if err := ValidateMessage(100, msg, now, cfg); err == nil {
		t.Fatal("expected far-future timestamp to be rejected")
	}
}

func TestRateLimiterEnforcesPerHourQuota(t *testing.T) {
	cfg := DefaultConfig()
	rl := NewRateLimiter(cfg)
	peer := PeerID{9}
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < cfg.MaxPerHour; i++ {
		if err := rl.Allow(peer, now); err != nil {
			t.Fatalf("message %d unexpectedly rejected: %v", i, err)
		}
	}
	if err := rl.Allow(peer, now); err == nil {
		t.Fatal("expected 13th message within the hour to be rate limited")
	}
}

func TestVersionCompatibility(t *testing.T) {
	local := ProtocolVersion{Major: 1, Minor: 2, Patch: 0}

	newer := ProtocolVersion{Major: 1, Minor: 2, Patch: 5}
	if !Compatible(local, newer) {
		t.Fatal("same major, newer patch should be compatible")
	}

	olderPatch := ProtocolVersion{Major: 1, Minor: 1, Patch: 9}
	if Compatible(local, olderPatch) {
		t.Fatal("older minor should be incompatible")
	}

	differentMajor := ProtocolVersion{Major: 2, Minor: 0, Patch: 0}
	if Compatible(local, differentMajor) {
		t.Fatal("different major should be incompatible")
	}
}

func TestParseAgentString(t *testing.T) {
	v, block, err := ParseAgentString("botho/1.2.3/7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (ProtocolVersion{1, 2, 3}) {
		t.Fatalf("parsed version = %+v", v)
	}
	if block != "7" {
		t.Fatalf("parsed block version = %q", block)
	}
	if _, _, err := ParseAgentString("garbage"); err == nil {
		t.Fatal("expected malformed agent string to error")
	}
}
