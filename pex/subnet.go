package pex

import (
	"net/netip"
	"sync"
)

// subnetKey reduces addr to its /24 (IPv4) or /48 (IPv6) prefix, the
// granularity spec §4.9 uses for eclipse-resistance diversity limits.
func subnetKey(addr netip.Addr) netip.Prefix {
	bits := IPv4SubnetPrefixBits
	if addr.Is6() && !addr.Is4In6() {
		bits = IPv6SubnetPrefixBits
	}
	p, err := addr.Prefix(bits)
	if err != nil {
		return netip.Prefix{}
	}
	return p
}

// AddressBook tracks how many peers have been recorded per subnet,
// enforcing MaxPerSubnet (spec §4.9 eclipse defense, §8 scenario 6).
type AddressBook struct {
	mu      sync.Mutex
	cfg     Config
	bySubnet map[netip.Prefix]int
}

// NewAddressBook constructs an empty address book.
func NewAddressBook(cfg Config) *AddressBook {
	return &AddressBook{cfg: cfg, bySubnet: make(map[netip.Prefix]int)}
}

// ShouldConnect reports whether a new candidate in addr's subnet may
// still be connected to, i.e. whether the subnet has not yet reached
// MaxPerSubnet recorded peers.
func (b *AddressBook) ShouldConnect(addr netip.Addr) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subnetKey(addr)
	return b.bySubnet[key] < b.cfg.MaxPerSubnet
}

// RecordPeer registers addr as connected, incrementing its subnet's
// count. Returns false (without recording) if the subnet is already at
// capacity.
func (b *AddressBook) RecordPeer(addr netip.Addr) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subnetKey(addr)
	if b.bySubnet[key] >= b.cfg.MaxPerSubnet {
		return false
	}
	b.bySubnet[key]++
	return true
}

// Forget removes one recorded peer from addr's subnet bucket (e.g. on
// disconnect), so the slot can be reused.
func (b *AddressBook) Forget(addr netip.Addr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subnetKey(addr)
	if b.bySubnet[key] > 0 {
		b.bySubnet[key]--
	}
}
