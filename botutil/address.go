// Package botutil implements Botho's address encoding (spec §6 "Address
// format"): Base58Check with a network-tagged version byte, grounded on
// the teacher's own util/base58 package and its kaspad address-version
// convention, but reusing the already-wired btcsuite base58 implementation
// rather than reintroducing it from scratch.
package botutil

import (
	"github.com/botho-project/botho/bterrors"
	"github.com/botho-project/botho/ringsig"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// payload sizes, in bytes.
const (
	classicalPayloadSize = 64 // spend_pub (32) || view_pub (32)
	pqComponentSize      = 32 // opaque quantum-extended component
)

// Kind distinguishes the two address payload shapes spec §6 names.
type Kind int

const (
	// Classical is the ordinary (spend_pub, view_pub) stealth address.
	Classical Kind = iota
	// QuantumExtended carries an additional tagged public-key component
	// alongside the classical pair, for post-quantum key-exchange
	// schemes layered on top in a future wire version.
	QuantumExtended
)

// Address is a decoded Botho address: a subaddress plus, for
// QuantumExtended addresses, the extra opaque component.
type Address struct {
	Kind        Kind
	Subaddress  ringsig.Subaddress
	PQComponent [pqComponentSize]byte // zero for Classical
}

// Versions tags an address payload with a network and kind (mirrors
// chaincfg.AddressVersion, duplicated here to keep botutil free of a
// chaincfg import).
type Versions struct {
	Classical       byte
	QuantumExtended byte
}

// Encode renders addr as a Base58Check string under the given version
// bytes.
func Encode(addr Address, versions Versions) string {
	spend := ringsig.EncodePoint(addr.Subaddress.SpendPub)
	view := ringsig.EncodePoint(addr.Subaddress.ViewPub)

	switch addr.Kind {
	case QuantumExtended:
		payload := make([]byte, 0, classicalPayloadSize+pqComponentSize)
		payload = append(payload, spend[:]...)
		payload = append(payload, view[:]...)
		payload = append(payload, addr.PQComponent[:]...)
		return base58.CheckEncode(payload, versions.QuantumExtended)
	default:
		payload := make([]byte, 0, classicalPayloadSize)
		payload = append(payload, spend[:]...)
		payload = append(payload, view[:]...)
		return base58.CheckEncode(payload, versions.Classical)
	}
}

// Decode parses s as a Base58Check address and validates it against
// versions, returning bterrors.ErrInvalidAddress on any malformed input,
// unrecognized version byte, or invalid curve point (spec §7: invalid
// input is reported to the caller, never retried).
func Decode(s string, versions Versions) (Address, error) {
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: base58check decode failed: %v", err)
	}

	var kind Kind
	switch version {
	case versions.Classical:
		kind = Classical
		if len(payload) != classicalPayloadSize {
			return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: classical payload has %d bytes, want %d", len(payload), classicalPayloadSize)
		}
	case versions.QuantumExtended:
		kind = QuantumExtended
		if len(payload) != classicalPayloadSize+pqComponentSize {
			return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: quantum-extended payload has %d bytes, want %d", len(payload), classicalPayloadSize+pqComponentSize)
		}
	default:
		return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: unrecognized version byte 0x%02x", version)
	}

	spendPub, err := ringsig.ParsePoint(payload[0:32])
	if err != nil {
		return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: invalid spend key: %v", err)
	}
	viewPub, err := ringsig.ParsePoint(payload[32:64])
	if err != nil {
		return Address{}, bterrors.New(bterrors.ErrInvalidAddress, "address: invalid view key: %v", err)
	}

	addr := Address{
		Kind:       kind,
		Subaddress: ringsig.Subaddress{SpendPub: spendPub, ViewPub: viewPub},
	}
	if kind == QuantumExtended {
		copy(addr.PQComponent[:], payload[64:96])
	}
	return addr, nil
}

// Validate reports whether s decodes to a well-formed address under
// versions, without returning the parsed value (the shape the
// address_validate RPC method needs).
func Validate(s string, versions Versions) bool {
	_, err := Decode(s, versions)
	return err == nil
}
