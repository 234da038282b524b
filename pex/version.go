package pex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/botho-project/botho/bterrors"
)

// ProtocolVersion is the tri-component version embedded in a peer's agent
// string (spec §4.9: "botho/<proto>/<block>").
type ProtocolVersion struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// String renders the version as major.minor.patch.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseAgentString parses an agent string of the form
// "botho/<major.minor.patch>/<blockversion>" into its protocol version
// and trailing block-format version component.
func ParseAgentString(agent string) (ProtocolVersion, string, error) {
	parts := strings.Split(agent, "/")
	if len(parts) != 3 || parts[0] != "botho" {
		return ProtocolVersion{}, "", bterrors.New(bterrors.ErrInvalidAddress, "pex: malformed agent string %q", agent)
	}
	v, err := ParseVersion(parts[1])
	if err != nil {
		return ProtocolVersion{}, "", err
	}
	return v, parts[2], nil
}

// ParseVersion parses a bare "major.minor.patch" string.
func ParseVersion(s string) (ProtocolVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ProtocolVersion{}, bterrors.New(bterrors.ErrInvalidAddress, "pex: malformed protocol version %q", s)
	}
	nums := make([]uint16, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return ProtocolVersion{}, bterrors.New(bterrors.ErrInvalidAddress, "pex: malformed protocol version %q", s)
		}
		nums[i] = uint16(n)
	}
	return ProtocolVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Compatible reports whether a peer announcing `peer` is compatible with
// a local node running `local` (spec §4.9): same major AND
// (peer.minor, peer.patch) >= (local.minor, local.patch) -- i.e. the peer
// must be at least as new as us within the same major line. This is
// symmetric to the spec's framing "(minor, patch) >= peer's" when read
// from the peer's perspective checking against us; Compatible always
// takes the local node's own version as the floor.
func Compatible(local, peer ProtocolVersion) bool {
	if local.Major != peer.Major {
		return false
	}
	if peer.Minor != local.Minor {
		return peer.Minor > local.Minor
	}
	return peer.Patch >= local.Patch
}

// BelowMinimum reports whether peer is older than the minimum supported
// version. Per spec §4.9 this is a warning condition, not grounds for
// disconnection -- callers should log and continue.
func BelowMinimum(minimum, peer ProtocolVersion) bool {
	if peer.Major != minimum.Major {
		return peer.Major < minimum.Major
	}
	if peer.Minor != minimum.Minor {
		return peer.Minor < minimum.Minor
	}
	return peer.Patch < minimum.Patch
}
