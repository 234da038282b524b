package botutil

import (
	"testing"

	"github.com/botho-project/botho/ringsig"
)

var testVersions = Versions{Classical: 0x18, QuantumExtended: 0x19}

func newTestSubaddress(t *testing.T) ringsig.Subaddress {
	t.Helper()
	spend, err := ringsig.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	view, err := ringsig.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	return ringsig.Subaddress{SpendPub: spend.Pub, ViewPub: view.Pub}
}

func TestClassicalAddressRoundTrip(t *testing.T) {
	sub := newTestSubaddress(t)
	addr := Address{Kind: Classical, Subaddress: sub}

	s := Encode(addr, testVersions)
	got, err := Decode(s, testVersions)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind != Classical {
		t.Fatalf("expected Classical kind, got %v", got.Kind)
	}
	if ringsig.EncodePoint(got.Subaddress.SpendPub) != ringsig.EncodePoint(sub.SpendPub) {
		t.Fatal("spend key mismatch after round trip")
	}
	if ringsig.EncodePoint(got.Subaddress.ViewPub) != ringsig.EncodePoint(sub.ViewPub) {
		t.Fatal("view key mismatch after round trip")
	}
}

func TestQuantumExtendedAddressRoundTrip(t *testing.T) {
	sub := newTestSubaddress(t)
	addr := Address{Kind: QuantumExtended, Subaddress: sub}
	addr.PQComponent[0] = 0xaa
	addr.PQComponent[31] = 0xbb

	s := Encode(addr, testVersions)
	got, err := Decode(s, testVersions)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind != QuantumExtended {
		t.Fatalf("expected QuantumExtended kind, got %v", got.Kind)
	}
	if got.PQComponent != addr.PQComponent {
		t.Fatal("PQ component mismatch after round trip")
	}
}

func TestDecodeRejectsWrongNetworkVersion(t *testing.T) {
	sub := newTestSubaddress(t)
	addr := Address{Kind: Classical, Subaddress: sub}
	s := Encode(addr, testVersions)

	otherNetwork := Versions{Classical: 0x58, QuantumExtended: 0x59}
	if _, err := Decode(s, otherNetwork); err == nil {
		t.Fatal("expected decode under a different network's versions to fail")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("not a valid address", testVersions); err == nil {
		t.Fatal("expected garbage input to fail decode")
	}
}

func TestValidate(t *testing.T) {
	sub := newTestSubaddress(t)
	addr := Address{Kind: Classical, Subaddress: sub}
	s := Encode(addr, testVersions)

	if !Validate(s, testVersions) {
		t.Fatal("expected a freshly encoded address to validate")
	}
	if Validate("garbage", testVersions) {
		t.Fatal("expected garbage to fail validation")
	}
}
