package ringsig

import "testing"

func TestStealthOutputRecognitionAndRecovery(t *testing.T) {
	spend, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	view, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	addr := Subaddress{SpendPub: spend.Pub, ViewPub: view.Pub}

	out, _, err := DeriveOneTimeKey(addr)
	if err != nil {
		t.Fatal(err)
	}

	if !RecognizeOutput(view.Priv, spend.Pub, out.TxPub, out.TargetKey) {
		t.Fatal("owner must recognize its own stealth output")
	}

	other, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if RecognizeOutput(other.Priv, other.Pub, out.TxPub, out.TargetKey) {
		t.Fatal("unrelated wallet must not recognize the output")
	}

	x := RecoverOneTimePrivateKey(view.Priv, spend.Priv, out.TxPub)
	recoveredPub := BasePoint().ScalarMult(x, BasePoint())
	if recoveredPub.Equal(out.TargetKey) != 1 {
		t.Fatal("recovered one-time private key must match the published target key")
	}
}

func buildRing(t *testing.T, size, secretIndex int) ([]*PublicPoint, *PrivateScalar, *PublicPoint) {
	t.Helper()
	ring := make([]*PublicPoint, size)
	var priv *PrivateScalar
	for i := 0; i < size; i++ {
		kp, err := GenerateKeyPair()
		if err != nil {
			t.Fatal(err)
		}
		ring[i] = kp.Pub
		if i == secretIndex {
			priv = kp.Priv
		}
	}
	keyImage := KeyImage(priv, ring[secretIndex])
	return ring, priv, keyImage
}

func TestCLSAGSignVerifyRoundTrip(t *testing.T) {
	ring, priv, keyImage := buildRing(t, DefaultRingSize, 3)
	msg := []byte("transfer 100 to recipient")

	sig, err := Sign(msg, ring, 3, priv, keyImage)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(msg, ring, keyImage, sig); err != nil {
		t.Fatalf("valid signature failed to verify: %v", err)
	}
}

func TestCLSAGRejectsTamperedMessage(t *testing.T) {
	ring, priv, keyImage := buildRing(t, MinRingSize, 0)
	sig, err := Sign([]byte("original"), ring, 0, priv, keyImage)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify([]byte("tampered"), ring, keyImage, sig); err == nil {
		t.Fatal("signature over a different message must not verify")
	}
}

func TestCLSAGRejectsWrongKeyImage(t *testing.T) {
	ring, priv, keyImage := buildRing(t, MinRingSize, 0)
	msg := []byte("transfer")
	sig, err := Sign(msg, ring, 0, priv, keyImage)
	if err != nil {
		t.Fatal(err)
	}
	_, _, otherImage := buildRing(t, MinRingSize, 0)
	if err := Verify(msg, ring, otherImage, sig); err == nil {
		t.Fatal("signature must not verify against a mismatched key image")
	}
}

func TestCLSAGRejectsRingSizeOutOfBounds(t *testing.T) {
	ring, priv, keyImage := buildRing(t, 3, 0)
	if _, err := Sign([]byte("x"), ring, 0, priv, keyImage); err == nil {
		t.Fatal("ring below MinRingSize must be rejected")
	}
}

func TestSignatureEncodeDecodeRoundTrip(t *testing.T) {
	ring, priv, keyImage := buildRing(t, MinRingSize, 1)
	sig, err := Sign([]byte("encode me"), ring, 1, priv, keyImage)
	if err != nil {
		t.Fatal(err)
	}
	data := sig.Encode()
	round, err := DecodeSignature(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify([]byte("encode me"), ring, keyImage, round); err != nil {
		t.Fatalf("round-tripped signature failed to verify: %v", err)
	}
}
