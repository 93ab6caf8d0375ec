package event

import "testing"

func newTestSigner(t *testing.T) (Ed25519Signer, []byte) {
	t.Helper()
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	return Ed25519Signer{PrivateKey: priv}, pub
}

func TestRoundTripHash(t *testing.T) {
	signer, _ := newTestSigner(t)
	e, err := New("alice", 0, GenesisParent, GenesisParent, 1, nil, nil, signer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ne := e.ToNetEvent()
	got := FromNetEvent(ne)
	h, err := got.ComputeHash()
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if h != e.Hash {
		t.Fatalf("hash mismatch after round-trip: got %s want %s", h, e.Hash)
	}
}

func TestCheckGenesisValid(t *testing.T) {
	signer, pub := newTestSigner(t)
	e, err := New("alice", 0, GenesisParent, GenesisParent, 1, nil, nil, signer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lookup := func(string) (uint64, bool) { return 0, false }
	if err := Check(e, pub, Ed25519Verifier{}, lookup); err != nil {
		t.Fatalf("Check genesis: %v", err)
	}
}

func TestCheckInvalidSignature(t *testing.T) {
	signer, _ := newTestSigner(t)
	_, otherPub := newTestSigner(t)
	e, err := New("alice", 0, GenesisParent, GenesisParent, 1, nil, nil, signer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lookup := func(string) (uint64, bool) { return 0, false }
	if err := Check(e, otherPub, Ed25519Verifier{}, lookup); err == nil {
		t.Fatal("expected Check to fail under wrong public key")
	}
}

func TestCheckMissingParent(t *testing.T) {
	signer, pub := newTestSigner(t)
	e, err := New("alice", 1, "deadbeef", GenesisParent, 2, nil, nil, signer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lookup := func(string) (uint64, bool) { return 0, false }
	if err := Check(e, pub, Ed25519Verifier{}, lookup); err == nil {
		t.Fatal("expected Check to fail on missing parent")
	}
}

func TestCheckLamportViolation(t *testing.T) {
	signer, pub := newTestSigner(t)
	e, err := New("alice", 1, "self", GenesisParent, 1, nil, nil, signer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lookup := func(h string) (uint64, bool) {
		if h == "self" {
			return 5, true
		}
		return 0, false
	}
	if err := Check(e, pub, Ed25519Verifier{}, lookup); err == nil {
		t.Fatal("expected Check to fail on lamport violation")
	}
}
