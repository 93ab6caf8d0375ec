package event

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Ed25519Signer is the default Signer implementation. Cryptographic
// primitives are explicitly an external collaborator per the
// specification's scope, so this is provided only so the engine can
// run standalone; the core itself depends only on the Signer
// interface.
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair produces a fresh ed25519 key pair.
func GenerateKeyPair() (pub ed25519.PublicKey, priv ed25519.PrivateKey, err error) {
	pub, priv, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("event: generate key pair: %w", err)
	}
	return pub, priv, nil
}

func (s Ed25519Signer) Sign(hash []byte) ([]byte, error) {
	if len(s.PrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("event: invalid private key size %d", len(s.PrivateKey))
	}
	return ed25519.Sign(s.PrivateKey, hash), nil
}

// Ed25519Verifier is the default Verifier implementation.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(publicKey, hash, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), hash, signature)
}
