// Package ephemeral provides point-to-point transport sealing: a per-pair
// ECDH key agreement over secp256k1 plus an authenticated symmetric cipher,
// so an Update Sender/Receiver implementation can keep committee traffic
// opaque to anyone observing the wire. The core aggregation package has no
// opinion on transport confidentiality; this package is the optional
// sealing layer a concrete transport composes with package handel's Codec.
package ephemeral

import "github.com/btcsuite/btcd/btcec"

// PrivateKey is an ephemeral secp256k1 private key used only for one
// session's ECDH key agreement - never the committee member's long-term
// signing key.
type PrivateKey btcec.PrivateKey

// PublicKey is the corresponding ephemeral public key.
type PublicKey btcec.PublicKey

// KeyPair is a freshly generated ephemeral key pair.
type KeyPair struct {
	PrivateKey *PrivateKey
	PublicKey  *PublicKey
}

// GenerateKeyPair samples a fresh ephemeral key pair on secp256k1.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		PrivateKey: (*PrivateKey)(key),
		PublicKey:  (*PublicKey)(key.PubKey()),
	}, nil
}
