package ephemeral

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// box is an authenticated symmetric cipher keyed by a 32-byte secret, used
// by SymmetricEcdhKey to seal wire payloads once two peers have agreed on a
// shared secret via ECDH.
type box struct {
	key [32]byte
}

func newBox(key [32]byte) *box {
	return &box{key: key}
}

// encrypt seals plaintext, prefixing the ciphertext with a fresh random
// nonce so repeated calls with the same plaintext never produce the same
// output.
func (b *box) encrypt(plaintext []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("symmetric key encryption failed: %v", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// decrypt reverses encrypt, rejecting any ciphertext whose authentication
// tag does not check out.
func (b *box) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 {
		return nil, fmt.Errorf("symmetric key decryption failed")
	}
	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])
	plaintext, ok := secretbox.Open(nil, ciphertext[24:], &nonce, &b.key)
	if !ok {
		return nil, fmt.Errorf("symmetric key decryption failed")
	}
	return plaintext, nil
}
