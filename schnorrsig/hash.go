package schnorrsig

import "crypto/sha256"

var (
	challengeTag = []byte("BIP0340/challenge")
	auxTag       = []byte("BIP0340/aux")
	nonceTag     = []byte("BIP0340/nonce")
)

// taggedHash implements BIP-340's hash_tag: SHA256(SHA256(tag) ||
// SHA256(tag) || msg).
func taggedHash(tag []byte, chunks ...[]byte) [32]byte {
	tagHash := sha256.Sum256(tag)
	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
