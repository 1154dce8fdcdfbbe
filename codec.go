package handel

import (
	"encoding/binary"
	"fmt"

	"go.albatross.dev/handel/bitset"
)

// Codec encodes and decodes the wire payload of one update message: a
// length-prefixed contributor bit set, the opaque aggregated signature
// bytes, the level id (u8) and the sender index (u16). Endianness and
// bit-set ordering are
// little-endian, LSB-first within each byte, matching package bitset's own
// encoding, so the bit-set segment here is a direct copy of BitSet.Bytes().
//
// Codec depends only on a factory for constructing a Contribution from
// decoded bytes, since the core has no concrete signature scheme of its
// own (see package schnorrsig for one).
type Codec struct {
	// New builds a Contribution from its decoded contributor bit set and
	// opaque signature payload.
	New func(contributors *bitset.BitSet, signature []byte) Contribution
}

// Encode serializes level, sender and contrib into the wire format.
func (c Codec) Encode(level int, sender Identity, contrib Contribution) ([]byte, error) {
	if level < 0 || level > 0xff {
		return nil, fmt.Errorf("%w: level %d does not fit in a u8", ErrConfiguration, level)
	}

	bs := contrib.Contributors()
	bsBytes := bs.Bytes()
	sigBytes := contrib.Bytes()

	buf := make([]byte, 0, 4+len(bsBytes)+4+len(sigBytes)+1+2)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(bs.Len()))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, bsBytes...)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(sigBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, sigBytes...)

	buf = append(buf, byte(level))

	var idxBuf [2]byte
	binary.LittleEndian.PutUint16(idxBuf[:], uint16(sender))
	buf = append(buf, idxBuf[:]...)

	return buf, nil
}

// Decode reverses Encode. It returns ErrMalformedContribution for any
// truncated or inconsistent payload.
func (c Codec) Decode(payload []byte) (level int, sender Identity, contrib Contribution, err error) {
	buf := payload

	bitLen, buf, err := readU32Prefixed(buf)
	if err != nil {
		return 0, 0, nil, err
	}
	nBits := int(bitLen)
	byteLen := (nBits + 7) / 8
	if len(buf) < byteLen {
		return 0, 0, nil, fmt.Errorf("%w: truncated contributor bit set", ErrMalformedContribution)
	}
	bsBytes := buf[:byteLen]
	buf = buf[byteLen:]

	bs, err := bitset.FromBytes(nBits, bsBytes)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %s", ErrMalformedContribution, err)
	}

	sigLen, buf, err := readU32Prefixed(buf)
	if err != nil {
		return 0, 0, nil, err
	}
	if uint64(len(buf)) < uint64(sigLen) {
		return 0, 0, nil, fmt.Errorf("%w: truncated signature payload", ErrMalformedContribution)
	}
	sig := make([]byte, sigLen)
	copy(sig, buf[:sigLen])
	buf = buf[sigLen:]

	if len(buf) < 3 {
		return 0, 0, nil, fmt.Errorf("%w: truncated level/sender trailer", ErrMalformedContribution)
	}
	lvl := int(buf[0])
	idx := Identity(binary.LittleEndian.Uint16(buf[1:3]))

	return lvl, idx, c.New(bs, sig), nil
}

func readU32Prefixed(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, fmt.Errorf("%w: truncated length prefix", ErrMalformedContribution)
	}
	return binary.LittleEndian.Uint32(buf[:4]), buf[4:], nil
}
