// Package descriptor implements the engine's on-disk encodings: the
// composite KV key (user_key || first_block) and the 17-byte segment
// descriptor (kind, offset, length, last_block).
//
// The KV key suffix is big-endian so that lexicographic KV order equals
// numeric block order for a fixed user_key, rather than a host-endian
// suffix that would only happen to sort correctly on a little-endian host.
package descriptor

import (
	"encoding/binary"
	"fmt"
)

// Kind distinguishes a TEMP (page-file) segment from a FINAL (append-file,
// compressed) one.
type Kind uint8

const (
	KindTemp  Kind = 0x01
	KindFinal Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindTemp:
		return "TEMP"
	case KindFinal:
		return "FINAL"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(k))
	}
}

// Size is the fixed encoded length of a Descriptor: 1 + 8 + 4 + 4 bytes.
const Size = 17

// Descriptor is the 17-byte KV value describing one index segment.
type Descriptor struct {
	Kind      Kind
	Offset    uint64
	Length    uint32
	LastBlock uint32
}

// Encode serializes d as kind:u8 || offset:u64_le || length:u32_le ||
// last_block:u32_le.
func (d Descriptor) Encode() []byte {
	buf := make([]byte, Size)
	buf[0] = byte(d.Kind)
	binary.LittleEndian.PutUint64(buf[1:9], d.Offset)
	binary.LittleEndian.PutUint32(buf[9:13], d.Length)
	binary.LittleEndian.PutUint32(buf[13:17], d.LastBlock)
	return buf
}

// Decode parses a 17-byte descriptor. It returns an error (the caller should
// surface it as errs.Corruption) if b is the wrong length or the kind byte is
// unrecognized.
func Decode(b []byte) (Descriptor, error) {
	if len(b) != Size {
		return Descriptor{}, fmt.Errorf("descriptor: expected %d bytes, got %d", Size, len(b))
	}
	kind := Kind(b[0])
	if kind != KindTemp && kind != KindFinal {
		return Descriptor{}, fmt.Errorf("descriptor: unknown kind byte 0x%02x", b[0])
	}
	return Descriptor{
		Kind:      kind,
		Offset:    binary.LittleEndian.Uint64(b[1:9]),
		Length:    binary.LittleEndian.Uint32(b[9:13]),
		LastBlock: binary.LittleEndian.Uint32(b[13:17]),
	}, nil
}

// EncodeKey builds the composite KV key user_key || first_block_be_u32.
func EncodeKey(userKey []byte, firstBlock uint32) []byte {
	key := make([]byte, len(userKey)+4)
	copy(key, userKey)
	binary.BigEndian.PutUint32(key[len(userKey):], firstBlock)
	return key
}

// DecodeFirstBlock extracts the first_block suffix from a composite KV key
// given the namespace's key width.
func DecodeFirstBlock(compositeKey []byte, keyWidth int) uint32 {
	return binary.BigEndian.Uint32(compositeKey[keyWidth : keyWidth+4])
}
