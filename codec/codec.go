// Package codec compresses a packed sequence of 32-bit block numbers to an
// opaque byte run, and inverts it. Implementations are deterministic and
// stateless; any general-purpose byte-stream compressor suffices as long
// as it round-trips losslessly.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Codec compresses and decompresses a packed little-endian u32 array.
// Failure to decompress a stored run is a fatal corruption condition at the
// call site (see errs.Corruption); Codec itself just reports the error.
type Codec interface {
	// Compress packs blocks as little-endian u32s and compresses the result.
	Compress(blocks []uint32) ([]byte, error)
	// Decompress inverts Compress, returning the original block sequence.
	Decompress(data []byte) ([]uint32, error)
}

// Pack serializes blocks as a little-endian u32[] byte slice.
func Pack(blocks []uint32) []byte {
	buf := make([]byte, len(blocks)*4)
	for i, b := range blocks {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], b)
	}
	return buf
}

// Unpack inverts Pack. It returns an error if data is not a multiple of 4
// bytes, which indicates a corrupted run.
func Unpack(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("codec: packed length %d is not a multiple of 4", len(data))
	}
	blocks := make([]uint32, len(data)/4)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return blocks, nil
}
