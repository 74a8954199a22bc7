package codec

import "github.com/klauspost/compress/s2"

// S2Codec compresses packed block-number runs with S2, Snappy's faster
// cousin. Promoted TEMP pages are small (at most 4KB of packed u32s) and
// promotion happens once per 1024 blocks per key, so S2's near-zero per-call
// overhead matters more here than Zstd's better ratio would.
type S2Codec struct{}

var _ Codec = S2Codec{}

// NewS2Codec returns the engine's default Codec.
func NewS2Codec() S2Codec {
	return S2Codec{}
}

func (S2Codec) Compress(blocks []uint32) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, Pack(blocks)), nil
}

func (S2Codec) Decompress(data []byte) ([]uint32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	packed, err := s2.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	return Unpack(packed)
}
