package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genBlocks(n int) []uint32 {
	blocks := make([]uint32, n)
	for i := range blocks {
		blocks[i] = uint32(i * 7)
	}
	return blocks
}

func TestRoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"s2":   NewS2Codec(),
		"noop": NewNoOpCodec(),
	}
	sizes := []int{0, 1, 2, 1024}
	for name, c := range codecs {
		for _, n := range sizes {
			blocks := genBlocks(n)
			compressed, err := c.Compress(blocks)
			require.NoError(t, err, "%s compress n=%d", name, n)
			got, err := c.Decompress(compressed)
			require.NoError(t, err, "%s decompress n=%d", name, n)
			if n == 0 {
				assert.Empty(t, got, "%s n=0", name)
				continue
			}
			assert.Equal(t, blocks, got, "%s n=%d", name, n)
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	blocks := genBlocks(1024)
	got, err := Unpack(Pack(blocks))
	require.NoError(t, err)
	assert.Equal(t, blocks, got)
}

func TestUnpackRejectsShortBuffer(t *testing.T) {
	_, err := Unpack([]byte{1, 2, 3})
	assert.Error(t, err)
}
