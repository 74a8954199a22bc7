package descriptor

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Descriptor{
		{Kind: KindTemp, Offset: 0, Length: 4, LastBlock: 10},
		{Kind: KindFinal, Offset: 4096 * 7, Length: 312, LastBlock: 1023},
		{Kind: KindFinal, Offset: ^uint64(0) >> 1, Length: ^uint32(0), LastBlock: ^uint32(0)},
	}
	for _, want := range cases {
		b := want.Encode()
		if len(b) != Size {
			t.Fatalf("encoded length = %d, want %d", len(b), Size)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	b := Descriptor{Kind: KindTemp}.Encode()
	b[0] = 0xFF
	if _, err := Decode(b); err == nil {
		t.Fatal("expected error for unknown kind byte")
	}
}

func TestDecodeWrongLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}

func TestEncodeKeyOrderingMatchesBlockOrder(t *testing.T) {
	userKey := bytes.Repeat([]byte{0x11}, 20)
	small := EncodeKey(userKey, 10)
	big := EncodeKey(userKey, 300)
	if bytes.Compare(small, big) >= 0 {
		t.Fatalf("expected lexicographic order to match numeric order: %x >= %x", small, big)
	}
	if DecodeFirstBlock(small, 20) != 10 {
		t.Errorf("DecodeFirstBlock = %d, want 10", DecodeFirstBlock(small, 20))
	}
	if DecodeFirstBlock(big, 20) != 300 {
		t.Errorf("DecodeFirstBlock = %d, want 300", DecodeFirstBlock(big, 20))
	}
}

func TestEncodeKeyCrossesByteBoundary(t *testing.T) {
	userKey := bytes.Repeat([]byte{0xAA}, 20)
	lo := EncodeKey(userKey, 255)
	hi := EncodeKey(userKey, 256)
	if bytes.Compare(lo, hi) >= 0 {
		t.Fatalf("big-endian suffix must order 255 before 256: %x >= %x", lo, hi)
	}
}
