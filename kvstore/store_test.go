package kvstore

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mertolbekirov/logidx/namespace"
)

func mustOpenStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func compositeKey(userKey []byte, firstBlock uint32) []byte {
	k := make([]byte, len(userKey)+4)
	copy(k, userKey)
	binary.BigEndian.PutUint32(k[len(userKey):], firstBlock)
	return k
}

func TestPutGetRoundTrip(t *testing.T) {
	s := mustOpenStore(t)
	key := compositeKey(bytes.Repeat([]byte{0x11}, 20), 0)
	val := []byte("descriptor-bytes")
	if err := s.Put(namespace.ColumnAddresses, key, val); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get(namespace.ColumnAddresses, key)
	if !ok {
		t.Fatal("Get: not found")
	}
	if !bytes.Equal(got, val) {
		t.Errorf("Get = %q, want %q", got, val)
	}
}

func TestPutOverwritesSameKey(t *testing.T) {
	s := mustOpenStore(t)
	key := compositeKey(bytes.Repeat([]byte{0x22}, 20), 0)
	s.Put(namespace.ColumnAddresses, key, []byte("v1"))
	s.Put(namespace.ColumnAddresses, key, []byte("v2"))
	got, _ := s.Get(namespace.ColumnAddresses, key)
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Get = %q, want v2", got)
	}
}

func TestPrefixIteratorOrdersByFirstBlockAcrossSplits(t *testing.T) {
	s := mustOpenStore(t)
	userKey := bytes.Repeat([]byte{0x33}, 20)
	other := bytes.Repeat([]byte{0x44}, 20)

	// enough segments to force several page splits
	const n = 400
	for i := 0; i < n; i++ {
		k := compositeKey(userKey, uint32(i*1024))
		v := make([]byte, 17)
		v[0] = byte(i)
		if err := s.Put(namespace.ColumnAddresses, k, v); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	// interleave an unrelated key's segments to check prefix isolation
	for i := 0; i < 50; i++ {
		k := compositeKey(other, uint32(i*1024))
		s.Put(namespace.ColumnAddresses, k, []byte("other"))
	}

	it := s.PrefixIterator(namespace.ColumnAddresses, userKey)
	got := 0
	var lastFirstBlock int64 = -1
	for it.Valid() {
		fb := int64(binary.BigEndian.Uint32(it.Key()[20:24]))
		if fb <= lastFirstBlock {
			t.Fatalf("out of order: %d after %d", fb, lastFirstBlock)
		}
		lastFirstBlock = fb
		got++
		it.Next()
	}
	if got != n {
		t.Errorf("iterated %d segments, want %d", got, n)
	}
}

func TestPrefixIteratorEmptyForUnknownKey(t *testing.T) {
	s := mustOpenStore(t)
	userKey := bytes.Repeat([]byte{0x55}, 20)
	it := s.PrefixIterator(namespace.ColumnAddresses, userKey)
	if it.Valid() {
		t.Fatal("expected no entries for unknown key")
	}
}

func TestColumnsAreIndependent(t *testing.T) {
	s := mustOpenStore(t)
	addrKey := compositeKey(bytes.Repeat([]byte{0x66}, 20), 0)
	topicKey := compositeKey(bytes.Repeat([]byte{0x66}, 32), 0)
	s.Put(namespace.ColumnAddresses, addrKey, []byte("addr"))
	s.Put(namespace.ColumnTopics, topicKey, []byte("topic"))

	if _, ok := s.Get(namespace.ColumnTopics, addrKey); ok {
		t.Error("address key leaked into topics column")
	}
	got, ok := s.Get(namespace.ColumnAddresses, addrKey)
	if !ok || !bytes.Equal(got, []byte("addr")) {
		t.Error("address column lost its own entry")
	}
}

func TestDefaultColumnStoresFreePagesKey(t *testing.T) {
	s := mustOpenStore(t)
	packed := []byte{1, 0, 0, 0, 2, 0, 0, 0}
	if err := s.Put(namespace.ColumnDefault, []byte("freePages"), packed); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get(namespace.ColumnDefault, []byte("freePages"))
	if !ok || !bytes.Equal(got, packed) {
		t.Errorf("Get(freePages) = %v, %v; want %v, true", got, ok, packed)
	}
}
