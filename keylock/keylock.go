// Package keylock maps a user key to a mutex serializing writes to that
// key's open TEMP segment. Grounded on the hashing approach in
// arloliu-mebo's own internal/hash package (xxhash.Sum64String), used here
// to shard keys across a fixed bank of mutexes instead of growing an
// unbounded map of per-key locks.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// defaultShards is a fixed power of two: large enough that two distinct
// hot keys rarely collide, small enough to keep the table's memory
// footprint constant regardless of how many distinct keys are ever seen.
const defaultShards = 256

// Table is a sharded mutex table keyed by the hash of a user key. Two
// writers touching keys that land in different shards proceed fully in
// parallel; two writers touching keys that hash into the same shard are
// serialized even if their keys differ, trading a small amount of
// unnecessary contention for O(1) memory instead of one mutex per key ever
// seen.
type Table struct {
	shards []sync.Mutex
}

// New creates a table with the default shard count.
func New() *Table {
	return NewWithShards(defaultShards)
}

// NewWithShards creates a table with an explicit shard count, mainly for
// tests that want to provoke or rule out collisions deterministically.
func NewWithShards(n int) *Table {
	if n <= 0 {
		n = 1
	}
	return &Table{shards: make([]sync.Mutex, n)}
}

func (t *Table) shardFor(key []byte) *sync.Mutex {
	h := xxhash.Sum64(key)
	return &t.shards[h%uint64(len(t.shards))]
}

// Lock acquires the mutex for key's shard and returns a guard whose
// Unlock releases it. Callers hold the guard for the duration of a key's
// processing within one ingest call.
func (t *Table) Lock(key []byte) *Guard {
	m := t.shardFor(key)
	m.Lock()
	return &Guard{m: m}
}

// Guard releases a previously acquired shard lock.
type Guard struct {
	m *sync.Mutex
}

// Unlock releases the guarded shard's mutex. Unlock must be called exactly
// once per Guard.
func (g *Guard) Unlock() {
	g.m.Unlock()
}
