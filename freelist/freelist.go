// Package freelist implements a persistent stack of reusable temp-file
// page offsets kept under a reserved key in the KV store's Default column.
// Grounded on cdb's encoder-style byte packing
// (kv/encoder.go) for the little-endian u32[] serialization, with a global
// mutex serializing acquire/release the way cdb's pager serializes page
// allocation.
package freelist

import (
	"encoding/binary"
	"sync"

	"github.com/mertolbekirov/logidx/errs"
	"github.com/mertolbekirov/logidx/namespace"
)

const freePagesKey = "freePages"

// kvStore is the subset of kvstore.Store the allocator needs. Depending on
// this narrow interface rather than the concrete type keeps the allocator
// testable against a fake in isolation.
type kvStore interface {
	Get(col namespace.Column, key []byte) ([]byte, bool)
	Put(col namespace.Column, key, value []byte) error
}

// Allocator is the FreePageAllocator. An in-memory copy of the stack is
// kept for fast acquire/release; it is loaded from the KV store on New and
// every mutation is republished immediately, so a process restart picks up
// exactly the durable state (the in-memory copy is never the only copy).
type Allocator struct {
	mu    sync.Mutex
	store kvStore
	pages []int64
}

// New loads the free list from the store's Default column, or starts empty
// if no list has ever been published.
func New(store kvStore) (*Allocator, error) {
	a := &Allocator{store: store}
	raw, ok := store.Get(namespace.ColumnDefault, []byte(freePagesKey))
	if !ok {
		return a, nil
	}
	pages, err := unpack(raw)
	if err != nil {
		return nil, err
	}
	a.pages = pages
	return a, nil
}

// Acquire pops the tail of the free list and returns it. The second return
// value is false if the list is empty, signaling the caller to grow the
// temp file instead.
func (a *Allocator) Acquire() (offset int64, ok bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pages) == 0 {
		return 0, false, nil
	}
	offset = a.pages[len(a.pages)-1]
	a.pages = a.pages[:len(a.pages)-1]
	if err := a.publish(); err != nil {
		return 0, false, err
	}
	return offset, true, nil
}

// Release pushes offset onto the tail of the free list.
func (a *Allocator) Release(offset int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages = append(a.pages, offset)
	return a.publish()
}

// Len returns the number of pages currently free, for tests and metrics.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

func (a *Allocator) publish() error {
	return a.store.Put(namespace.ColumnDefault, []byte(freePagesKey), pack(a.pages))
}

func pack(pages []int64) []byte {
	buf := make([]byte, len(pages)*4)
	for i, p := range pages {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(p))
	}
	return buf
}

func unpack(buf []byte) ([]int64, error) {
	if len(buf)%4 != 0 {
		return nil, errs.Corruption("free page list length is not a multiple of 4", nil).
			WithDetail("length", len(buf))
	}
	pages := make([]int64, len(buf)/4)
	for i := range pages {
		pages[i] = int64(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return pages, nil
}
