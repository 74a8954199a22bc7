package kvstore

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mertolbekirov/logidx/namespace"
)

// root page numbers are fixed by allocation order on first creation: the
// pager always hands out page 1, then 2, then 3 to a freshly created file,
// so reopening an existing store can assume the same three roots without
// persisting a dynamic catalog, since a fixed three-column store never
// grows new tables at runtime.
const (
	rootAddresses = uint32(1)
	rootTopics    = uint32(2)
	rootDefault   = uint32(3)
)

// Store is the sorted KV store the rest of the engine treats as an
// abstract collaborator, backing the segment index plus the Default column
// holding the free-page list. It exposes three fixed columns rather than a
// dynamic per-table catalog, since this engine only ever needs Addresses,
// Topics, and Default.
type Store struct {
	mu   sync.RWMutex
	p    *pager
	log  *zap.SugaredLogger
	cols map[namespace.Column]*tree
}

// Open opens (or creates) the KV store file at path. path == "" opens an
// in-memory store. cacheSize <= 0 uses the package default.
func Open(path string, log *zap.SugaredLogger, cacheSize int) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p, err := newPager(path, cacheSize)
	if err != nil {
		return nil, err
	}
	fresh := p.currentMaxPage == 0
	if fresh {
		p.newPage() // rootAddresses
		p.newPage() // rootTopics
		p.newPage() // rootDefault
		if err := p.flush(); err != nil {
			return nil, err
		}
	}
	log.Infow("kv store opened", "path", path, "fresh", fresh, "pages", p.currentMaxPage)
	return &Store{
		p:   p,
		log: log,
		cols: map[namespace.Column]*tree{
			namespace.ColumnAddresses: {p: p, root: rootAddresses},
			namespace.ColumnTopics:    {p: p, root: rootTopics},
			namespace.ColumnDefault:   {p: p, root: rootDefault},
		},
	}, nil
}

// Put inserts or updates value under key in the given column. Put takes
// the store's write lock for the whole operation: splits touch multiple
// pages at once, and since two different domain keys can hash to the same
// underlying B-tree leaf, per-key caller-side locking alone cannot protect
// the tree's internal structure.
func (s *Store) Put(col namespace.Column, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cols[col].Set(key, value); err != nil {
		return err
	}
	return s.p.flush()
}

// Get returns the value for key in the given column.
func (s *Store) Get(col namespace.Column, key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols[col].Get(key)
}

// PrefixIterator returns a snapshot of every entry in col whose key begins
// with prefix, taken under the store's read lock so a concurrent Put
// cannot be observed half-applied. A prefix run here is always small
// (bounded by the number of segments a single key has accumulated), so
// capturing it up front is cheap and lets readers proceed without holding
// any lock across the scan.
func (s *Store) PrefixIterator(col namespace.Column, prefix []byte) *PrefixIterator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := newCursor(s.cols[col])
	var entries []tuple
	if c.Seek(prefix) {
		for hasPrefix(c.Key(), prefix) {
			entries = append(entries, tuple{Key: c.Key(), Value: c.Value()})
			if !c.Next() {
				break
			}
		}
	}
	return &PrefixIterator{entries: entries}
}

// PrefixIterator walks ascending entries sharing a key prefix, captured as
// of the moment the iterator was created.
type PrefixIterator struct {
	entries []tuple
	idx     int
}

// Valid reports whether the iterator is positioned on an entry.
func (it *PrefixIterator) Valid() bool {
	return it.idx < len(it.entries)
}

// Key returns the current entry's full composite key.
func (it *PrefixIterator) Key() []byte {
	return it.entries[it.idx].Key
}

// Value returns the current entry's value.
func (it *PrefixIterator) Value() []byte {
	return it.entries[it.idx].Value
}

// Next advances to the next entry. Callers must check Valid again
// afterward.
func (it *PrefixIterator) Next() {
	it.idx++
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Close flushes and releases the backing file.
func (s *Store) Close() error {
	return s.p.close()
}
