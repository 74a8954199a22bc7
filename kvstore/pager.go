package kvstore

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/mertolbekirov/logidx/errs"
)

const (
	defaultPageCacheSize = 1000
	pageSize             = 4096

	pageTypeUnknown  = 0
	pageTypeInternal = 1
	pageTypeLeaf     = 2

	pageTypeOffset        = 0
	pageTypeSize          = 2
	pagePointerSize       = 4
	parentPointerOffset   = pageTypeOffset + pageTypeSize
	leftSiblingOffset     = parentPointerOffset + pagePointerSize
	rightSiblingOffset    = leftSiblingOffset + pagePointerSize
	recordCountOffset     = rightSiblingOffset + pagePointerSize
	recordCountSize       = 2
	rowOffsetsOffset      = recordCountOffset + recordCountSize
	rowOffsetSize         = 2
	emptyPageNumber  = 0
	headerPageOffset = 8 // reserved header holding the max-page counter
)

// pager manages random access to fixed-size pages of the KV file. Adapted
// from cdb's page-file pager: the LRU cache and page
// layout are kept, the journal-backed write flush and cross-process file
// lock are dropped since this store never needs multi-process WAL
// recovery, and the left/right pointer fields are repurposed to link
// sibling leaves instead of sitting unused.
type pager struct {
	mu             sync.RWMutex
	store          storage
	currentMaxPage uint32
	cache          *pageCache
	dirty          map[uint32]*page
}

func newPager(path string, cacheSize int) (*pager, error) {
	if cacheSize <= 0 {
		cacheSize = defaultPageCacheSize
	}
	var s storage
	var err error
	if path == "" {
		s = newMemoryStorage()
	} else {
		s, err = newFileStorage(path)
	}
	if err != nil {
		return nil, errs.IO("failed to open kv store file", err).WithDetail("path", path)
	}
	hdr := make([]byte, headerPageOffset)
	if _, err := s.ReadAt(hdr, 0); err != nil {
		return nil, errs.IO("failed to read kv store header", err)
	}
	maxPage := binary.LittleEndian.Uint32(hdr[:4])
	p := &pager{
		store:          s,
		currentMaxPage: maxPage,
		cache:          newPageCache(cacheSize),
		dirty:          map[uint32]*page{},
	}
	return p, nil
}

func (p *pager) pageOffset(pageNumber uint32) int64 {
	return int64(headerPageOffset) + int64(pageNumber-1)*pageSize
}

func (p *pager) getPage(pageNumber uint32) *page {
	p.mu.RLock()
	if v, hit := p.cache.Get(pageNumber); hit {
		p.mu.RUnlock()
		return &page{content: v, number: pageNumber}
	}
	p.mu.RUnlock()
	buf := make([]byte, pageSize)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.ReadAt(buf, p.pageOffset(pageNumber))
	np := &page{content: buf, number: pageNumber}
	if np.getType() == pageTypeUnknown {
		np.setType(pageTypeLeaf)
	}
	p.cache.Add(pageNumber, buf)
	return np
}

func (p *pager) newPage() *page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentMaxPage++
	np := &page{content: make([]byte, pageSize), number: p.currentMaxPage}
	np.setType(pageTypeLeaf)
	p.dirty[np.number] = np
	return np
}

// markDirty records a page as needing a flush. Callers mutate pages
// in-place; a page fetched via getPage must be re-marked dirty after any
// write since it may be a fresh copy out of the cache.
func (p *pager) markDirty(pg *page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty[pg.number] = pg
}

// flush writes every dirty page to the backing store and clears the dirty
// set. There is no journal: a crash mid-flush can leave the file with a
// partially applied batch, which is acceptable since this store does not
// promise multi-segment atomicity across process crashes.
func (p *pager) flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for num, pg := range p.dirty {
		if _, err := p.store.WriteAt(pg.content, p.pageOffset(num)); err != nil {
			return errs.IO("failed to flush page", err).WithDetail("page", num)
		}
		p.cache.Add(num, pg.content)
	}
	p.dirty = map[uint32]*page{}
	hdr := make([]byte, headerPageOffset)
	binary.LittleEndian.PutUint32(hdr[:4], p.currentMaxPage)
	if _, err := p.store.WriteAt(hdr, 0); err != nil {
		return errs.IO("failed to flush kv store header", err)
	}
	return nil
}

func (p *pager) close() error {
	if err := p.flush(); err != nil {
		return err
	}
	return p.store.Close()
}

// page is one fixed-size node of the B-tree: 2 bytes type, 4 bytes parent
// pointer, 4 bytes left-sibling pointer, 4 bytes right-sibling pointer, 2
// bytes record count, then a table of (key offset, value offset) pairs
// followed by the tuples themselves packed from the end of the page
// backwards. Leaf pages use the sibling pointers to chain leaves in key
// order for prefix scans; internal pages leave them unset.
type page struct {
	content []byte
	number  uint32
}

type tuple struct {
	Key   []byte
	Value []byte
}

func (p *page) getType() uint16 {
	return binary.LittleEndian.Uint16(p.content[pageTypeOffset : pageTypeOffset+pageTypeSize])
}

func (p *page) setType(t uint16) {
	binary.LittleEndian.PutUint16(p.content[pageTypeOffset:pageTypeOffset+pageTypeSize], t)
}

func (p *page) getParent() (bool, uint32) {
	pn := binary.LittleEndian.Uint32(p.content[parentPointerOffset : parentPointerOffset+pagePointerSize])
	if pn == emptyPageNumber {
		return false, emptyPageNumber
	}
	return true, pn
}

func (p *page) setParent(pageNumber uint32) {
	binary.LittleEndian.PutUint32(p.content[parentPointerOffset:parentPointerOffset+pagePointerSize], pageNumber)
}

func (p *page) getRightSibling() (bool, uint32) {
	pn := binary.LittleEndian.Uint32(p.content[rightSiblingOffset : rightSiblingOffset+pagePointerSize])
	if pn == emptyPageNumber {
		return false, emptyPageNumber
	}
	return true, pn
}

func (p *page) setRightSibling(pageNumber uint32) {
	binary.LittleEndian.PutUint32(p.content[rightSiblingOffset:rightSiblingOffset+pagePointerSize], pageNumber)
}

func (p *page) getLeftSibling() (bool, uint32) {
	pn := binary.LittleEndian.Uint32(p.content[leftSiblingOffset : leftSiblingOffset+pagePointerSize])
	if pn == emptyPageNumber {
		return false, emptyPageNumber
	}
	return true, pn
}

func (p *page) setLeftSibling(pageNumber uint32) {
	binary.LittleEndian.PutUint32(p.content[leftSiblingOffset:leftSiblingOffset+pagePointerSize], pageNumber)
}

func (p *page) numberAsBytes() []byte {
	b := make([]byte, pagePointerSize)
	binary.LittleEndian.PutUint32(b, p.number)
	return b
}

func (p *page) getRecordCount() uint16 {
	return binary.LittleEndian.Uint16(p.content[recordCountOffset : recordCountOffset+recordCountSize])
}

func (p *page) setRecordCount(n uint16) {
	binary.LittleEndian.PutUint16(p.content[recordCountOffset:recordCountOffset+recordCountSize], n)
}

func (p *page) canInsert(tuples ...tuple) bool {
	s := rowOffsetsOffset
	entries := append(append([]tuple{}, tuples...), p.getEntries()...)
	s += len(entries) * (rowOffsetSize + rowOffsetSize)
	for _, e := range entries {
		s += len(e.Key) + len(e.Value)
	}
	return pageSize >= s
}

func (p *page) setEntries(entries []tuple) {
	copy(p.content[rowOffsetsOffset:pageSize], make([]byte, pageSize-rowOffsetsOffset))
	sort.Slice(entries, func(a, b int) bool { return bytes.Compare(entries[a].Key, entries[b].Key) == -1 })
	shift := rowOffsetsOffset
	entryEnd := pageSize
	for _, entry := range entries {
		startKeyOffset := shift
		endKeyOffset := shift + rowOffsetSize
		endValueOffset := shift + rowOffsetSize + rowOffsetSize

		keyOffset := uint16(entryEnd - len(entry.Key) - len(entry.Value))
		binary.LittleEndian.PutUint16(p.content[startKeyOffset:endKeyOffset], keyOffset)

		valueOffset := uint16(entryEnd - len(entry.Value))
		binary.LittleEndian.PutUint16(p.content[endKeyOffset:endValueOffset], valueOffset)

		copy(p.content[keyOffset:valueOffset], entry.Key)
		copy(p.content[valueOffset:valueOffset+uint16(len(entry.Value))], entry.Value)

		shift = endValueOffset
		entryEnd = int(keyOffset)
	}
	p.setRecordCount(uint16(len(entries)))
}

func (p *page) getEntries() []tuple {
	entries := make([]tuple, 0, p.getRecordCount())
	recordCount := p.getRecordCount()
	entryEnd := pageSize
	for i := uint16(0); i < recordCount; i++ {
		startKeyOffset := rowOffsetsOffset + int(i)*(rowOffsetSize+rowOffsetSize)
		endKeyOffset := startKeyOffset + rowOffsetSize
		endValueOffset := endKeyOffset + rowOffsetSize

		keyOffset := binary.LittleEndian.Uint16(p.content[startKeyOffset:endKeyOffset])
		valueOffset := binary.LittleEndian.Uint16(p.content[endKeyOffset:endValueOffset])

		byteKey := make([]byte, valueOffset-keyOffset)
		copy(byteKey, p.content[keyOffset:valueOffset])
		byteValue := make([]byte, entryEnd-int(valueOffset))
		copy(byteValue, p.content[valueOffset:entryEnd])
		entries = append(entries, tuple{Key: byteKey, Value: byteValue})
		entryEnd = int(keyOffset)
	}
	return entries
}

// setValue upserts key/value among the page's existing entries (entries
// are unconditionally re-sorted by setEntries).
func (p *page) setValue(key, value []byte) {
	existing := p.getEntries()
	out := make([]tuple, 0, len(existing)+1)
	for _, e := range existing {
		if !bytes.Equal(e.Key, key) {
			out = append(out, e)
		}
	}
	out = append(out, tuple{Key: key, Value: value})
	p.setEntries(out)
}

// getValue returns the exact match on a leaf, or on an internal page the
// child pointer to descend into (the entry whose key is the largest one
// not exceeding the search key).
func (p *page) getValue(key []byte) ([]byte, bool) {
	entries := p.getEntries()
	if p.getType() == pageTypeLeaf {
		for _, e := range entries {
			if bytes.Equal(e.Key, key) {
				return e.Value, true
			}
		}
		return nil, false
	}
	var prev *tuple
	for i := range entries {
		c := bytes.Compare(entries[i].Key, key)
		if c == 0 {
			return entries[i].Value, true
		}
		if c > 0 {
			if prev == nil {
				return nil, false
			}
			return prev.Value, true
		}
		prev = &entries[i]
	}
	if prev != nil {
		return prev.Value, true
	}
	return nil, false
}
