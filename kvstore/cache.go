package kvstore

import "slices"

// pageCache is a plain least-recently-used cache of raw page bytes keyed by
// page number. Adapted from the pager/cache package this store descends
// from; the version-invalidation handshake is dropped along with the
// journal it existed to support.
type pageCache struct {
	cache     map[uint32][]byte
	evictList []uint32
	maxSize   int
}

func newPageCache(maxSize int) *pageCache {
	return &pageCache{
		cache:     map[uint32][]byte{},
		evictList: []uint32{},
		maxSize:   maxSize,
	}
}

func (c *pageCache) Get(key uint32) (value []byte, hit bool) {
	v, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	c.prioritize(key)
	return v, true
}

func (c *pageCache) Add(key uint32, value []byte) {
	if _, ok := c.cache[key]; ok {
		c.prioritize(key)
		c.cache[key] = value
		return
	}
	if c.maxSize == len(c.cache) {
		c.evict()
	}
	c.cache[key] = value
	c.evictList = append(c.evictList, key)
}

func (c *pageCache) Remove(key uint32) {
	if _, ok := c.cache[key]; ok {
		delete(c.cache, key)
		i := slices.Index(c.evictList, key)
		c.evictList = slices.Delete(c.evictList, i, i+1)
	}
}

func (c *pageCache) prioritize(key uint32) {
	i := slices.Index(c.evictList, key)
	c.evictList = append(slices.Delete(c.evictList, i, i+1), key)
}

func (c *pageCache) evict() {
	evictKey := c.evictList[0]
	c.evictList = c.evictList[1:]
	delete(c.cache, evictKey)
}
