package kvstore

import "bytes"

// cursor walks the leaf level of a tree in ascending key order, following
// the sibling chain maintained by splitPage. Seek and the sibling-following
// Next below have no cdb precedent: cdb's own cursor has no seek-to-key
// method and cannot cross a page boundary, and both are needed for the
// prefix range scans segment lookups require.
type cursor struct {
	t       *tree
	pg      *page
	entries []tuple
	idx     int
}

func newCursor(t *tree) *cursor {
	return &cursor{t: t}
}

// Seek moves the cursor to the first entry with key >= target. It returns
// false if no such entry exists anywhere in the tree.
func (c *cursor) Seek(target []byte) bool {
	pg := c.t.getLeafPage(target)
	entries := pg.getEntries()
	i := 0
	for i < len(entries) && bytes.Compare(entries[i].Key, target) < 0 {
		i++
	}
	for i == len(entries) {
		hasRight, rightNum := pg.getRightSibling()
		if !hasRight {
			c.pg, c.entries, c.idx = nil, nil, 0
			return false
		}
		pg = c.t.p.getPage(rightNum)
		entries = pg.getEntries()
		i = 0
	}
	c.pg, c.entries, c.idx = pg, entries, i
	return true
}

// Key returns the current entry's key.
func (c *cursor) Key() []byte {
	return c.entries[c.idx].Key
}

// Value returns the current entry's value.
func (c *cursor) Value() []byte {
	return c.entries[c.idx].Value
}

// Next advances the cursor, following the leaf sibling chain across page
// boundaries. It returns false once the tree is exhausted.
func (c *cursor) Next() bool {
	if c.idx+1 < len(c.entries) {
		c.idx++
		return true
	}
	if c.pg == nil {
		return false
	}
	hasRight, rightNum := c.pg.getRightSibling()
	if !hasRight {
		return false
	}
	pg := c.t.p.getPage(rightNum)
	entries := pg.getEntries()
	if len(entries) == 0 {
		c.pg, c.entries, c.idx = pg, entries, 0
		return false
	}
	c.pg, c.entries, c.idx = pg, entries, 0
	return true
}
