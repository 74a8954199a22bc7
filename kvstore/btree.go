package kvstore

import (
	"bytes"

	"github.com/mertolbekirov/logidx/errs"
)

// tree is a single B-tree rooted at a fixed page number. Namespaces each get
// their own tree; Get/Set/split are adapted directly from cdb's
// kv.KV, generalized to page numbers wider than a table row count and
// extended to keep leaf pages linked into a sibling chain so a cursor can
// answer prefix range scans without re-descending the tree per segment.
type tree struct {
	p    *pager
	root uint32
}

func (t *tree) Get(key []byte) ([]byte, bool) {
	return t.getLeafPage(key).getValue(key)
}

func (t *tree) Set(key, value []byte) error {
	leaf := t.getLeafPage(key)
	if leaf.canInsert(tuple{Key: key, Value: value}) {
		leaf.setValue(key, value)
		t.p.markDirty(leaf)
		return nil
	}
	left, right := t.splitPage(leaf)
	insertIntoSplit(key, value, left, right)
	t.p.markDirty(left)
	t.p.markDirty(right)
	hasParent, parentNum := leaf.getParent()
	if hasParent {
		parent := t.p.getPage(parentNum)
		return t.parentInsert(parent, left, right)
	}
	// leaf was the root: keep its page number as the root so callers never
	// need to learn a new root page number after a split.
	leaf.setType(pageTypeInternal)
	leaf.setEntries([]tuple{
		{Key: left.getEntries()[0].Key, Value: left.numberAsBytes()},
		{Key: right.getEntries()[0].Key, Value: right.numberAsBytes()},
	})
	left.setParent(leaf.number)
	right.setParent(leaf.number)
	t.p.markDirty(leaf)
	return nil
}

func insertIntoSplit(key, value []byte, left, right *page) {
	rightFirstKey := right.getEntries()[0].Key
	if bytes.Compare(key, rightFirstKey) < 0 {
		left.setValue(key, value)
		return
	}
	right.setValue(key, value)
}

func (t *tree) getLeafPage(key []byte) *page {
	pn := t.root
	pg := t.p.getPage(pn)
	for pg.getType() != pageTypeLeaf {
		v, found := pg.getValue(key)
		if !found {
			// key sorts before every separator: descend into the leftmost child
			v = pg.getEntries()[0].Value
		}
		pg = t.p.getPage(decodePageNumber(v))
	}
	return pg
}

// splitPage divides pg's entries into two new pages and, if pg was a leaf,
// splices the new pages into the existing leaf sibling chain in pg's place.
func (t *tree) splitPage(pg *page) (left, right *page) {
	entries := pg.getEntries()
	left = t.p.newPage()
	left.setEntries(append([]tuple{}, entries[:len(entries)/2]...))
	right = t.p.newPage()
	right.setEntries(append([]tuple{}, entries[len(entries)/2:]...))
	if pg.getType() == pageTypeLeaf {
		left.setType(pageTypeLeaf)
		right.setType(pageTypeLeaf)
		left.setRightSibling(right.number)
		right.setLeftSibling(left.number)
		if hasLeft, leftNeighborNum := pg.getLeftSibling(); hasLeft {
			leftNeighbor := t.p.getPage(leftNeighborNum)
			leftNeighbor.setRightSibling(left.number)
			left.setLeftSibling(leftNeighborNum)
			t.p.markDirty(leftNeighbor)
		}
		if hasRight, rightNeighborNum := pg.getRightSibling(); hasRight {
			rightNeighbor := t.p.getPage(rightNeighborNum)
			rightNeighbor.setLeftSibling(right.number)
			right.setRightSibling(rightNeighborNum)
			t.p.markDirty(rightNeighbor)
		}
	}
	return left, right
}

func (t *tree) parentInsert(parent, left, right *page) error {
	k1 := left.getEntries()[0].Key
	v1 := left.numberAsBytes()
	k2 := right.getEntries()[0].Key
	v2 := right.numberAsBytes()
	if parent.canInsert(tuple{Key: k1, Value: v1}, tuple{Key: k2, Value: v2}) {
		parent.setValue(k1, v1)
		parent.setValue(k2, v2)
		left.setParent(parent.number)
		right.setParent(parent.number)
		t.p.markDirty(parent)
		t.p.markDirty(left)
		t.p.markDirty(right)
		return nil
	}
	newLeft, newRight := t.splitPage(parent)
	t.p.markDirty(newLeft)
	t.p.markDirty(newRight)
	hasParent, grandparentNum := parent.getParent()
	if hasParent {
		left.setParent(grandparentNum)
		right.setParent(grandparentNum)
		t.p.markDirty(left)
		t.p.markDirty(right)
		grandparent := t.p.getPage(grandparentNum)
		return t.parentInsert(grandparent, newLeft, newRight)
	}
	parent.setType(pageTypeInternal)
	parent.setEntries([]tuple{
		{Key: newLeft.getEntries()[0].Key, Value: newLeft.numberAsBytes()},
		{Key: newRight.getEntries()[0].Key, Value: newRight.numberAsBytes()},
	})
	newLeft.setParent(parent.number)
	newRight.setParent(parent.number)
	t.p.markDirty(parent)
	return nil
}

func decodePageNumber(b []byte) uint32 {
	if len(b) != pagePointerSize {
		panic(errs.ContractViolation("internal page pointer has unexpected width").Error())
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

