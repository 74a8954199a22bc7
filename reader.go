package logidx

import (
	"math"
	"sort"

	"github.com/mertolbekirov/logidx/codec"
	"github.com/mertolbekirov/logidx/descriptor"
	"github.com/mertolbekirov/logidx/errs"
	"github.com/mertolbekirov/logidx/kvstore"
	"github.com/mertolbekirov/logidx/namespace"
	"github.com/mertolbekirov/logidx/pagefile"
)

// GetBlockNumbers returns a single-pass scan over the ascending block
// numbers key appeared in within [from, to]. The namespace is inferred
// from key's width. A fresh call always re-runs the scan; a returned
// *Scan is not itself restartable.
func (e *Engine) GetBlockNumbers(key []byte, from, to uint32) (*Scan, error) {
	ns, err := namespaceFor(key)
	if err != nil {
		return nil, err
	}
	return &Scan{
		e:    e,
		ns:   ns,
		key:  key,
		from: from,
		to:   to,
		it:   e.kv.PrefixIterator(ns.Column, key),
	}, nil
}

// Scan is the lazy, single-pass sequence GetBlockNumbers returns. Call
// Next until it returns false; each true call makes Block valid.
type Scan struct {
	e    *Engine
	ns   namespace.Namespace
	key  []byte
	from uint32
	to   uint32
	it   *kvstore.PrefixIterator

	pending []uint32
	pendIdx int
	done    bool
	block   uint32
	err     error
}

// Block returns the current block number. Valid only immediately after a
// call to Next that returned true.
func (s *Scan) Block() uint32 {
	return s.block
}

// Next advances the scan. It returns false once the range is exhausted or
// a segment boundary proves no further block can fall within [from,to].
func (s *Scan) Next() bool {
	for {
		if s.pendIdx < len(s.pending) {
			b := s.pending[s.pendIdx]
			s.pendIdx++
			if b > s.to {
				s.done = true
				s.pending = nil
				return false
			}
			s.block = b
			return true
		}
		if s.done || !s.it.Valid() {
			return false
		}
		if err := s.loadNextSegment(); err != nil {
			s.err = err
			s.done = true
			return false
		}
	}
}

// Err returns any error encountered while loading a segment's bytes. Check
// it after Next returns false to distinguish end-of-range from failure.
func (s *Scan) Err() error {
	return s.err
}

// loadNextSegment reads the current iterator position's segment if it
// overlaps [from,to], using the next segment's first_block as an upper
// fence so a clearly-too-early segment is skipped without reading its
// bytes.
func (s *Scan) loadNextSegment() error {
	curKey := s.it.Key()
	curVal := s.it.Value()
	firstBlockCur := descriptor.DecodeFirstBlock(curKey, s.ns.KeyWidth)

	s.it.Next()
	nextFirstBlock := uint32(math.MaxUint32)
	if s.it.Valid() {
		nextFirstBlock = descriptor.DecodeFirstBlock(s.it.Key(), s.ns.KeyWidth)
	}

	overlaps := firstBlockCur <= s.to && nextFirstBlock > s.from
	if !overlaps {
		if firstBlockCur > s.to {
			s.done = true
		}
		return nil
	}

	desc, err := descriptor.Decode(curVal)
	if err != nil {
		return errs.Corruption("failed to decode segment descriptor", err)
	}
	blocks, err := s.readSegment(desc)
	if err != nil {
		return err
	}
	idx := sort.Search(len(blocks), func(i int) bool { return blocks[i] >= s.from })
	s.pending = blocks[idx:]
	s.pendIdx = 0
	return nil
}

// readSegment loads a segment's block numbers: a TEMP segment is a raw
// packed u32[] written directly by the page file, a FINAL segment is a
// compressed run that must go through the engine's codec.
func (s *Scan) readSegment(desc descriptor.Descriptor) ([]uint32, error) {
	if desc.Kind == descriptor.KindTemp {
		if desc.Length > pagefile.EntriesPerPage {
			return nil, errs.Corruption("temp segment length exceeds page capacity", nil).
				WithDetail("length", desc.Length)
		}
		raw, err := s.e.temp.ReadPage(int64(desc.Offset), int(desc.Length)*pagefile.EntrySize)
		if err != nil {
			return nil, err
		}
		return codec.Unpack(raw)
	}
	raw, err := s.e.final.Read(int64(desc.Offset), desc.Length)
	if err != nil {
		return nil, err
	}
	blocks, err := s.e.codec.Decompress(raw)
	if err != nil {
		return nil, errs.Corruption("failed to decompress final segment", err).
			WithDetail("offset", desc.Offset)
	}
	return blocks, nil
}
