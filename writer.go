package logidx

import (
	"github.com/mertolbekirov/logidx/codec"
	"github.com/mertolbekirov/logidx/descriptor"
	"github.com/mertolbekirov/logidx/errs"
	"github.com/mertolbekirov/logidx/namespace"
	"github.com/mertolbekirov/logidx/pagefile"
)

// SetReceipts ingests one block's receipts. isBackwardSync is accepted for
// interface compatibility; it does not change the algorithm, since the
// block <= last_block drop already makes out-of-order and repeat
// ingestion idempotent.
func (e *Engine) SetReceipts(blockNumber uint32, receipts []Receipt, isBackwardSync bool) error {
	_ = isBackwardSync
	seen := make(map[string]bool)
	for _, r := range receipts {
		for _, l := range r.Logs {
			if len(l.Address) > 0 {
				if err := e.ingestKey(namespace.Addresses, l.Address, blockNumber, seen); err != nil {
					return err
				}
			}
			for _, topic := range l.Topics {
				if err := e.ingestKey(namespace.Topics, topic, blockNumber, seen); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ingestKey appends blockNumber to key's open TEMP segment, creating one
// if none exists and promoting it to FINAL if it fills. seen deduplicates
// a key within a single SetReceipts call.
func (e *Engine) ingestKey(ns namespace.Namespace, key []byte, blockNumber uint32, seen map[string]bool) error {
	if !ns.Validate(key) {
		return errs.ContractViolation("key width does not match namespace").
			WithDetail("namespace", ns.Name).WithDetail("width", len(key))
	}
	dedupKey := ns.Name + string(key)
	if seen[dedupKey] {
		return nil
	}
	seen[dedupKey] = true

	guard := e.locks.Lock(key)
	defer guard.Unlock()

	firstBlock, desc, hasTemp, err := e.currentTemp(ns, key)
	if err != nil {
		return err
	}

	if (hasTemp || desc.Kind == descriptor.KindFinal) && blockNumber <= desc.LastBlock {
		// duplicate or backward-sync replay of an already-indexed block
		return nil
	}

	if !hasTemp {
		offset, err := e.acquireTempPage()
		if err != nil {
			return err
		}
		if err := e.temp.WriteEntry(offset, 0, blockNumber); err != nil {
			return err
		}
		firstBlock = blockNumber
		desc = descriptor.Descriptor{
			Kind:      descriptor.KindTemp,
			Offset:    uint64(offset),
			Length:    1,
			LastBlock: blockNumber,
		}
		return e.putSegment(ns, key, firstBlock, desc)
	}

	if err := e.temp.WriteEntry(int64(desc.Offset), int(desc.Length), blockNumber); err != nil {
		return err
	}
	desc.Length++
	desc.LastBlock = blockNumber

	if desc.Length == pagefile.EntriesPerPage {
		return e.promote(ns, key, firstBlock, desc)
	}
	return e.putSegment(ns, key, firstBlock, desc)
}

// currentTemp locates key's open TEMP segment, if any. A TEMP segment is
// always the last (highest first_block) row for the key, so only the final
// entry of the prefix scan needs checking rather than every row. When that
// last row is FINAL, ok is false and desc is the FINAL row's descriptor, so
// the caller can still drop blocks the key has already indexed.
func (e *Engine) currentTemp(ns namespace.Namespace, key []byte) (firstBlock uint32, desc descriptor.Descriptor, ok bool, err error) {
	it := e.kv.PrefixIterator(ns.Column, key)
	var lastKey, lastVal []byte
	for it.Valid() {
		lastKey = it.Key()
		lastVal = it.Value()
		it.Next()
	}
	if lastKey == nil {
		return 0, descriptor.Descriptor{}, false, nil
	}
	d, err := descriptor.Decode(lastVal)
	if err != nil {
		return 0, descriptor.Descriptor{}, false, errs.Corruption("failed to decode segment descriptor", err)
	}
	if d.Kind != descriptor.KindTemp {
		return 0, d, false, nil
	}
	fb := descriptor.DecodeFirstBlock(lastKey, ns.KeyWidth)
	return fb, d, true, nil
}

func (e *Engine) acquireTempPage() (int64, error) {
	offset, ok, err := e.free.Acquire()
	if err != nil {
		return 0, err
	}
	if ok {
		return offset, nil
	}
	return e.temp.AllocatePage()
}

func (e *Engine) putSegment(ns namespace.Namespace, key []byte, firstBlock uint32, desc descriptor.Descriptor) error {
	compositeKey := descriptor.EncodeKey(key, firstBlock)
	return e.kv.Put(ns.Column, compositeKey, desc.Encode())
}

// promote converts a full TEMP segment into a FINAL one: its page is read,
// compressed, and appended to the final file; its KV row is rewritten in
// place at the same composite key with kind=FINAL; its page is returned
// to the free list.
func (e *Engine) promote(ns namespace.Namespace, key []byte, firstBlock uint32, desc descriptor.Descriptor) error {
	raw, err := e.temp.ReadPage(int64(desc.Offset), pagefile.Page)
	if err != nil {
		return err
	}
	blocks, err := codec.Unpack(raw)
	if err != nil {
		return err
	}
	compressed, err := e.codec.Compress(blocks)
	if err != nil {
		return errs.Corruption("failed to compress full temp segment", err)
	}
	finalOffset, err := e.final.Append(compressed)
	if err != nil {
		return err
	}
	finalDesc := descriptor.Descriptor{
		Kind:      descriptor.KindFinal,
		Offset:    uint64(finalOffset),
		Length:    uint32(len(compressed)),
		LastBlock: desc.LastBlock,
	}
	if err := e.putSegment(ns, key, firstBlock, finalDesc); err != nil {
		return err
	}
	return e.free.Release(int64(desc.Offset))
}
