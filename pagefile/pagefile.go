package pagefile

import (
	"sync"

	"github.com/mertolbekirov/logidx/errs"
	"go.uber.org/zap"
)

const (
	// Page is the fixed page size in bytes.
	Page = 4096
	// EntrySize is the width of one block-number slot.
	EntrySize = 4
	// EntriesPerPage is the TEMP segment capacity: PAGE/4.
	EntriesPerPage = Page / EntrySize
)

// PageFile is temp_index.bin: a file of fixed-size pages. No headers, no
// magic.
type PageFile struct {
	mu      sync.RWMutex
	store   storage
	log     *zap.SugaredLogger
	nextOff int64
}

// Open opens (or creates) a page file. path == "" uses an in-memory buffer,
// matching the engine's :memory: embedding mode.
func Open(path string, log *zap.SugaredLogger) (*PageFile, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	var s storage
	var err error
	if path == "" {
		s = newMemoryStorage()
	} else {
		s, err = newFileStorage(path)
		if err != nil {
			return nil, errs.IO("failed to open page file", err).WithDetail("path", path)
		}
	}
	size, err := s.Size()
	if err != nil {
		return nil, errs.IO("failed to stat page file", err).WithDetail("path", path)
	}
	if size%Page != 0 {
		return nil, errs.Corruption("page file length is not a multiple of PAGE", nil).
			WithDetail("path", path).WithDetail("size", size)
	}
	log.Infow("page file opened", "path", path, "size", size, "pages", size/Page)
	return &PageFile{store: s, log: log, nextOff: size}, nil
}

// ReadPage reads nBytes bytes starting at offset. offset must be a known
// TEMP-segment offset; nBytes must be <= Page.
func (pf *PageFile) ReadPage(offset int64, nBytes int) ([]byte, error) {
	if nBytes > Page {
		return nil, errs.ContractViolation("ReadPage nBytes exceeds PAGE").WithDetail("nBytes", nBytes)
	}
	buf := make([]byte, nBytes)
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	if _, err := pf.store.ReadAt(buf, offset); err != nil {
		return nil, errs.IO("failed to read page", err).WithDetail("offset", offset)
	}
	return buf, nil
}

// WriteEntry writes a 4-byte value at offset + 4*entryIndex. It must not be
// called with entryIndex >= EntriesPerPage.
func (pf *PageFile) WriteEntry(offset int64, entryIndex int, value uint32) error {
	if entryIndex >= EntriesPerPage {
		return errs.ContractViolation("WriteEntry entryIndex >= EntriesPerPage").
			WithDetail("entryIndex", entryIndex)
	}
	buf := make([]byte, EntrySize)
	buf[0] = byte(value)
	buf[1] = byte(value >> 8)
	buf[2] = byte(value >> 16)
	buf[3] = byte(value >> 24)
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if _, err := pf.store.WriteAt(buf, offset+int64(entryIndex)*EntrySize); err != nil {
		return errs.IO("failed to write entry", err).
			WithDetail("offset", offset).WithDetail("entryIndex", entryIndex)
	}
	return nil
}

// AllocatePage grows the file by one PAGE and returns the old end offset,
// which is always a multiple of PAGE.
func (pf *PageFile) AllocatePage() (int64, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	offset := pf.nextOff
	if err := pf.store.Truncate(offset + Page); err != nil {
		return 0, errs.IO("failed to grow page file", err).WithDetail("offset", offset)
	}
	pf.nextOff = offset + Page
	pf.log.Debugw("allocated new page", "offset", offset)
	return offset, nil
}

// Close releases the underlying file handle.
func (pf *PageFile) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.store.Close()
}
