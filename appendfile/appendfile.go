// Package appendfile implements finalized_index.bin, a single append-only
// file holding compressed block-number runs. Writers receive back the
// (offset, length) pair a descriptor needs to read the run later; there is
// no in-place update and no rotation, unlike the segment files
// iamNilotpal-ignite's own package rotates between.
package appendfile

import (
	"sync"

	"github.com/mertolbekirov/logidx/errs"
	"go.uber.org/zap"
)

// AppendFile is finalized_index.bin.
type AppendFile struct {
	mu     sync.Mutex
	store  storage
	log    *zap.SugaredLogger
	offset int64
}

// Open opens (or creates) the append file. path == "" uses an in-memory
// buffer.
func Open(path string, log *zap.SugaredLogger) (*AppendFile, error) {
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
			return nil, errs.IO("failed to open append file", err).WithDetail("path", path)
		}
	}
	size, err := s.Size()
	if err != nil {
		return nil, errs.IO("failed to stat append file", err).WithDetail("path", path)
	}
	log.Infow("append file opened", "path", path, "size", size)
	return &AppendFile{store: s, log: log, offset: size}, nil
}

// Append writes data at the current end of the file and returns the offset
// it was written at. Safe for concurrent callers: the write offset is
// reserved under a single global mutex, so two concurrent appends never
// overlap.
func (af *AppendFile) Append(data []byte) (offset int64, err error) {
	af.mu.Lock()
	defer af.mu.Unlock()
	offset = af.offset
	if _, err := af.store.WriteAt(data, offset); err != nil {
		return 0, errs.IO("failed to append", err).WithDetail("offset", offset)
	}
	af.offset = offset + int64(len(data))
	af.log.Debugw("appended run", "offset", offset, "length", len(data))
	return offset, nil
}

// Read reads length bytes starting at offset. Callers obtain (offset,
// length) from a descriptor previously produced by Append.
func (af *AppendFile) Read(offset int64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	af.mu.Lock()
	defer af.mu.Unlock()
	if _, err := af.store.ReadAt(buf, offset); err != nil {
		return nil, errs.IO("failed to read run", err).WithDetail("offset", offset).WithDetail("length", length)
	}
	return buf, nil
}

// Size returns the current end-of-file offset, i.e. the offset the next
// Append call would return.
func (af *AppendFile) Size() int64 {
	af.mu.Lock()
	defer af.mu.Unlock()
	return af.offset
}

// Close releases the underlying file handle.
func (af *AppendFile) Close() error {
	af.mu.Lock()
	defer af.mu.Unlock()
	return af.store.Close()
}
