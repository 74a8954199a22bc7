// Package kvstore is the embedded sorted key-value store the rest of the
// engine treats as an abstract collaborator: a B-tree of fixed-size pages,
// adapted from the pager/kv packages this repository was built from, with
// the journal-based crash recovery and cross-process file locking dropped
// (no WAL is in scope here) and leaf pages linked into a sibling chain so a
// cursor can walk a key prefix across page boundaries.
package kvstore

import (
	"io"
	"os"
)

// storage is the random-access byte store backing the pager.
type storage interface {
	io.ReaderAt
	io.WriterAt
	Close() error
}

type memoryStorage struct {
	buf []byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{}
}

func (m *memoryStorage) grow(size int64) {
	if int64(len(m.buf)) < size {
		m.buf = append(m.buf, make([]byte, size-int64(len(m.buf)))...)
	}
}

func (m *memoryStorage) ReadAt(p []byte, off int64) (int, error) {
	m.grow(off + int64(len(p)))
	n := copy(p, m.buf[off:])
	return n, nil
}

func (m *memoryStorage) WriteAt(p []byte, off int64) (int, error) {
	m.grow(off + int64(len(p)))
	n := copy(m.buf[off:], p)
	return n, nil
}

func (m *memoryStorage) Close() error {
	return nil
}

type fileStorage struct {
	file *os.File
}

func newFileStorage(path string) (*fileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &fileStorage{file: f}, nil
}

func (f *fileStorage) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.file.ReadAt(p, off)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

func (f *fileStorage) WriteAt(p []byte, off int64) (int, error) {
	return f.file.WriteAt(p, off)
}

func (f *fileStorage) Close() error {
	return f.file.Close()
}
