package appendfile

import (
	"io"
	"os"
)

// storage is the minimal random-access file abstraction AppendFile needs.
// Grounded on iamNilotpal-ignite's own segment-file storage, with rotation
// and segment-ID bookkeeping dropped since finalized_index.bin is a single
// file with no rotation.
type storage interface {
	io.ReaderAt
	io.WriterAt
	Size() (int64, error)
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

func (m *memoryStorage) Size() (int64, error) {
	return int64(len(m.buf)), nil
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

func (f *fileStorage) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *fileStorage) Close() error {
	return f.file.Close()
}
