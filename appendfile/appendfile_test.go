package appendfile

import (
	"bytes"
	"testing"
)

func mustOpen(t *testing.T) *AppendFile {
	t.Helper()
	af, err := Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return af
}

func TestAppendReadRoundTrip(t *testing.T) {
	af := mustOpen(t)
	a, err := af.Append([]byte("hello"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if a != 0 {
		t.Fatalf("first append offset = %d, want 0", a)
	}
	b, err := af.Append([]byte("world!!"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b != 5 {
		t.Fatalf("second append offset = %d, want 5", b)
	}
	got, err := af.Read(a, 5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Read(a) = %q, want %q", got, "hello")
	}
	got, err = af.Read(b, 7)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte("world!!")) {
		t.Errorf("Read(b) = %q, want %q", got, "world!!")
	}
}

func TestSizeTracksAppends(t *testing.T) {
	af := mustOpen(t)
	if af.Size() != 0 {
		t.Fatalf("initial size = %d, want 0", af.Size())
	}
	af.Append([]byte{1, 2, 3})
	if af.Size() != 3 {
		t.Fatalf("size after append = %d, want 3", af.Size())
	}
}

func TestConcurrentAppendsDoNotOverlap(t *testing.T) {
	af := mustOpen(t)
	const n = 50
	offsets := make(chan int64, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			off, err := af.Append([]byte{0xAA, 0xBB})
			if err != nil {
				t.Error(err)
			}
			offsets <- off
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	close(offsets)
	seen := map[int64]bool{}
	for off := range offsets {
		if seen[off] {
			t.Fatalf("offset %d reused", off)
		}
		seen[off] = true
	}
}
