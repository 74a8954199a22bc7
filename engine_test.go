package logidx

import (
	"bytes"
	"testing"

	"github.com/mertolbekirov/logidx/codec"
	"github.com/mertolbekirov/logidx/options"
)

func mustNewEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(options.WithCodec(codec.NewNoOpCodec()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func addrKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 20)
}

func receiptFor(addr []byte) []Receipt {
	return []Receipt{{Logs: []Log{{Address: addr}}}}
}

func collectBlocks(t *testing.T, e *Engine, key []byte, from, to uint32) []uint32 {
	t.Helper()
	scan, err := e.GetBlockNumbers(key, from, to)
	if err != nil {
		t.Fatalf("GetBlockNumbers: %v", err)
	}
	var got []uint32
	for scan.Next() {
		got = append(got, scan.Block())
	}
	if err := scan.Err(); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	return got
}

func assertBlocks(t *testing.T, got, want []uint32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// S1: single segment, single query.
func TestScenarioSingleSegment(t *testing.T) {
	e := mustNewEngine(t)
	k := addrKey(0x11)
	for _, b := range []uint32{10, 20, 30, 40, 50} {
		if err := e.SetReceipts(b, receiptFor(k), false); err != nil {
			t.Fatalf("SetReceipts(%d): %v", b, err)
		}
	}
	assertBlocks(t, collectBlocks(t, e, k, 15, 45), []uint32{20, 30, 40})
	assertBlocks(t, collectBlocks(t, e, k, 0, 5), nil)
	assertBlocks(t, collectBlocks(t, e, k, 30, 30), []uint32{30})
}

// S2: promotion boundary.
func TestScenarioPromotionBoundary(t *testing.T) {
	e := mustNewEngine(t)
	k := addrKey(0x22)
	for b := uint32(0); b <= 1023; b++ {
		if err := e.SetReceipts(b, receiptFor(k), false); err != nil {
			t.Fatalf("SetReceipts(%d): %v", b, err)
		}
	}
	if e.free.Len() != 1 {
		t.Errorf("free list len = %d, want 1", e.free.Len())
	}
	assertBlocks(t, collectBlocks(t, e, k, 500, 500), []uint32{500})
}

// S3: two segments.
func TestScenarioTwoSegments(t *testing.T) {
	e := mustNewEngine(t)
	k := addrKey(0x33)
	for b := uint32(0); b <= 1500; b++ {
		if err := e.SetReceipts(b, receiptFor(k), false); err != nil {
			t.Fatalf("SetReceipts(%d): %v", b, err)
		}
	}
	want := make([]uint32, 0, 101)
	for b := uint32(1000); b <= 1100; b++ {
		want = append(want, b)
	}
	assertBlocks(t, collectBlocks(t, e, k, 1000, 1100), want)
}

// S4: duplicate / backward re-ingest is a no-op.
func TestScenarioDuplicateIngestIsIdempotent(t *testing.T) {
	e := mustNewEngine(t)
	k := addrKey(0x44)
	for _, b := range []uint32{10, 20, 30, 40, 50} {
		e.SetReceipts(b, receiptFor(k), false)
	}
	before := collectBlocks(t, e, k, 0, 1000)
	if err := e.SetReceipts(30, receiptFor(k), true); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	after := collectBlocks(t, e, k, 0, 1000)
	assertBlocks(t, after, before)
}

// S5: two keys ingested concurrently produce independent, correct results.
func TestScenarioTwoKeysParallel(t *testing.T) {
	e := mustNewEngine(t)
	k1 := addrKey(0x55)
	k2 := addrKey(0x66)
	done := make(chan error, 2)
	go func() {
		for b := uint32(0); b < 200; b++ {
			if err := e.SetReceipts(b, receiptFor(k1), false); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	go func() {
		for b := uint32(0); b < 200; b++ {
			if err := e.SetReceipts(b, receiptFor(k2), false); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("SetReceipts: %v", err)
		}
	}
	want := make([]uint32, 200)
	for i := range want {
		want[i] = uint32(i)
	}
	assertBlocks(t, collectBlocks(t, e, k1, 0, 1000), want)
	assertBlocks(t, collectBlocks(t, e, k2, 0, 1000), want)
}

// S6: empty.
func TestScenarioUnknownKeyIsEmpty(t *testing.T) {
	e := mustNewEngine(t)
	assertBlocks(t, collectBlocks(t, e, addrKey(0x99), 0, 1000), nil)
}

func TestTopicsNamespaceIndexedIndependentlyFromAddresses(t *testing.T) {
	e := mustNewEngine(t)
	addr := addrKey(0x77)
	topic := bytes.Repeat([]byte{0x77}, 32)
	e.SetReceipts(1, []Receipt{{Logs: []Log{{Address: addr, Topics: [][]byte{topic}}}}}, false)
	e.SetReceipts(2, receiptFor(addr), false)

	assertBlocks(t, collectBlocks(t, e, addr, 0, 10), []uint32{1, 2})
	assertBlocks(t, collectBlocks(t, e, topic, 0, 10), []uint32{1})
}
