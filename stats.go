package logidx

// Stats is a read-only operational snapshot of the engine, grounded on the
// size-tracking fields iamNilotpal-ignite's Storage type exposes for its
// segment files.
type Stats struct {
	// FreePages is the number of temp-file pages currently on the free
	// list, available for reuse before the temp file needs to grow.
	FreePages int
	// FinalFileSize is the current size in bytes of finalized_index.bin.
	FinalFileSize int64
}

// Stats returns a snapshot of the engine's current state.
func (e *Engine) Stats() Stats {
	return Stats{
		FreePages:     e.free.Len(),
		FinalFileSize: e.final.Size(),
	}
}
