package logidx

// Log is one emitted event within a Receipt: an address plus zero or more
// topic hashes. The engine never interprets Address or Topics beyond their
// fixed width; it only ever indexes them.
type Log struct {
	Address []byte
	Topics  [][]byte
}

// Receipt is the per-transaction log container the upstream block
// processor hands to SetReceipts. The engine only reads Logs.
type Receipt struct {
	Logs []Log
}
