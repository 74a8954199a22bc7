package options

const (
	// DefaultDataDir is used only as documentation for embedders; New
	// requires DataDir to be set explicitly or left empty for in-memory
	// mode, it is never defaulted to a filesystem path implicitly.
	DefaultDataDir = ""

	// DefaultKeyLockShards is the per-key write lock table's shard count.
	DefaultKeyLockShards = 256

	// DefaultPageCacheSize is the KV store's in-memory page cache size.
	DefaultPageCacheSize = 1000
)
