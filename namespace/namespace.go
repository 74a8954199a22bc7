// Package namespace formalizes the "key namespace" concept: addresses and
// topics share identical engine code, differing only in key width and
// which IndexMetaStore column they are stored under. Dynamic dispatch
// over column kinds is a namespace parameter, not inheritance.
package namespace

// Column identifies which logical KV column a namespace's segments live in.
type Column uint8

const (
	// ColumnAddresses holds <address || first_block_be_u32> -> descriptor rows.
	ColumnAddresses Column = iota
	// ColumnTopics holds <topic || first_block_be_u32> -> descriptor rows.
	ColumnTopics
	// ColumnDefault holds reserved engine keys such as "freePages".
	ColumnDefault
)

func (c Column) String() string {
	switch c {
	case ColumnAddresses:
		return "Addresses"
	case ColumnTopics:
		return "Topics"
	case ColumnDefault:
		return "Default"
	default:
		return "Unknown"
	}
}

// Namespace is a (key_width, kv_column) pair. The engine never interprets a
// user key's bytes beyond its declared width.
type Namespace struct {
	Name     string
	KeyWidth int
	Column   Column
}

// Addresses is the 20-byte log-emitting-address namespace.
var Addresses = Namespace{Name: "address", KeyWidth: 20, Column: ColumnAddresses}

// Topics is the 32-byte log-topic namespace.
var Topics = Namespace{Name: "topic", KeyWidth: 32, Column: ColumnTopics}

// Validate returns an error-compatible bool reporting whether key has the
// width this namespace requires.
func (n Namespace) Validate(key []byte) bool {
	return len(key) == n.KeyWidth
}
