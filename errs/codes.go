package errs

// Kind categorizes an engine error so callers can branch on failure mode
// without parsing messages.
type Kind string

const (
	// KindIO covers PageFile, AppendFile, and temp/final file growth failures.
	KindIO Kind = "IO_ERROR"
	// KindKV covers IndexMetaStore read/write failures.
	KindKV Kind = "KV_ERROR"
	// KindCorruption covers an unknown descriptor kind, a FINAL run that
	// fails to decompress, or a TEMP segment observed with length > PAGE/4.
	// The engine keeps no corruption state: after such an error is returned,
	// later operations still run as usual.
	KindCorruption Kind = "CORRUPTION_ERROR"
	// KindContractViolation marks a programming error such as a capacity
	// overflow caught mid-write, which is unreachable by construction. It is
	// also returned for a key whose width matches no namespace.
	KindContractViolation Kind = "CONTRACT_VIOLATION"
)
