package constants

// ExtractMode selects how unresolved fields are reported.
type ExtractMode string

// Stable values (stored verbatim in ticket_records.mode).
const (
	ModeCompact ExtractMode = "COMPACT" // unresolved fields omitted
	ModeDirect  ExtractMode = "DIRECT"  // unresolved fields kept as ""
)

// Source records where a record's text came from.
type Source string

const (
	SourceImage Source = "IMAGE"
	SourceText  Source = "TEXT"
)
