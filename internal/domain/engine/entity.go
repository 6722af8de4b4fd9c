package engine

import "fmt"

// Kind enum
type Kind string

const (
	NativeSession Kind = "native"
	LegacyCLI     Kind = "legacy"
	ModernCLI     Kind = "modern"
)

// Valid reports whether k is one of the known engine kinds.
func (k Kind) Valid() bool {
	switch k {
	case NativeSession, LegacyCLI, ModernCLI:
		return true
	}
	return false
}

// ParseKind accepts the kind names plus the common aliases used by operators.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "native", "memprocfs", "mem":
		return NativeSession, nil
	case "legacy", "vol2":
		return LegacyCLI, nil
	case "modern", "vol3":
		return ModernCLI, nil
	}
	return "", fmt.Errorf("unknown engine: %q (allowed: native, legacy, modern)", s)
}

// OutputMode enum. The zero value selects the engine default.
type OutputMode string

const (
	StructuredJSON OutputMode = "json"
	DelimitedText  OutputMode = "csv"
	FreeText       OutputMode = "text"
)

// ParseOutputMode maps flag values onto an OutputMode. Empty stays empty.
func ParseOutputMode(s string) (OutputMode, error) {
	switch s {
	case "":
		return "", nil
	case "json":
		return StructuredJSON, nil
	case "csv":
		return DelimitedText, nil
	case "text", "quick", "txt":
		return FreeText, nil
	}
	return "", fmt.Errorf("unknown output mode: %q (allowed: json, csv, text)", s)
}

// Ext is the file extension used when persisting output in this mode.
func (m OutputMode) Ext() string {
	switch m {
	case StructuredJSON:
		return "json"
	case DelimitedText:
		return "csv"
	default:
		return "txt"
	}
}

// DefaultMode returns the mode an engine uses when the request leaves it empty.
func DefaultMode(k Kind) OutputMode {
	if k == ModernCLI {
		return DelimitedText
	}
	return StructuredJSON
}

// ExitStatus enum
type ExitStatus string

const (
	Success     ExitStatus = "success"
	NonZeroExit ExitStatus = "non_zero_exit"
	TimedOut    ExitStatus = "timed_out"
	SpawnFailed ExitStatus = "spawn_failed"
)
