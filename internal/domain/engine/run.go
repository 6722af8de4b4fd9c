package engine

import "time"

// Request describes one logical engine invocation.
type Request struct {
	Kind      Kind
	Plugin    string
	Mode      OutputMode
	ExtraArgs []string
	Timeout   time.Duration
	ImagePath string
	Profile   string // legacy only
	Offline   bool   // modern only
	// OutputFile and DumpDir are filled in by the run-to-file and run-to-dump modes.
	OutputFile string
	DumpDir    string
}

// EffectiveMode resolves an empty Mode to the engine default.
func (r Request) EffectiveMode() OutputMode {
	if r.Mode == "" {
		return DefaultMode(r.Kind)
	}
	return r.Mode
}

// Invocation is a concrete process invocation produced by a builder.
type Invocation struct {
	Args []string
	// Env holds overrides applied on top of the parent environment.
	Env map[string]string
	Dir string
}

// Outcome is the raw result of a single process run.
type Outcome struct {
	Status   ExitStatus
	ExitCode int
	PID      int
	Stdout   []byte
	Stderr   []byte
	WallTime time.Duration
	Timeout  time.Duration
	Err      error
}
