package engine

import "time"

// Record is one normalized row: field name to value.
type Record map[string]any

// Result is the only shape handed back to callers of the engine service.
type Result struct {
	RunID         string        `json:"run_id,omitempty"`
	Kind          Kind          `json:"engine"`
	Plugin        string        `json:"plugin"`
	Mode          OutputMode    `json:"mode"`
	Success       bool          `json:"success"`
	Status        ExitStatus    `json:"exit_status"`
	ExitCode      int           `json:"exit_code"`
	Columns       []string      `json:"columns,omitempty"`
	Records       []Record      `json:"records"`
	RawOutput     string        `json:"raw_output,omitempty"`
	Stderr        string        `json:"stderr,omitempty"`
	ParseDegraded bool          `json:"parse_degraded,omitempty"`
	Error         *ResultError  `json:"error,omitempty"`
	ArtifactPaths []string      `json:"artifact_paths,omitempty"`
	ArtifactURLs  []string      `json:"artifact_urls,omitempty"`
	Command       []string      `json:"command,omitempty"`
	WallTime      time.Duration `json:"wall_time_ns"`
}

// FileResult is returned by the run-to-file mode.
type FileResult struct {
	Result
	OutputFilePath string `json:"output_file"`
	CSVFilePath    string `json:"csv_file,omitempty"`
}

// DumpResult is returned by the run-to-dump-directory mode.
type DumpResult struct {
	Result
	DumpDirPath string `json:"dump_dir"`
}

// Fail builds an unsuccessful Result that never reached the runner.
func Fail(req Request, kind ErrorKind, msg string) Result {
	return Result{
		Kind:    req.Kind,
		Plugin:  req.Plugin,
		Mode:    req.EffectiveMode(),
		Records: []Record{},
		Error:   &ResultError{Kind: kind, Message: msg},
	}
}
