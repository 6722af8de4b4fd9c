package runs

import (
	"time"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

// ID tipe untuk Run
type RunID string

// Run is one recorded engine invocation.
type Run struct {
	ID          RunID             `json:"id"`
	StartedAt   time.Time         `json:"started_at"`
	Engine      engine.Kind       `json:"engine"`
	Plugin      string            `json:"plugin"`
	ImagePath   string            `json:"image_path"`
	Mode        engine.OutputMode `json:"mode"`
	Status      engine.ExitStatus `json:"status"`
	ExitCode    int               `json:"exit_code"`
	RecordCount int               `json:"record_count"`
	DurationMS  int64             `json:"duration_ms"`
	OutputFile  string            `json:"output_file,omitempty"`
	CSVFile     string            `json:"csv_file,omitempty"`
	DumpDir     string            `json:"dump_dir,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Summary aggregates runs over a time window.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timed_out"`
}

// StatusRejected marks runs refused before an engine was spawned.
const StatusRejected engine.ExitStatus = "rejected"
