// Package normalize converts raw engine output into uniform records.
package normalize

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

// maxStderrTail caps how much stderr is quoted in a non-zero-exit error.
const maxStderrTail = 512

// Table is the structured-JSON wire shape: {"columns": [...], "rows": [[...], ...]}.
type Table struct {
	Columns []any   `json:"columns"`
	Rows    [][]any `json:"rows"`
}

// Normalize turns an Outcome into a Result. Parse problems never make a run
// unsuccessful: Success mirrors the process exit status only.
func Normalize(out engine.Outcome, mode engine.OutputMode) engine.Result {
	res := engine.Result{
		Mode:     mode,
		Success:  out.Status == engine.Success,
		Status:   out.Status,
		ExitCode: out.ExitCode,
		Records:  []engine.Record{},
		Stderr:   decode(out.Stderr),
		WallTime: out.WallTime,
	}

	switch out.Status {
	case engine.SpawnFailed:
		res.Error = &engine.ResultError{Kind: engine.ErrorSpawnFailed, Message: errMessage(out.Err, res.Stderr, "failed to start engine")}
		return res
	case engine.TimedOut:
		res.Error = &engine.ResultError{Kind: engine.ErrorTimedOut, Message: timeoutMessage(out)}
		res.RawOutput = decode(out.Stdout)
		return res
	case engine.NonZeroExit:
		res.Error = &engine.ResultError{Kind: engine.ErrorNonZeroExit, Message: exitMessage(out.ExitCode, res.Stderr)}
	}

	res.RawOutput = decode(out.Stdout)
	switch mode {
	case engine.StructuredJSON:
		cols, recs, err := ParseJSON(out.Stdout)
		if err != nil {
			res.ParseDegraded = len(bytes.TrimSpace(out.Stdout)) > 0
			return res
		}
		res.Columns, res.Records = cols, recs
	case engine.DelimitedText:
		cols, recs, err := ParseCSV(res.RawOutput)
		res.Columns, res.Records = cols, recs
		if err != nil {
			res.ParseDegraded = true
		}
	}
	return res
}

// ParseJSON decodes structured output. A {columns, rows} table is zipped into
// one record per row; a top-level array of objects is taken as records as-is.
// Numbers stay json.Number so 64-bit addresses keep full precision.
func ParseJSON(raw []byte) ([]string, []engine.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, nil, fmt.Errorf("decode json: %w", err)
	}

	switch doc := v.(type) {
	case map[string]any:
		cols, okCols := doc["columns"].([]any)
		rows, okRows := doc["rows"].([]any)
		if !okCols || !okRows {
			return nil, nil, errors.New("json object has no columns/rows table")
		}
		names := columnNames(cols)
		records := make([]engine.Record, 0, len(rows))
		for i, r := range rows {
			row, ok := r.([]any)
			if !ok {
				return nil, nil, fmt.Errorf("row %d is not an array", i)
			}
			records = append(records, zip(names, row))
		}
		return names, records, nil
	case []any:
		records := make([]engine.Record, 0, len(doc))
		for i, item := range doc {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("element %d is not an object", i)
			}
			records = append(records, engine.Record(obj))
		}
		return nil, records, nil
	}
	return nil, nil, errors.New("json document is neither a table nor a list of objects")
}

// zip pairs names with values, stopping at the shorter of the two.
func zip(names []string, row []any) engine.Record {
	rec := make(engine.Record, len(names))
	for i, name := range names {
		if i >= len(row) {
			break
		}
		rec[name] = row[i]
	}
	return rec
}

func columnNames(cols []any) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		if s, ok := c.(string); ok {
			names[i] = s
			continue
		}
		names[i] = fmt.Sprint(c)
	}
	return names
}

// ParseCSV reads a header line followed by value lines. Empty values are
// dropped from each record rather than surfaced as "". Records parsed before a
// malformed line are kept and the error is returned alongside them.
func ParseCSV(text string) ([]string, []engine.Record, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, []engine.Record{}, nil
	}
	if err != nil {
		return nil, []engine.Record{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records := []engine.Record{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			return header, records, nil
		}
		if err != nil {
			return header, records, fmt.Errorf("read csv row: %w", err)
		}
		rec := make(engine.Record, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			if row[i] == "" {
				continue
			}
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
}

func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func timeoutMessage(out engine.Outcome) string {
	if errors.Is(out.Err, engine.ErrCanceled) {
		return out.Err.Error()
	}
	return fmt.Sprintf("command timed out after %s", out.Timeout)
}

func exitMessage(code int, stderr string) string {
	msg := fmt.Sprintf("exit status %d", code)
	if tail := tail(strings.TrimSpace(stderr), maxStderrTail); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func errMessage(err error, stderr, fallback string) string {
	if err != nil {
		return err.Error()
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return fallback
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	// don't start mid-rune
	for i := 0; i < len(s) && i < utf8.UTFMax; i++ {
		if utf8.RuneStart(s[i]) {
			return "..." + s[i:]
		}
	}
	return "..." + s
}
