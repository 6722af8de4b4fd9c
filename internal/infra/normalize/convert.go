package normalize

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TableToCSV writes a {columns, rows} JSON table as CSV: one header line, then
// one line per row.
func TableToCSV(raw []byte, w io.Writer) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var t Table
	if err := dec.Decode(&t); err != nil {
		return fmt.Errorf("decode json table: %w", err)
	}
	if t.Columns == nil || t.Rows == nil {
		return errors.New("json object has no columns/rows table")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columnNames(t.Columns)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = cell(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVSibling converts the JSON table at jsonPath into a .csv file next to
// it and returns the new path.
func WriteCSVSibling(jsonPath string) (string, error) {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	csvPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".csv"

	var buf bytes.Buffer
	if err := TableToCSV(raw, &buf); err != nil {
		return "", err
	}
	if err := os.WriteFile(csvPath, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return csvPath, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
