package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
)

func ok(stdout string) engine.Outcome {
	return engine.Outcome{Status: engine.Success, Stdout: []byte(stdout), WallTime: time.Second}
}

func TestNormalizeStructuredTable(t *testing.T) {
	out := ok(`{"columns":["PID","Name"],"rows":[[4,"System"],[88,"smss.exe"]]}`)

	res := Normalize(out, engine.StructuredJSON)

	require.True(t, res.Success)
	assert.Nil(t, res.Error)
	assert.False(t, res.ParseDegraded)
	assert.Equal(t, []string{"PID", "Name"}, res.Columns)
	assert.Equal(t, []engine.Record{
		{"PID": json.Number("4"), "Name": "System"},
		{"PID": json.Number("88"), "Name": "smss.exe"},
	}, res.Records)
	assert.NotEmpty(t, res.RawOutput)
}

func TestNormalizeStructuredKeepsLargeAddresses(t *testing.T) {
	out := ok(`{"columns":["Offset(V)","Name"],"rows":[[18446735277656748096,"System"]]}`)

	res := Normalize(out, engine.StructuredJSON)
	require.Len(t, res.Records, 1)
	assert.Equal(t, json.Number("18446735277656748096"), res.Records[0]["Offset(V)"])
}

func TestNormalizeStructuredShortRowZipsToShorter(t *testing.T) {
	res := Normalize(ok(`{"columns":["PID","Name","PPID"],"rows":[[4,"System"]]}`), engine.StructuredJSON)
	require.Len(t, res.Records, 1)
	assert.Equal(t, engine.Record{"PID": json.Number("4"), "Name": "System"}, res.Records[0])
}

func TestNormalizeStructuredListOfObjects(t *testing.T) {
	res := Normalize(ok(`[{"PID":4,"ImageFileName":"System"}]`), engine.StructuredJSON)
	require.True(t, res.Success)
	assert.False(t, res.ParseDegraded)
	assert.Equal(t, []engine.Record{{"PID": json.Number("4"), "ImageFileName": "System"}}, res.Records)
}

func TestNormalizeDegradedParseIsNonFatal(t *testing.T) {
	stdout := "Volatility Foundation Volatility Framework 2.6\nOffset(V)  Name\n"
	res := Normalize(ok(stdout), engine.StructuredJSON)

	assert.True(t, res.Success)
	assert.True(t, res.ParseDegraded)
	assert.Empty(t, res.Records)
	assert.NotNil(t, res.Records)
	assert.Equal(t, stdout, res.RawOutput)
	assert.Nil(t, res.Error)
}

func TestNormalizeJSONWithoutTableIsDegraded(t *testing.T) {
	res := Normalize(ok(`{"plugin":"imageinfo"}`), engine.StructuredJSON)
	assert.True(t, res.Success)
	assert.True(t, res.ParseDegraded)
	assert.Empty(t, res.Records)
}

func TestNormalizeEmptyStdoutIsEmptySuccess(t *testing.T) {
	res := Normalize(ok(""), engine.StructuredJSON)
	assert.True(t, res.Success)
	assert.False(t, res.ParseDegraded)
	assert.Empty(t, res.Records)
}

func TestNormalizeDelimitedDropsEmptyValues(t *testing.T) {
	res := Normalize(ok("PID,Name\n4,\n"), engine.DelimitedText)

	require.True(t, res.Success)
	assert.Equal(t, []string{"PID", "Name"}, res.Columns)
	require.Len(t, res.Records, 1)
	assert.Equal(t, engine.Record{"PID": "4"}, res.Records[0])
	_, present := res.Records[0]["Name"]
	assert.False(t, present)
}

func TestNormalizeDelimitedRows(t *testing.T) {
	stdout := "TreeDepth,PID,PPID,ImageFileName\n0,4,0,System\n1,\"88\",4,smss.exe\n\n0,500,400,\"csrss, x\"\n"
	res := Normalize(ok(stdout), engine.DelimitedText)

	assert.Equal(t, []engine.Record{
		{"TreeDepth": "0", "PID": "4", "PPID": "0", "ImageFileName": "System"},
		{"TreeDepth": "1", "PID": "88", "PPID": "4", "ImageFileName": "smss.exe"},
		{"TreeDepth": "0", "PID": "500", "PPID": "400", "ImageFileName": "csrss, x"},
	}, res.Records)
	assert.False(t, res.ParseDegraded)
}

func TestNormalizeDelimitedRaggedRows(t *testing.T) {
	res := Normalize(ok("A,B\n1\n2,3,4\n"), engine.DelimitedText)
	assert.Equal(t, []engine.Record{{"A": "1"}, {"A": "2", "B": "3"}}, res.Records)
}

func TestParseCSVStripsBOM(t *testing.T) {
	cols, recs, err := ParseCSV("\ufeffPID,Name\n4,System\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"PID", "Name"}, cols)
	assert.Equal(t, engine.Record{"PID": "4", "Name": "System"}, recs[0])
}

func TestParseCSVEmptyInput(t *testing.T) {
	cols, recs, err := ParseCSV("")
	require.NoError(t, err)
	assert.Nil(t, cols)
	assert.Empty(t, recs)
}

func TestNormalizeFreeText(t *testing.T) {
	stdout := "Suggested Profile(s) : Win7SP1x64, Win7SP0x64\n"
	res := Normalize(ok(stdout), engine.FreeText)

	assert.True(t, res.Success)
	assert.Equal(t, stdout, res.RawOutput)
	assert.Empty(t, res.Records)
	assert.False(t, res.ParseDegraded)
}

func TestNormalizeInvalidUTF8IsReplaced(t *testing.T) {
	res := Normalize(engine.Outcome{Status: engine.Success, Stdout: []byte("name\xffx")}, engine.FreeText)
	assert.Equal(t, "name\uFFFDx", res.RawOutput)
}

func TestNormalizeTimedOut(t *testing.T) {
	out := engine.Outcome{Status: engine.TimedOut, Timeout: 300 * time.Second, Err: errors.New("command timed out after 5m0s")}
	res := Normalize(out, engine.StructuredJSON)

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, engine.ErrorTimedOut, res.Error.Kind)
	assert.Equal(t, "command timed out after 5m0s", res.Error.Message)
	assert.Empty(t, res.Records)
}

func TestNormalizeCanceledKeepsCause(t *testing.T) {
	out := engine.Outcome{
		Status:  engine.TimedOut,
		Timeout: 300 * time.Second,
		Err:     fmt.Errorf("%w: %w", engine.ErrCanceled, context.Canceled),
	}
	res := Normalize(out, engine.StructuredJSON)

	require.NotNil(t, res.Error)
	assert.Equal(t, engine.ErrorTimedOut, res.Error.Kind)
	assert.Equal(t, "command canceled: context canceled", res.Error.Message)
}

func TestNormalizeTimeoutMentioningCancelIsStillTimeout(t *testing.T) {
	out := engine.Outcome{Status: engine.TimedOut, Timeout: time.Minute, Err: errors.New("job canceled upstream")}
	res := Normalize(out, engine.FreeText)

	require.NotNil(t, res.Error)
	assert.Equal(t, "command timed out after 1m0s", res.Error.Message)
}

func TestNormalizeSpawnFailed(t *testing.T) {
	out := engine.Outcome{
		Status: engine.SpawnFailed,
		Stderr: []byte("fork/exec /toolkit/python27/python.exe: no such file or directory"),
		Err:    errors.New("failed to start /toolkit/python27/python.exe: no such file or directory"),
	}
	res := Normalize(out, engine.DelimitedText)

	assert.False(t, res.Success)
	assert.Equal(t, engine.SpawnFailed, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, engine.ErrorSpawnFailed, res.Error.Kind)
	assert.NotEmpty(t, res.Error.Message)
}

func TestNormalizeNonZeroExitKeepsPartialRecords(t *testing.T) {
	out := engine.Outcome{
		Status:   engine.NonZeroExit,
		ExitCode: 1,
		Stdout:   []byte("PID,Name\n4,System\n"),
		Stderr:   []byte("ERROR   : volatility.debug    : Invalid profile Win10x64 selected\n"),
	}
	res := Normalize(out, engine.DelimitedText)

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, engine.ErrorNonZeroExit, res.Error.Kind)
	assert.True(t, strings.HasPrefix(res.Error.Message, "exit status 1: ERROR"))
	assert.Len(t, res.Records, 1)
}

func TestTailTruncatesLongStderr(t *testing.T) {
	long := strings.Repeat("x", 2000)
	got := tail(long, 100)
	assert.Equal(t, "..."+strings.Repeat("x", 100), got)
	assert.Equal(t, "short", tail("short", 100))
}
