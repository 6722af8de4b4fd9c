package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
)

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `host\_01\%\\x`, escapeLikePattern(`host_01%\x`))
}

func TestWhereClause(t *testing.T) {
	where, args := whereClause(runs.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = whereClause(runs.Filter{Engine: "legacy", Status: "success", Image: "case_7"})
	assert.Equal(t, "\nWHERE engine = ? AND status = ? AND image_path LIKE ?", where)
	assert.Equal(t, []any{"legacy", "success", `%case\_7%`}, args)
}

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "pslist", stringOrDash("pslist"))
}
