package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "vol.py")
	require.NoError(t, os.WriteFile(file, []byte("#!/usr/bin/env python"), 0o644))
	ctx := context.Background()

	assert.NoError(t, FileChecker{Path: file}.Check(ctx))
	assert.NoError(t, FileChecker{Path: dir, Dir: true}.Check(ctx))
	assert.Error(t, FileChecker{Path: dir}.Check(ctx))
	assert.Error(t, FileChecker{Path: file, Dir: true}.Check(ctx))
	assert.Error(t, FileChecker{Path: filepath.Join(dir, "missing")}.Check(ctx))
	assert.Error(t, FileChecker{}.Check(ctx))
}

func TestRunAggregates(t *testing.T) {
	ok := CheckerFunc(func(context.Context) error { return nil })
	bad := CheckerFunc(func(context.Context) error { return errors.New("bucket unreachable") })

	r := Run(context.Background(), map[string]Checker{"legacy.script": ok})
	assert.True(t, r.Healthy())

	r = Run(context.Background(), map[string]Checker{"legacy.script": ok, "minio": bad})
	assert.False(t, r.Healthy())
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, CheckStatus{Status: StatusUnhealthy, Message: "bucket unreachable"}, r.Checks["minio"])
	assert.Equal(t, StatusHealthy, r.Checks["legacy.script"].Status)
	assert.Equal(t, []string{"legacy.script", "minio"}, r.Names())
}

func TestRunPassesDeadline(t *testing.T) {
	var hasDeadline bool
	Run(context.Background(), map[string]Checker{"x": CheckerFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})})
	assert.True(t, hasDeadline)
}
