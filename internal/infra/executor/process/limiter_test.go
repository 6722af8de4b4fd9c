package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterNeverBlocks(t *testing.T) {
	l := NewLimiter(0)
	assert.Nil(t, l)
	require.NoError(t, l.Acquire(context.Background()))
	l.Release()
	assert.Equal(t, 0, l.InUse())
	assert.Equal(t, 0, l.Capacity())
}

func TestLimiterBlocksAtCapacity(t *testing.T) {
	l := NewLimiter(2)
	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 2, l.InUse())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)

	l.Release()
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 2, l.Capacity())
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "PYTHONPATH=/old", "HOME=/root"}
	merged := MergeEnv(base, map[string]string{"PYTHONPATH": "/tk/volatility3", "PYTHONIOENCODING": "utf-8"})

	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/root",
		"PYTHONIOENCODING=utf-8",
		"PYTHONPATH=/tk/volatility3",
	}, merged)
}
