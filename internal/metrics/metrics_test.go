package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCounters(t *testing.T) {
	m := New()

	m.RunStarted()
	m.RunStarted()
	m.RunStarted()
	m.RunFinished(true, false, false)
	m.RunFinished(false, true, false)

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap["runs_total"])
	assert.Equal(t, uint64(1), snap["runs_running"])
	assert.Equal(t, uint64(1), snap["runs_succeeded"])
	assert.Equal(t, uint64(1), snap["runs_failed"])
	assert.Equal(t, uint64(1), snap["runs_timed_out"])
	assert.Equal(t, uint64(0), snap["runs_spawn_failed"])
}

func TestSessionCounters(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionEvicted()
	m.SessionCloseFailed()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap["sessions_opened"])
	assert.Equal(t, uint64(1), snap["sessions_evicted"])
	assert.Equal(t, uint64(1), snap["session_close_failed"])
	assert.Contains(t, snap, "uptime_seconds")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RunStarted()
		m.RunFinished(false, false, true)
		m.SessionOpened()
		m.SessionEvicted()
		m.SessionCloseFailed()
	})
}
