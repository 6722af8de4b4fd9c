// Package metrics keeps in-process counters for engine runs and sessions.
package metrics

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores run and session counters. The zero value is not usable; call New.
type Metrics struct {
	RunsTotal         uint64
	RunsRunning       uint64
	RunsSucceeded     uint64
	RunsFailed        uint64
	RunsTimedOut      uint64
	RunsSpawnFailed   uint64
	SessionsOpened    uint64
	SessionsEvicted   uint64
	SessionCloseFails uint64
	StartTime         time.Time
}

func New() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// RunStarted increments total and running counters
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.RunsTotal, 1)
	atomic.AddUint64(&m.RunsRunning, 1)
}

// RunFinished decrements the running counter and records the outcome class.
func (m *Metrics) RunFinished(succeeded, timedOut, spawnFailed bool) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.RunsRunning, ^uint64(0))
	switch {
	case succeeded:
		atomic.AddUint64(&m.RunsSucceeded, 1)
	case timedOut:
		atomic.AddUint64(&m.RunsFailed, 1)
		atomic.AddUint64(&m.RunsTimedOut, 1)
	case spawnFailed:
		atomic.AddUint64(&m.RunsFailed, 1)
		atomic.AddUint64(&m.RunsSpawnFailed, 1)
	default:
		atomic.AddUint64(&m.RunsFailed, 1)
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		atomic.AddUint64(&m.SessionsOpened, 1)
	}
}

func (m *Metrics) SessionEvicted() {
	if m != nil {
		atomic.AddUint64(&m.SessionsEvicted, 1)
	}
}

func (m *Metrics) SessionCloseFailed() {
	if m != nil {
		atomic.AddUint64(&m.SessionCloseFails, 1)
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]interface{} {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return map[string]interface{}{
		"runs_total":           atomic.LoadUint64(&m.RunsTotal),
		"runs_running":         atomic.LoadUint64(&m.RunsRunning),
		"runs_succeeded":       atomic.LoadUint64(&m.RunsSucceeded),
		"runs_failed":          atomic.LoadUint64(&m.RunsFailed),
		"runs_timed_out":       atomic.LoadUint64(&m.RunsTimedOut),
		"runs_spawn_failed":    atomic.LoadUint64(&m.RunsSpawnFailed),
		"sessions_opened":      atomic.LoadUint64(&m.SessionsOpened),
		"sessions_evicted":     atomic.LoadUint64(&m.SessionsEvicted),
		"session_close_failed": atomic.LoadUint64(&m.SessionCloseFails),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       ms.Alloc,
			"total_alloc_bytes": ms.TotalAlloc,
			"sys_bytes":         ms.Sys,
			"num_gc":            ms.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}
