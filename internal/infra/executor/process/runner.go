// Package process spawns engine invocations as child processes, enforces a
// wall-clock timeout and classifies how each run ended.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/logging"
)

// DefaultWaitDelay bounds how long Wait keeps draining pipes after the child
// is gone (descendants that escaped the process group may still hold them).
const DefaultWaitDelay = 5 * time.Second

// Runner runs one attempt per call; it never retries.
type Runner struct {
	limiter   *Limiter
	waitDelay time.Duration
	log       *slog.Logger
}

type Option func(*Runner)

// WithLimiter bounds the number of concurrently running children.
func WithLimiter(l *Limiter) Option { return func(r *Runner) { r.limiter = l } }

func WithWaitDelay(d time.Duration) Option { return func(r *Runner) { r.waitDelay = d } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = logging.OrDiscard(l) } }

func NewRunner(opts ...Option) *Runner {
	r := &Runner{waitDelay: DefaultWaitDelay, log: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run spawns inv and waits for it to exit, for timeout to elapse, or for ctx to
// be done, whichever comes first. A timeout <= 0 disables the timer.
func (r *Runner) Run(ctx context.Context, inv engine.Invocation, timeout time.Duration) engine.Outcome {
	start := time.Now()
	out := engine.Outcome{Timeout: timeout, ExitCode: -1}

	if len(inv.Args) == 0 {
		return spawnFailed(out, start, errors.New("no command provided"))
	}
	if err := r.limiter.Acquire(ctx); err != nil {
		return spawnFailed(out, start, fmt.Errorf("waiting for runner slot: %w", err))
	}
	defer r.limiter.Release()

	cmd := exec.Command(inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), inv.Env)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.waitDelay
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		r.log.Warn("spawn failed", "command", inv.Args[0], "error", err)
		return spawnFailed(out, start, fmt.Errorf("failed to start %s: %w", inv.Args[0], err))
	}
	out.PID = cmd.Process.Pid
	r.log.Debug("spawned", "pid", out.PID, "args", strings.Join(inv.Args, " "), "dir", inv.Dir, "timeout", timeout)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case waitErr := <-done:
		classifyExit(&out, cmd, waitErr)
	case <-expired:
		killTree(cmd)
		<-done
		out.Status = engine.TimedOut
		out.Err = fmt.Errorf("command timed out after %s", timeout)
	case <-ctx.Done():
		killTree(cmd)
		<-done
		out.Status = engine.TimedOut
		out.Err = fmt.Errorf("%w: %w", engine.ErrCanceled, context.Cause(ctx))
	}

	out.Stdout = stdout.Bytes()
	out.Stderr = stderr.Bytes()
	out.WallTime = time.Since(start)
	r.log.Debug("finished", "pid", out.PID, "status", out.Status, "exit_code", out.ExitCode, "wall_time", out.WallTime)
	return out
}

func classifyExit(out *engine.Outcome, cmd *exec.Cmd, waitErr error) {
	if ps := cmd.ProcessState; ps != nil {
		out.ExitCode = ps.ExitCode()
		if ps.Success() {
			// ErrWaitDelay after a clean exit only means a descendant kept a pipe open
			out.Status = engine.Success
			return
		}
		out.Status = engine.NonZeroExit
		out.Err = waitErr
		return
	}
	out.Status = engine.NonZeroExit
	out.Err = waitErr
}

func spawnFailed(out engine.Outcome, start time.Time, err error) engine.Outcome {
	out.Status = engine.SpawnFailed
	out.Err = err
	out.Stderr = []byte(err.Error())
	out.WallTime = time.Since(start)
	return out
}

// MergeEnv applies overrides on top of a KEY=VALUE environment. Overridden keys
// are removed from base and re-appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
