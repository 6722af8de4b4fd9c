// Package engines runs analysis plugins through the external CLI engines and
// hands every caller a normalized Result.
package engines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m00que/Memforensics-MCP/internal/application"
	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
	"github.com/m00que/Memforensics-MCP/internal/infra/normalize"
	"github.com/m00que/Memforensics-MCP/internal/logging"
	"github.com/m00que/Memforensics-MCP/internal/metrics"
	"github.com/m00que/Memforensics-MCP/internal/validate"
)

// Timeouts per run mode. Zero fields fall back to DefaultTimeouts.
type Timeouts struct {
	Run  time.Duration
	File time.Duration
	Dump time.Duration
	Help time.Duration
}

// DefaultTimeouts returns the stock per-mode deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Run:  300 * time.Second,
		File: 600 * time.Second,
		Dump: 600 * time.Second,
		Help: 30 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Run <= 0 {
		t.Run = d.Run
	}
	if t.File <= 0 {
		t.File = d.File
	}
	if t.Dump <= 0 {
		t.Dump = d.Dump
	}
	if t.Help <= 0 {
		t.Help = d.Help
	}
	return t
}

// HelpBuilder is implemented by builders that can produce the modern engine's
// help invocation.
type HelpBuilder interface {
	Help() engine.Invocation
}

// Service implements the engine use-cases.
// Service is safe for concurrent use once its fields are set.
type Service struct {
	Builder engine.Builder
	Runner  engine.Runner
	Clock   application.Clock
	Metrics *metrics.Metrics
	Log     *slog.Logger

	// OutputDir receives default output files and dump directories.
	OutputDir string
	Timeouts  Timeouts

	// optional
	History   runs.Repository
	Artifacts engine.ArtifactStore

	// NewID overrides RunID generation (tests).
	NewID func() string

	profileMu sync.Mutex
	profiles  map[string]string
}

// Run executes one plugin and normalizes its output. It never returns an
// error: every failure is carried inside the Result.
func (s *Service) Run(ctx context.Context, req engine.Request) engine.Result {
	res, _ := s.execute(ctx, req, s.timeouts().Run)
	s.record(ctx, req, res, runs.Run{})
	return res
}

func (s *Service) execute(ctx context.Context, req engine.Request, fallback time.Duration) (engine.Result, engine.Outcome) {
	id := s.newID()
	if rerr := checkRequest(req); rerr != nil {
		res := engine.Fail(req, rerr.Kind, rerr.Message)
		res.RunID = id
		return res, engine.Outcome{}
	}

	inv, err := s.Builder.Build(req)
	if err != nil {
		res := engine.Fail(req, engine.ErrorUnsupportedEngine, err.Error())
		res.RunID = id
		return res, engine.Outcome{}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = fallback
	}
	mode := req.EffectiveMode()
	log := s.log().With("run_id", id, "engine", req.Kind, "plugin", req.Plugin)
	log.Debug("engine run starting", "args", inv.Args, "dir", inv.Dir, "timeout", timeout)

	s.Metrics.RunStarted()
	out := s.Runner.Run(ctx, inv, timeout)
	s.Metrics.RunFinished(out.Status == engine.Success, out.Status == engine.TimedOut, out.Status == engine.SpawnFailed)

	res := normalize.Normalize(out, mode)
	res.RunID = id
	res.Kind = req.Kind
	res.Plugin = req.Plugin
	res.Command = inv.Args

	attrs := []any{"status", out.Status, "exit_code", out.ExitCode, "records", len(res.Records), "wall_time", out.WallTime}
	switch {
	case res.Success && res.ParseDegraded:
		log.Warn("engine output did not match the expected shape", append(attrs, "mode", mode)...)
	case res.Success:
		log.Info("engine run finished", attrs...)
	default:
		log.Warn("engine run failed", append(attrs, "error", res.Error.Message)...)
	}
	return res, out
}

// checkRequest validates what the builders cannot: engine kind, plugin token,
// extra arguments and the image itself.
func checkRequest(req engine.Request) *engine.ResultError {
	switch {
	case req.Kind == engine.NativeSession:
		return &engine.ResultError{Kind: engine.ErrorUnsupportedEngine, Message: "engine native runs in-process; acquire a session instead"}
	case !req.Kind.Valid():
		return &engine.ResultError{Kind: engine.ErrorUnsupportedEngine, Message: fmt.Sprintf("unsupported engine: %q", req.Kind)}
	}
	if req.Mode != "" {
		if _, err := engine.ParseOutputMode(string(req.Mode)); err != nil {
			return &engine.ResultError{Kind: engine.ErrorInvalidRequest, Message: err.Error()}
		}
	}
	for _, err := range []error{
		validate.Plugin(req.Plugin),
		validate.ExtraArgs(req.ExtraArgs),
		validate.Profile(req.Profile),
		validate.Path(req.ImagePath),
	} {
		if err != nil {
			return &engine.ResultError{Kind: engine.ErrorInvalidRequest, Message: err.Error()}
		}
	}
	st, err := os.Stat(req.ImagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &engine.ResultError{Kind: engine.ErrorInvalidRequest, Message: fmt.Sprintf("%v: %s", engine.ErrResourceNotFound, req.ImagePath)}
		}
		return &engine.ResultError{Kind: engine.ErrorInvalidRequest, Message: err.Error()}
	}
	if st.IsDir() {
		return &engine.ResultError{Kind: engine.ErrorInvalidRequest, Message: fmt.Sprintf("%s is a directory, not a memory image", req.ImagePath)}
	}
	return nil
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() *slog.Logger { return logging.OrDiscard(s.Log) }

func (s *Service) timeouts() Timeouts { return s.Timeouts.withDefaults() }
