package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/m00que/Memforensics-MCP/internal/application"
	"github.com/m00que/Memforensics-MCP/internal/application/engines"
	"github.com/m00que/Memforensics-MCP/internal/application/sessions"
	"github.com/m00que/Memforensics-MCP/internal/config"
	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
	"github.com/m00que/Memforensics-MCP/internal/infra/builder"
	mysqlp "github.com/m00que/Memforensics-MCP/internal/infra/db/mysql"
	"github.com/m00que/Memforensics-MCP/internal/infra/db/postgres"
	"github.com/m00que/Memforensics-MCP/internal/infra/db/sqlite"
	"github.com/m00que/Memforensics-MCP/internal/infra/executor/process"
	"github.com/m00que/Memforensics-MCP/internal/infra/native"
	minioStore "github.com/m00que/Memforensics-MCP/internal/infra/storage"
	"github.com/m00que/Memforensics-MCP/internal/logging"
	"github.com/m00que/Memforensics-MCP/internal/metrics"
)

// app is the wired object graph shared by subcommands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	builder builder.Builder
	svc     *engines.Service
	cache   *sessions.Cache

	db      *sql.DB
	history runs.Repository
	store   *minioStore.Store
}

type backends int

const (
	noBackends backends = iota
	withBackends
)

// newApp loads config and wires the service. Backends (history database,
// artifact store) are only connected when asked for.
func newApp(ctx context.Context, b backends) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	a.builder = builder.Builder{
		Legacy: builder.LegacyToolchain{
			Interpreter: cfg.Legacy.Interpreter,
			Script:      cfg.Legacy.Script,
			PluginDirs:  cfg.Legacy.PluginDirs,
		},
		Modern: builder.ModernToolchain{
			Interpreter: cfg.Modern.Interpreter,
			Script:      cfg.Modern.Script,
			Root:        cfg.Modern.Root,
		},
	}
	runner := process.NewRunner(
		process.WithLimiter(process.NewLimiter(cfg.Runner.MaxConcurrent)),
		process.WithWaitDelay(cfg.Runner.WaitDelay.Std()),
		process.WithLogger(log),
	)
	a.svc = &engines.Service{
		Builder:   a.builder,
		Runner:    runner,
		Clock:     application.SystemClock{},
		Metrics:   a.metrics,
		Log:       log,
		OutputDir: cfg.Output.Dir,
		Timeouts: engines.Timeouts{
			Run:  cfg.Timeouts.Run.Std(),
			File: cfg.Timeouts.File.Std(),
			Dump: cfg.Timeouts.Dump.Std(),
			Help: cfg.Timeouts.Help.Std(),
		},
	}
	a.cache = sessions.New(native.ImageOpener{},
		sessions.WithTTL(cfg.Sessions.TTL.Std()),
		sessions.WithLogger(log),
		sessions.WithMetrics(a.metrics),
	)

	if b == withBackends {
		if err := a.connect(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	db, repo, err := openHistory(ctx, a.cfg.History.Driver, a.cfg.History.DSN)
	if err != nil {
		return fmt.Errorf("%s connect error: %w", a.cfg.History.Driver, err)
	}
	if repo != nil {
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return fmt.Errorf("history schema: %w", err)
		}
		a.db, a.history = db, repo
		a.svc.History = repo
	}

	if m := a.cfg.Minio; m.Enabled {
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:  m.Endpoint,
			Region:    m.Region,
			Bucket:    m.BucketName,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			UseSSL:    m.UseSSL,
		})
		if err != nil {
			// mirroring is optional; runs still write locally
			a.log.Warn("minio init error, artifacts will not be mirrored", "endpoint", m.Endpoint, "error", err)
		} else {
			a.store = store
			a.svc.Artifacts = store
		}
	}
	return nil
}

func openHistory(ctx context.Context, driver, dsn string) (*sql.DB, runs.Repository, error) {
	switch driver {
	case "":
		return nil, nil, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewRunRepository(db), nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, mysqlp.NewRunRepository(db), nil
	case "postgres":
		db, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, postgres.NewRunRepository(db), nil
	}
	return nil, nil, fmt.Errorf("unknown history driver %q", driver)
}

// Close releases cached sessions and the history database.
func (a *app) Close() {
	a.cache.EvictAll()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("closing history database", "error", err)
		}
	}
}
