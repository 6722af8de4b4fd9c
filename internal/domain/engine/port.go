package engine

import (
	"context"
	"time"
)

// Builder port (turns a Request into an Invocation)
type Builder interface {
	Build(req Request) (Invocation, error)
}

// Runner port (spawns an Invocation and reports the Outcome)
type Runner interface {
	Run(ctx context.Context, inv Invocation, timeout time.Duration) Outcome
}

// ArtifactStore port (mirrors persisted output somewhere durable)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
