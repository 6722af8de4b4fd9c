package runs

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, id RunID) (*Run, error)
	Latest(ctx context.Context, limit int) ([]*Run, error)
	Summary(ctx context.Context, since time.Time) (Summary, error)
	Paginate(ctx context.Context, page, pageSize int, f Filter) (PaginatedResult, error)
}
