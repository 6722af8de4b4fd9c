package session

import "context"

// Session is a live handle into an opened memory image. The cache that hands
// it out owns its lifecycle; callers must not Close it themselves.
type Session interface {
	Close() error
}

// Describer is implemented by sessions that can report kernel details.
type Describer interface {
	Build() string
	MemoryModel() string
}

// Opener port (the native session-opening primitive)
type Opener interface {
	Open(ctx context.Context, path string) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, path string) (Session, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (Session, error) { return f(ctx, path) }
