// Package sessions keeps expensive native analysis sessions alive across calls,
// with at most one live session per canonical image path.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m00que/Memforensics-MCP/internal/application"
	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/domain/session"
	"github.com/m00que/Memforensics-MCP/internal/logging"
	"github.com/m00que/Memforensics-MCP/internal/metrics"
)

// DefaultTTL is how long a session is reused before it is reopened.
const DefaultTTL = time.Hour

// Entry is a cached session bound to a canonical image path.
type Entry struct {
	Key      string
	Session  session.Session
	LoadedAt time.Time
}

// slot serializes open/replace/close for a single key. A dead slot has been
// removed from the index and must not be populated again.
type slot struct {
	mu    sync.Mutex
	entry *Entry
	dead  bool
}

// Cache is safe for concurrent use.
type Cache struct {
	opener  session.Opener
	clock   application.Clock
	ttl     time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex // guards slots only; never held while a slot is locked
	slots map[string]*slot
}

// Option configures a Cache.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(clock application.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = logging.OrDiscard(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(opener session.Opener, opts ...Option) *Cache {
	c := &Cache{
		opener: opener,
		clock:  application.SystemClock{},
		ttl:    DefaultTTL,
		log:    logging.Discard(),
		slots:  make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Canonicalize returns the absolute, cleaned form of path used as cache key.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

// Acquire returns the live session for path, opening one when none is cached,
// the cached one has expired, or forceReload is set. Concurrent callers for the
// same path share one session.
func (c *Cache) Acquire(ctx context.Context, path string, forceReload bool) (session.Session, error) {
	key, err := Canonicalize(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: memory image %s", engine.ErrResourceNotFound, key)
		}
		return nil, fmt.Errorf("%w: memory image %s: %v", engine.ErrResourceNotFound, key, err)
	}

	for {
		s := c.slotFor(key)
		s.mu.Lock()
		if s.dead {
			// evicted between lookup and lock; take the fresh slot
			s.mu.Unlock()
			continue
		}
		sess, err := c.acquireLocked(ctx, s, key, forceReload)
		s.mu.Unlock()
		return sess, err
	}
}

func (c *Cache) acquireLocked(ctx context.Context, s *slot, key string, forceReload bool) (session.Session, error) {
	if s.entry != nil && !forceReload && application.Since(c.clock, s.entry.LoadedAt) < c.ttl {
		return s.entry.Session, nil
	}

	sess, err := c.opener.Open(ctx, key)
	if err != nil {
		c.log.Error("session open failed", "path", key, "error", err)
		return nil, fmt.Errorf("%w: memory image %s: %v", engine.ErrLoadFailure, key, err)
	}
	c.metrics.SessionOpened()

	if s.entry != nil {
		reason := "expired"
		if forceReload {
			reason = "reload"
		}
		c.closeEntry(s.entry, reason)
	}
	s.entry = &Entry{Key: key, Session: sess, LoadedAt: c.clock.Now()}
	c.log.Debug("session opened", "path", key)
	return sess, nil
}

// Evict closes and removes the session for path. Unknown paths are a no-op.
func (c *Cache) Evict(path string) {
	key, err := Canonicalize(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	s := c.slots[key]
	c.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.mu.Lock()
	if c.slots[key] == s {
		delete(c.slots, key)
	}
	c.mu.Unlock()
	s.dead = true
	if s.entry != nil {
		c.closeEntry(s.entry, "evicted")
		s.entry = nil
		c.metrics.SessionEvicted()
	}
}

// EvictAll closes every cached session and empties the cache.
func (c *Cache) EvictAll() {
	c.mu.Lock()
	old := make(map[string]*slot, len(c.slots))
	for key, s := range c.slots {
		old[key] = s
	}
	c.mu.Unlock()

	for key, s := range old {
		// the slot stays indexed until its lock is held, so an in-flight
		// Acquire finishes before anyone can open a second session
		s.mu.Lock()
		c.mu.Lock()
		if c.slots[key] == s {
			delete(c.slots, key)
		}
		c.mu.Unlock()
		s.dead = true
		if s.entry != nil {
			c.closeEntry(s.entry, "evicted")
			s.entry = nil
			c.metrics.SessionEvicted()
		}
		s.mu.Unlock()
	}
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	snapshot := make([]*slot, 0, len(c.slots))
	for _, s := range c.slots {
		snapshot = append(snapshot, s)
	}
	c.mu.Unlock()

	n := 0
	for _, s := range snapshot {
		s.mu.Lock()
		if s.entry != nil && !s.dead {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

func (c *Cache) slotFor(key string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		s = &slot{}
		c.slots[key] = s
	}
	return s
}

// closeEntry releases a session. Close failures are logged and counted but never
// stop the entry from leaving the cache.
func (c *Cache) closeEntry(e *Entry, reason string) {
	if err := e.Session.Close(); err != nil {
		c.metrics.SessionCloseFailed()
		c.log.Warn("session close failed", "path", e.Key, "reason", reason, "error", err)
		return
	}
	c.log.Debug("session closed", "path", e.Key, "reason", reason)
}
