// Package native provides the default session opener: a read-only handle on the
// raw image file. Format-aware openers can be plugged in through session.Opener.
package native

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/m00que/Memforensics-MCP/internal/domain/session"
)

// ImageSession is an open, read-only memory image.
type ImageSession struct {
	path string
	size int64

	mu sync.Mutex
	f  *os.File
}

// ImageOpener opens images as ImageSessions.
type ImageOpener struct{}

func (ImageOpener) Open(ctx context.Context, path string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &ImageSession{path: path, size: st.Size(), f: f}, nil
}

func (s *ImageSession) Path() string { return s.path }
func (s *ImageSession) Size() int64  { return s.size }

// ReadAt reads from the image at a physical offset.
func (s *ImageSession) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	f := s.f
	s.mu.Unlock()
	if f == nil {
		return 0, os.ErrClosed
	}
	return f.ReadAt(p, off)
}

// Close is safe to call more than once.
func (s *ImageSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
