package sessions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/m00que/Memforensics-MCP/internal/domain/session"
)

const unknown = "Unknown"

// ImageInfo summarizes a memory image and the session opened on it.
type ImageInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SizeBytes   int64  `json:"size_bytes"`
	SizeHuman   string `json:"size_human"`
	Build       string `json:"build"`
	MemoryModel string `json:"memory_model"`
}

// Info acquires (or reuses) the session for path and describes the image.
func (c *Cache) Info(ctx context.Context, path string) (ImageInfo, error) {
	sess, err := c.Acquire(ctx, path, false)
	if err != nil {
		return ImageInfo{}, err
	}
	key, err := Canonicalize(path)
	if err != nil {
		return ImageInfo{}, err
	}
	st, err := os.Stat(key)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}

	info := ImageInfo{
		Name:        filepath.Base(key),
		Path:        key,
		SizeBytes:   st.Size(),
		SizeHuman:   humanize.IBytes(uint64(st.Size())),
		Build:       unknown,
		MemoryModel: unknown,
	}
	if d, ok := sess.(session.Describer); ok {
		if b := d.Build(); b != "" {
			info.Build = b
		}
		if m := d.MemoryModel(); m != "" {
			info.MemoryModel = m
		}
	}
	return info, nil
}
