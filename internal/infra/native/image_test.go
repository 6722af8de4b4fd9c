package native

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageOpenerReadsAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.raw")
	require.NoError(t, os.WriteFile(path, []byte("PAGEDU64rest-of-header"), 0o600))

	sess, err := ImageOpener{}.Open(context.Background(), path)
	require.NoError(t, err)
	img := sess.(*ImageSession)
	assert.Equal(t, int64(22), img.Size())
	assert.Equal(t, path, img.Path())

	buf := make([]byte, 8)
	n, err := img.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "PAGEDU64", string(buf[:n]))

	require.NoError(t, img.Close())
	require.NoError(t, img.Close())
	_, err = img.ReadAt(buf, 0)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestImageOpenerRejectsDirectory(t *testing.T) {
	_, err := ImageOpener{}.Open(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestImageOpenerMissingFile(t *testing.T) {
	_, err := ImageOpener{}.Open(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
