package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickOutputSelectsLargestFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.f137.mp4"), []byte("frag"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("full merged output"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	name, size, err := pickOutput(dir)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", name)
	assert.Equal(t, int64(len("full merged output")), size)
}

func TestPickOutputEmptyDir(t *testing.T) {
	_, _, err := pickOutput(t.TempDir())
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestDiscardRemovesDirAndIsIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "anydl-test-*")
	require.NoError(t, err)
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	r := &Result{Path: path, FileName: "clip.mp4", Size: 1, Dir: dir}
	r.Discard()

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// Second call must be a no-op.
	r.Discard()
}
