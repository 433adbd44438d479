package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytaudio/tubetune/internal/logger"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "cache"), logger.NewTestLogger())
	require.NoError(t, err)
	return d
}

func writeEntry(t *testing.T, d *Dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(d.Path(id), []byte(content), 0o644))
}

func TestNewCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	d, err := New(root, logger.NewTestLogger())
	require.NoError(t, err)

	info, err := os.Stat(d.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPath(t *testing.T) {
	d := newTestDir(t)
	assert.Equal(t, filepath.Join(d.Root(), "abc123.mp3"), d.Path("abc123"))
}

func TestHas(t *testing.T) {
	d := newTestDir(t)

	assert.False(t, d.Has("abc"))

	writeEntry(t, d, "abc", "audio data")
	assert.True(t, d.Has("abc"))

	// An empty file does not count as cached.
	writeEntry(t, d, "empty", "")
	assert.False(t, d.Has("empty"))
}

func TestScan(t *testing.T) {
	d := newTestDir(t)

	writeEntry(t, d, "bbb", "data")
	writeEntry(t, d, "aaa", "data")
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "notes.txt"), []byte("x"), 0o644))

	tracks := d.Scan()
	require.Len(t, tracks, 2)
	assert.Equal(t, "aaa", tracks[0].ID)
	assert.Equal(t, "bbb", tracks[1].ID)

	// Without a readable tag, the title falls back to the id.
	assert.Equal(t, "aaa", tracks[0].Title)
	assert.Equal(t, d.Path("aaa"), tracks[0].Path)
}

func TestScanEmpty(t *testing.T) {
	d := newTestDir(t)
	assert.Empty(t, d.Scan())
}

func TestPurge(t *testing.T) {
	d := newTestDir(t)

	writeEntry(t, d, "keep", "data")
	writeEntry(t, d, "drop1", "data")
	writeEntry(t, d, "drop2", "data")

	d.Purge("keep")

	assert.True(t, d.Has("keep"))
	assert.False(t, d.Has("drop1"))
	assert.False(t, d.Has("drop2"))
}

func TestPurgeKeepsNothingByDefault(t *testing.T) {
	d := newTestDir(t)

	writeEntry(t, d, "a", "data")
	writeEntry(t, d, "b", "data")

	d.Purge()

	assert.Empty(t, d.Scan())
}
