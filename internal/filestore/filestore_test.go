package filestore

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirReadWrite(t *testing.T) {
	dir := t.TempDir()
	store := Dir(dir)

	require.NoError(t, store.WriteFile("report.txt", []byte("first version")))
	data, err := store.ReadFile("report.txt")
	require.NoError(t, err)
	assert.Equal(t, "first version", string(data))

	// Test: Overwrite truncates
	require.NoError(t, store.WriteFile("report.txt", []byte("v2")))
	data, err = store.ReadFile("report.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(onDisk))
}

func TestDirMissing(t *testing.T) {
	store := Dir(t.TempDir())

	_, err := store.ReadFile("missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)

	err = store.WriteFile(filepath.Join("no-such-dir", "x"), []byte("x"))
	require.Error(t, err)
}

func TestDirEmptyFile(t *testing.T) {
	store := Dir(t.TempDir())

	require.NoError(t, store.WriteFile("empty", nil))
	data, err := store.ReadFile("empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}
