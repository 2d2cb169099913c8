package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireInstanceLock(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")

	lock, err := AcquireInstanceLock(dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, InstanceLockName))

	// A second holder on the same destination is rejected.
	_, err = AcquireInstanceLock(dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, lock.Unlock())

	again, err := AcquireInstanceLock(dest)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestAtomicWrite(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "xml", "Acme 2024.xml")
		require.NoError(t, AtomicWrite(path, []byte("<sample/>")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<sample/>", string(data))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0644))
		require.NoError(t, AtomicWrite(path, []byte("new")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, AtomicWrite(filepath.Join(dir, "a.xml"), []byte("a")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left: %s", e.Name())
		}
	})
}

func TestAtomicCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 body"), 0644))

	dst := filepath.Join(dir, "out", "Acme-01 2024-03-12.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, os.WriteFile(dst, []byte("stale"), 0644))

	require.NoError(t, AtomicCopy(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	t.Run("missing source", func(t *testing.T) {
		err := AtomicCopy(filepath.Join(dir, "missing.pdf"), filepath.Join(dir, "x.pdf"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.NoFileExists(t, filepath.Join(dir, "x.pdf"))
	})
}
