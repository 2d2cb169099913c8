// Package filelock provides the destination-tree instance lock and the atomic
// write/copy primitives used to publish routed artifacts.
package filelock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLockName is the lock file created in the destination root.
const InstanceLockName = ".chrouter.lock"

// ErrLocked is returned when another process already holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock wraps a flock file lock.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// TryLock attempts to acquire an exclusive lock without blocking.
// Returns true if the lock was acquired.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AcquireInstanceLock takes the single-instance lock for a destination tree.
// Two routers writing the same destination would race on identical output
// names, so a held lock is reported as ErrLocked.
func AcquireInstanceLock(destRoot string) (*FileLock, error) {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination %s: %w", destRoot, err)
	}

	lock := NewFileLock(filepath.Join(destRoot, InstanceLockName))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%s: %w", lock.Path(), ErrLocked)
	}
	return lock, nil
}

// AtomicWrite writes data to path through a temp file in the same directory
// followed by a rename, so readers never observe a partial file. An existing
// file at path is replaced.
func AtomicWrite(path string, data []byte) error {
	return atomicReplace(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// AtomicCopy copies src to dst with the same replace-by-rename semantics as
// AtomicWrite. An existing dst is overwritten.
func AtomicCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	return atomicReplace(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// atomicReplace streams content into a temp file next to path and renames it
// into place. The temp file is removed on any failure.
func atomicReplace(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := fill(tempFile); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
