// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrLocked is returned when another invocation holds the lock.
	ErrLocked = errors.New("lock is held by another process")

	// ErrInvalidPID is returned when the lock file contains invalid data.
	ErrInvalidPID = errors.New("invalid PID in lock file")

	// ErrStaleHolder is returned when the PID in the lock file is not running.
	ErrStaleHolder = errors.New("lock holder is not running")

	// ErrUnsafeDirectory is returned when the lock file parent is world-writable.
	ErrUnsafeDirectory = errors.New("lock file directory is world-writable")
)

// FileLock serializes lifecycle operations across concurrent invocations
// using an exclusive flock on a well-known file. The holder's PID is written
// into the file for diagnostics.
//
// The file itself is never removed; only the flock conveys ownership.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock acquires the lock without blocking.
// Returns ErrLocked if another process holds it.
func (l *FileLock) TryLock() error {
	if l.file != nil {
		return nil
	}

	parentDir := filepath.Dir(l.path)
	if err := verifyDirectorySafety(parentDir); err != nil {
		return fmt.Errorf("unsafe lock file location: %w", err)
	}
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	// O_NOFOLLOW refuses a symlink planted at the lock path
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|unix.O_NOFOLLOW, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	l.file = f
	return nil
}

// Lock acquires the lock, polling until timeout elapses.
func (l *FileLock) Lock(ctx context.Context, timeout time.Duration) error {
	err := NewPoller().WaitFor(ctx, timeout, func(context.Context) (bool, error) {
		err := l.TryLock()
		if errors.Is(err, ErrLocked) {
			return false, nil
		}
		return err == nil, err
	})
	if errors.Is(err, ErrWaitTimeout) {
		return fmt.Errorf("%w (%s)", ErrLocked, l.path)
	}
	return err
}

// Unlock releases the lock. It is safe to call when the lock is not held.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	_ = l.file.Truncate(0)
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return closeErr
}

// Holder returns the PID recorded by the current holder.
// Returns ErrInvalidPID if the file is empty or holds non-numeric data.
func (l *FileLock) Holder() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, pidStr)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: PID must be positive, got %d", ErrInvalidPID, pid)
	}

	if !IsProcessRunning(pid) {
		return 0, fmt.Errorf("%w: pid %d", ErrStaleHolder, pid)
	}

	return pid, nil
}

// verifyDirectorySafety checks that the directory is not world-writable.
func verifyDirectorySafety(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		// Directory doesn't exist yet - that's fine, we'll create it
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	mode := info.Mode()
	if mode&0o002 != 0 && mode&os.ModeSticky == 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrUnsafeDirectory, dir, mode&os.ModePerm)
	}

	return nil
}
