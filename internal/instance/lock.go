package instance

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ErrLockUnavailable means another instance holds the lock.
var ErrLockUnavailable = errors.New("another instance is already running")

// Lock is the process-wide single-instance lock. It is released when the
// process exits even without Release.
type Lock struct {
	path string
	file *os.File
	once sync.Once
}

// Acquire takes the lock at path without blocking.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := tryLock(f); err != nil {
		f.Close()
		return nil, err
	}

	// Record the owner for diagnostics only.
	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{path: path, file: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	var err error
	l.once.Do(func() {
		if uerr := unlock(l.file); uerr != nil {
			err = fmt.Errorf("failed to unlock %s: %w", l.path, uerr)
		}
		if cerr := l.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}

// OwnerPID reads the PID recorded by the current holder, or 0.
func OwnerPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
