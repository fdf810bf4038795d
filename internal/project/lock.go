package project

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrSessionActive indicates another process already holds the editing
// session for this project directory.
var ErrSessionActive = errors.New("another editing session is already active")

// SessionLock enforces single-writer editing sessions on a project
// directory via an advisory file lock.
type SessionLock struct {
	path string
	lock *flock.Flock
	held bool
}

// NewSessionLock prepares a lock at the given path without acquiring it.
func NewSessionLock(path string) *SessionLock {
	return &SessionLock{path: path, lock: flock.New(path)}
}

// Path returns the lock file location.
func (l *SessionLock) Path() string { return l.path }

// Acquire takes the lock without blocking. A held lock elsewhere returns
// ErrSessionActive.
func (l *SessionLock) Acquire() error {
	if l.held {
		return nil
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrSessionActive, l.path)
	}
	l.held = true
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *SessionLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}
