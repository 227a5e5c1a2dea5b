// Package single makes sure only one nosleep runs per user session.
package single

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned by Acquire when another process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Guard holds the instance lock until Release.
type Guard struct {
	lock    *flock.Flock
	pidFile string
	once    sync.Once
}

// Acquire takes the per-user instance lock for name in the temp directory.
func Acquire(name string) (*Guard, error) {
	return AcquireIn(os.TempDir(), name)
}

// AcquireIn is Acquire with an explicit lock directory.
func AcquireIn(dir, name string) (*Guard, error) {
	if name == "" {
		return nil, errors.New("instance name is required")
	}
	file := filepath.Join(dir, name+"-"+userTag())

	fileLock := flock.New(file + ".lock")
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire lock")
	} else if !locked {
		return nil, ErrAlreadyRunning
	}

	// the pid marker is informational only; the lock is what counts
	if err := os.WriteFile(file+".pid", []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		_ = fileLock.Unlock()
		return nil, errors.Wrap(err, "write pid file")
	}

	return &Guard{lock: fileLock, pidFile: file + ".pid"}, nil
}

// Path returns the lock file path.
func (g *Guard) Path() string {
	return g.lock.Path()
}

// Release drops the lock. It is safe to call more than once.
func (g *Guard) Release() error {
	var err error
	g.once.Do(func() {
		_ = os.Remove(g.pidFile)
		err = g.lock.Unlock()
	})
	return err
}

// ReadPID returns the pid recorded by the current holder of name's lock.
func ReadPID(dir, name string) (int, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name+"-"+userTag()+".pid"))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, errors.Wrap(err, "parse pid file")
	}
	return pid, nil
}

func userTag() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return strconv.Itoa(os.Getuid())
}
