package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"docforge/internal/services"
)

const retryDelay = 25 * time.Millisecond

// Manager hands out named advisory locks backed by lock files in a shared
// directory. Locks are visible across independent OS processes: any process
// locking the same name contends on the same file.
type Manager struct {
	dir     string
	timeout time.Duration
}

// NewManager constructs a lock manager rooted at dir. timeout bounds every
// acquisition; acquisitions that exceed it fail with services.ErrLockTimeout.
func NewManager(dir string, timeout time.Duration) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("lock directory is required")
	}
	if timeout <= 0 {
		return nil, errors.New("lock timeout must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &Manager{dir: dir, timeout: timeout}, nil
}

// Guard represents a held lock. Release is idempotent.
type Guard struct {
	fl       *flock.Flock
	released bool
}

// Release drops the lock. Safe to call more than once.
func (g *Guard) Release() error {
	if g == nil || g.fl == nil || g.released {
		return nil
	}
	g.released = true
	return g.fl.Unlock()
}

// Acquire takes the named lock, waiting up to the manager timeout. The
// returned guard must be released on every exit path.
func (m *Manager) Acquire(ctx context.Context, name string) (*Guard, error) {
	path, err := m.lockPath(name)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(waitCtx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrLockTimeout, "lockfile", "acquire", name, nil)
		}
		return nil, fmt.Errorf("acquire lock %q: %w", name, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrLockTimeout, "lockfile", "acquire", name, nil)
	}
	return &Guard{fl: fl}, nil
}

// WithLock runs fn while holding the named lock, releasing it on every exit
// path including panics. fn is never invoked when acquisition fails.
func (m *Manager) WithLock(ctx context.Context, name string, fn func() error) error {
	guard, err := m.Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn()
}

func (m *Manager) lockPath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("lock name is required")
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return "", fmt.Errorf("invalid lock name %q", name)
	}
	return filepath.Join(m.dir, name+".lock"), nil
}
