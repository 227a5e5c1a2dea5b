package keepalive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CleanupManager runs registered cleanup steps once, in registration order,
// within an overall timeout.
type CleanupManager struct {
	mu          sync.Mutex
	resources   []CleanupResource
	timeout     time.Duration
	cleanupOnce sync.Once
	log         logrus.FieldLogger
}

// CleanupResource represents a resource that needs cleanup
type CleanupResource interface {
	Cleanup() error
	Name() string
}

// CleanupFunc is a function-based cleanup resource
type CleanupFunc struct {
	name string
	fn   func() error
}

func (c *CleanupFunc) Cleanup() error {
	return c.fn()
}

func (c *CleanupFunc) Name() string {
	return c.name
}

// NewCleanupManager creates a new cleanup manager with the specified timeout
func NewCleanupManager(timeout time.Duration, logger logrus.FieldLogger) *CleanupManager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CleanupManager{
		resources: make([]CleanupResource, 0),
		timeout:   timeout,
		log:       logger,
	}
}

// Register adds a resource to be cleaned up
func (cm *CleanupManager) Register(resource CleanupResource) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.resources = append(cm.resources, resource)
}

// RegisterFunc registers a cleanup function
func (cm *CleanupManager) RegisterFunc(name string, fn func() error) {
	cm.Register(&CleanupFunc{name: name, fn: fn})
}

// Execute performs cleanup of all registered resources with timeout.
// Only the first call does any work.
func (cm *CleanupManager) Execute() []error {
	var errs []error
	cm.cleanupOnce.Do(func() {
		errs = cm.executeWithTimeout()
	})
	return errs
}

func (cm *CleanupManager) executeWithTimeout() []error {
	cm.mu.Lock()
	resources := make([]CleanupResource, len(cm.resources))
	copy(resources, cm.resources)
	cm.mu.Unlock()

	if len(resources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cm.timeout)
	defer cancel()

	done := make(chan struct{})
	var cleanupErrors []error
	var mu sync.Mutex

	go func() {
		defer close(done)
		for _, resource := range resources {
			func() {
				defer func() {
					if r := recover(); r != nil {
						mu.Lock()
						cleanupErrors = append(cleanupErrors, fmt.Errorf("panic during cleanup of %s: %v", resource.Name(), r))
						mu.Unlock()
						cm.log.Errorf("cleanup: panic cleaning up %s: %v", resource.Name(), r)
					}
				}()

				if err := resource.Cleanup(); err != nil {
					mu.Lock()
					cleanupErrors = append(cleanupErrors, errors.Wrap(err, resource.Name()))
					mu.Unlock()
					cm.log.Warnf("cleanup: error cleaning up %s: %v", resource.Name(), err)
				} else {
					cm.log.Debugf("cleanup: cleaned up %s", resource.Name())
				}
			}()
		}
	}()

	select {
	case <-done:
		return cleanupErrors
	case <-ctx.Done():
		cm.log.Warnf("cleanup: timeout after %v, some resources may not have been cleaned up", cm.timeout)
		mu.Lock()
		out := append([]error(nil), cleanupErrors...)
		mu.Unlock()
		return append(out, errors.New("cleanup timeout exceeded"))
	}
}
