package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/invtrack/backend/internal/domain/tenancy"
)

const cleanupInterval = 30 * time.Second

// InMemoryLicenseCache implements tenancy.EvaluationCache with process-local
// storage. Used when no Redis address is configured, and in tests.
type InMemoryLicenseCache struct {
	entries sync.Map // map[string]*licenseEntry
	stopCh  chan struct{}
	stopped int32
}

type licenseEntry struct {
	eval      *tenancy.Evaluation
	expiresAt time.Time
}

func (e *licenseEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryLicenseCache creates the cache and starts its expiry sweeper.
func NewInMemoryLicenseCache() *InMemoryLicenseCache {
	c := &InMemoryLicenseCache{stopCh: make(chan struct{})}
	go c.cleanupExpired()
	return c
}

// Get retrieves a cached evaluation, or nil on a miss.
func (c *InMemoryLicenseCache) Get(_ context.Context, tenantID string) (*tenancy.Evaluation, error) {
	if value, ok := c.entries.Load(tenantID); ok {
		entry := value.(*licenseEntry)
		if !entry.isExpired() {
			return entry.eval, nil
		}
		c.entries.Delete(tenantID)
	}
	return nil, nil
}

// Set stores an evaluation for ttl.
func (c *InMemoryLicenseCache) Set(_ context.Context, tenantID string, eval *tenancy.Evaluation, ttl time.Duration) error {
	if eval == nil {
		return nil
	}
	c.entries.Store(tenantID, &licenseEntry{eval: eval, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Delete evicts a tenant's cached evaluation.
func (c *InMemoryLicenseCache) Delete(_ context.Context, tenantID string) error {
	c.entries.Delete(tenantID)
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (c *InMemoryLicenseCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

func (c *InMemoryLicenseCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*licenseEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

var _ tenancy.EvaluationCache = (*InMemoryLicenseCache)(nil)
