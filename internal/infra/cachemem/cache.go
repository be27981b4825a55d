// Package cachemem is the in-process result cache used when no Redis is
// configured.
package cachemem

import (
	"context"
	"sync"
	"time"

	"patentdesk/internal/domain"
	"patentdesk/internal/usecase"
)

type Cache struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]item
}

// item with a zero deadline never expires.
type item struct {
	result   domain.VerificationResult
	deadline time.Time
}

func (it item) expired(at time.Time) bool {
	return !it.deadline.IsZero() && at.After(it.deadline)
}

func New() *Cache {
	return &Cache{now: time.Now, items: map[string]item{}}
}

// Get returns a deep copy of the stored result, so callers may modify it.
// Expired entries are dropped on read.
func (c *Cache) Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	it, found := c.items[key]
	switch {
	case !found:
		return nil, false, nil
	case it.expired(c.now()):
		delete(c.items, key)
		return nil, false, nil
	}
	result := it.result.Clone()
	return &result, true, nil
}

// Put stores value for ttl; ttl <= 0 keeps it until the process exits.
// Other expired entries are swept while the lock is held.
func (c *Cache) Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	at := c.now()
	for k, it := range c.items {
		if it.expired(at) {
			delete(c.items, k)
		}
	}
	it := item{result: value.Clone()}
	if ttl > 0 {
		it.deadline = at.Add(ttl)
	}
	c.items[key] = it
	return nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

var _ usecase.ResultCache = (*Cache)(nil)
