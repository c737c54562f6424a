package cashpilot

import (
	"context"
	"sync"
	"time"

	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

type cachedBusinessEntry struct {
	Business  models.Business
	ExpiresAt time.Time
}

type inFlightCall struct {
	done   chan struct{}
	result models.Business
	err    error
}

const (
	defaultBusinessTTL = 10 * time.Minute
	maxCleanupInterval = 5 * time.Minute
)

// CachedClient wraps an API with an in-memory TTL cache for businesses.
// Concurrent lookups of the same business share one upstream request.
// All other operations pass through.
type CachedClient struct {
	API
	ttl time.Duration
	now func() time.Time

	mu          sync.RWMutex
	businesses  map[string]cachedBusinessEntry
	inFlight    map[string]*inFlightCall
	lastCleanup time.Time
}

// NewCachedClient returns an API that caches GetBusiness results.
func NewCachedClient(inner API, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = defaultBusinessTTL
	}
	return &CachedClient{
		API:        inner,
		ttl:        ttl,
		now:        time.Now,
		businesses: make(map[string]cachedBusinessEntry),
		inFlight:   make(map[string]*inFlightCall),
	}
}

// GetBusiness returns the business, using the cache when fresh.
func (c *CachedClient) GetBusiness(ctx context.Context, businessID string) (*models.Business, error) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.businesses[businessID]
	c.mu.RUnlock()
	if ok && now.Before(entry.ExpiresAt) {
		business := entry.Business
		return &business, nil
	}

	c.mu.Lock()
	// Re-check under write lock in case another goroutine refreshed it.
	entry, ok = c.businesses[businessID]
	if ok && now.Before(entry.ExpiresAt) {
		c.mu.Unlock()
		business := entry.Business
		return &business, nil
	}
	if ok {
		delete(c.businesses, businessID)
	}

	if call, waiting := c.inFlight[businessID]; waiting {
		c.mu.Unlock()
		return waitForInFlight(ctx, call)
	}

	call := &inFlightCall{done: make(chan struct{})}
	c.inFlight[businessID] = call
	c.mu.Unlock()

	// One caller's deadline must not fail every waiter.
	go c.fetchAndBroadcast(context.WithoutCancel(ctx), businessID, call)
	return waitForInFlight(ctx, call)
}

// Invalidate drops a cached business so the next lookup refetches it.
func (c *CachedClient) Invalidate(businessID string) {
	c.mu.Lock()
	delete(c.businesses, businessID)
	c.mu.Unlock()
}

func (c *CachedClient) fetchAndBroadcast(ctx context.Context, businessID string, call *inFlightCall) {
	business, err := c.API.GetBusiness(ctx, businessID)

	fetchedAt := c.now()
	c.mu.Lock()
	if err == nil {
		c.businesses[businessID] = cachedBusinessEntry{
			Business:  *business,
			ExpiresAt: fetchedAt.Add(c.ttl),
		}
		c.cleanupExpiredLocked(fetchedAt)
		call.result = *business
	}
	call.err = err
	delete(c.inFlight, businessID)
	close(call.done)
	c.mu.Unlock()
}

func waitForInFlight(ctx context.Context, call *inFlightCall) (*models.Business, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		business := call.result
		return &business, nil
	}
}

func (c *CachedClient) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxCleanupInterval)
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < interval {
		return
	}
	for id, entry := range c.businesses {
		if !now.Before(entry.ExpiresAt) {
			delete(c.businesses, id)
		}
	}
	c.lastCleanup = now
}
