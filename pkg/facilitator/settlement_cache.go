package facilitator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// SettlementCache gives /settle idempotency by caching successful
// settlement responses and coalescing concurrent requests for the same
// (from, nonce) pair, adapted directly from the teacher's
// settlement_cache.go (there generic over the teacher's own
// SettleResponse; here specialized to x402.SettleResponse).
type SettlementCache struct {
	mu       sync.Mutex
	results  map[string]*x402.SettleResponse
	expiry   map[string]time.Time
	inFlight map[string]chan struct{}
	ttl      time.Duration
}

// NewSettlementCache creates a settlement cache with the given TTL.
func NewSettlementCache(ttl time.Duration) *SettlementCache {
	return &SettlementCache{
		results:  make(map[string]*x402.SettleResponse),
		expiry:   make(map[string]time.Time),
		inFlight: make(map[string]chan struct{}),
		ttl:      ttl,
	}
}

// SettlementKey derives the cache key from the authorization's (from,
// nonce) pair — unique per signer forever, which is exactly the
// idempotence boundary the protocol wants.
func SettlementKey(auth x402.TransferAuthorization) string {
	h := sha256.New()
	h.Write(auth.From[:])
	h.Write(auth.Nonce[:])
	return hex.EncodeToString(h.Sum(nil))
}

type SettlementStatus int

const (
	StatusNotFound SettlementStatus = iota
	StatusCached
	StatusInFlight
)

// CheckAndMark atomically checks the cache and marks key as in-flight.
func (c *SettlementCache) CheckAndMark(key string) (SettlementStatus, *x402.SettleResponse, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if expiry, exists := c.expiry[key]; exists {
		if time.Now().Before(expiry) {
			if result, ok := c.results[key]; ok {
				return StatusCached, result, nil
			}
		}
		delete(c.results, key)
		delete(c.expiry, key)
	}

	if done, exists := c.inFlight[key]; exists {
		return StatusInFlight, nil, done
	}

	done := make(chan struct{})
	c.inFlight[key] = done
	return StatusNotFound, nil, done
}

// WaitForResult blocks until the in-flight request at key completes or ctx
// is done.
func (c *SettlementCache) WaitForResult(ctx context.Context, key string, done chan struct{}) (*x402.SettleResponse, error) {
	select {
	case <-done:
		return c.Get(key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the cached response for key, if any and unexpired.
func (c *SettlementCache) Get(key string) (*x402.SettleResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, exists := c.expiry[key]
	if !exists {
		return nil, nil
	}
	if time.Now().After(expiry) {
		delete(c.results, key)
		delete(c.expiry, key)
		return nil, nil
	}
	return c.results[key], nil
}

// Complete caches response for key and releases waiters.
func (c *SettlementCache) Complete(key string, response *x402.SettleResponse, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = response
	c.expiry[key] = time.Now().Add(c.ttl)
	delete(c.inFlight, key)
	close(done)
	c.cleanupExpiredLocked()
}

// Fail releases waiters without caching a result, so the settlement may be
// retried by a subsequent caller.
func (c *SettlementCache) Fail(key string, done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, key)
	close(done)
}

func (c *SettlementCache) cleanupExpiredLocked() {
	now := time.Now()
	for key, expiry := range c.expiry {
		if now.After(expiry) {
			delete(c.results, key)
			delete(c.expiry, key)
		}
	}
}
