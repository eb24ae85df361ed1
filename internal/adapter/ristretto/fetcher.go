// Package ristretto provides a dgraph-io/ristretto backed read-through
// cache over the ledger fetcher. Proposal fields are immutable once
// created, so a short TTL is safe.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/ledger"
)

// Fetcher caches successful ledger lookups in process memory.
type Fetcher struct {
	inner ledger.Fetcher
	cache *ristretto.Cache[string, *proposal.Proposal]
	ttl   time.Duration
}

// New creates a caching fetcher. maxCostBytes bounds the total size of
// cached proposals, approximated by their text length.
func New(inner ledger.Fetcher, maxCostBytes int64, ttl time.Duration) (*Fetcher, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *proposal.Proposal]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Fetcher{inner: inner, cache: c, ttl: ttl}, nil
}

// Fetch returns the cached proposal or falls through to the ledger.
// Errors are never cached.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*proposal.Proposal, error) {
	if p, ok := f.cache.Get(id); ok {
		return p, nil
	}

	p, err := f.inner.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	f.cache.SetWithTTL(id, p, cost(p), f.ttl)
	return p, nil
}

// Wait blocks until pending cache writes are applied. Used by tests.
func (f *Fetcher) Wait() {
	f.cache.Wait()
}

// Close shuts down the cache and releases resources.
func (f *Fetcher) Close() {
	f.cache.Close()
}

func cost(p *proposal.Proposal) int64 {
	return int64(len(p.ID) + len(p.Title) + len(p.Description) + len(p.Proposer) + len(p.Budget) + len(p.Link) + 64)
}
