package ristretto

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

type countingFetcher struct {
	calls atomic.Int64
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, id string) (*proposal.Proposal, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &proposal.Proposal{ID: id, Title: "t", Proposer: "p.test"}, nil
}

func TestFetcherCachesHits(t *testing.T) {
	inner := &countingFetcher{}
	f, err := New(inner, 1<<20, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx := context.Background()
	if _, err := f.Fetch(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	f.Wait()

	if _, err := f.Fetch(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 ledger call, got %d", got)
	}

	if _, err := f.Fetch(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected 2 ledger calls after distinct id, got %d", got)
	}
}

func TestFetcherDoesNotCacheErrors(t *testing.T) {
	inner := &countingFetcher{err: errors.New("rpc down")}
	f, err := New(inner, 1<<20, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx := context.Background()
	if _, err := f.Fetch(ctx, "1"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.Fetch(ctx, "1"); err == nil {
		t.Fatal("expected error")
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected errors to pass through each time, got %d calls", got)
	}
}
