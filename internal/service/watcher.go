package service

import (
	"context"
	"hash/fnv"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/ledger"
)

// Watcher consumes proposal lifecycle events and drives screening. Events
// are sharded across workers by proposal id so events for one proposal are
// handled in arrival order while distinct proposals screen in parallel.
type Watcher struct {
	screening *ScreeningService
	fetcher   ledger.Fetcher
	workers   int
	logger    *slog.Logger
}

// NewWatcher creates a Watcher with the given worker count.
func NewWatcher(screening *ScreeningService, fetcher ledger.Fetcher, workers int, logger *slog.Logger) *Watcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		screening: screening,
		fetcher:   fetcher,
		workers:   workers,
		logger:    logger,
	}
}

// Run consumes events until the channel closes or the context is canceled.
func (w *Watcher) Run(ctx context.Context, events <-chan proposal.Event) error {
	shards := make([]chan proposal.Event, w.workers)
	g, ctx := errgroup.WithContext(ctx)

	for i := range shards {
		shards[i] = make(chan proposal.Event, 16)
		shard := shards[i]
		g.Go(func() error {
			for ev := range shard {
				w.handle(ctx, ev)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, shard := range shards {
				close(shard)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				select {
				case shards[w.shard(ev.ProposalID)] <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	return g.Wait()
}

func (w *Watcher) handle(ctx context.Context, ev proposal.Event) {
	switch ev.Type {
	case proposal.EventProposalCreated:
		p := ev.Proposal
		if p == nil || p.Proposer == "" {
			fetched, err := w.fetcher.Fetch(ctx, ev.ProposalID)
			if err != nil {
				w.logger.Warn("fetch proposal for event", "proposal_id", ev.ProposalID, "error", err)
			} else {
				p = fetched
			}
		}
		if _, err := w.screening.ScreenAndMaybeExecute(ctx, ev.ProposalID, p); err != nil {
			w.logger.Error("screen proposal", "proposal_id", ev.ProposalID, "error", err)
		}

	case proposal.EventProposalApproved:
		// Lazy catch-up: screen only if this proposal was never seen.
		if res, err := w.screening.Result(ev.ProposalID); err == nil {
			w.logger.Info("proposal approved on-chain",
				"proposal_id", ev.ProposalID,
				"screened_approved", res.Approved,
			)
			return
		}
		p := ev.Proposal
		if p == nil {
			fetched, err := w.fetcher.Fetch(ctx, ev.ProposalID)
			if err != nil {
				w.logger.Warn("fetch proposal for event", "proposal_id", ev.ProposalID, "error", err)
			} else {
				p = fetched
			}
		}
		if _, err := w.screening.ScreenAndMaybeExecute(ctx, ev.ProposalID, p); err != nil {
			w.logger.Error("screen proposal", "proposal_id", ev.ProposalID, "error", err)
		}

	default:
		w.logger.Debug("ignoring event", "proposal_id", ev.ProposalID, "type", ev.Type)
	}
}

func (w *Watcher) shard(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(w.workers))
}
