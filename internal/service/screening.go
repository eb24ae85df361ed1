package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shadegov/sentinel/internal/adapter/otel"
	"github.com/shadegov/sentinel/internal/domain"
	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/executor"
	"github.com/shadegov/sentinel/internal/port/store"
)

// Notifier pushes live screening and execution updates to connected clients.
type Notifier interface {
	ScreeningCompleted(ctx context.Context, res *proposal.ScreeningResult)
	ExecutionSettled(ctx context.Context, st *proposal.ExecutionStatus)
}

// OutcomePublisher emits settled outcomes to a message broker.
type OutcomePublisher interface {
	PublishScreening(ctx context.Context, res *proposal.ScreeningResult) error
	PublishExecution(ctx context.Context, st *proposal.ExecutionStatus) error
}

// ScreeningService orchestrates the screening pipeline: decide, persist,
// and in autonomous mode execute the on-chain approval exactly once.
type ScreeningService struct {
	decision   *DecisionService
	tracker    *Tracker
	store      store.Store
	executor   executor.Executor
	autonomous bool

	notifier  Notifier         // optional
	publisher OutcomePublisher // optional
	metrics   *otel.Metrics    // optional
	logger    *slog.Logger
}

// NewScreeningService creates the orchestrator. Executor may be nil when
// autonomous is false. Notifier, publisher and metrics are optional.
func NewScreeningService(
	decision *DecisionService,
	tracker *Tracker,
	st store.Store,
	exec executor.Executor,
	autonomous bool,
	logger *slog.Logger,
) *ScreeningService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreeningService{
		decision:   decision,
		tracker:    tracker,
		store:      st,
		executor:   exec,
		autonomous: autonomous && exec != nil,
		logger:     logger,
	}
}

// WithNotifier attaches a live-update notifier.
func (s *ScreeningService) WithNotifier(n Notifier) *ScreeningService {
	s.notifier = n
	return s
}

// WithPublisher attaches an outcome publisher.
func (s *ScreeningService) WithPublisher(p OutcomePublisher) *ScreeningService {
	s.publisher = p
	return s
}

// WithMetrics attaches metric instruments.
func (s *ScreeningService) WithMetrics(m *otel.Metrics) *ScreeningService {
	s.metrics = m
	return s
}

// Autonomous reports whether approved proposals are executed on-chain
// without operator intervention.
func (s *ScreeningService) Autonomous() bool { return s.autonomous }

// ScreenAndMaybeExecute runs the full pipeline for one proposal: decide,
// persist the result, and when approved in autonomous mode, attempt the
// on-chain approval under the tracker's idempotency guard. All screening
// and execution failures are absorbed into the returned result; the only
// error is domain.ErrBadRequest for a missing proposal id, in which case
// no state is mutated.
func (s *ScreeningService) ScreenAndMaybeExecute(ctx context.Context, id string, p *proposal.Proposal) (proposal.ScreeningResult, error) {
	if id == "" {
		return proposal.ScreeningResult{}, fmt.Errorf("%w: missing proposal id", domain.ErrBadRequest)
	}
	if p == nil {
		p = &proposal.Proposal{ID: id}
	}

	ctx, span := otel.StartScreeningSpan(ctx, id)
	defer span.End()

	start := time.Now()
	verdict := s.decision.Decide(ctx, p)
	s.recordDecision(ctx, verdict, time.Since(start))

	res := proposal.ScreeningResult{
		ProposalID: id,
		Approved:   verdict.Approved(),
		Reasons:    verdict.Reasons,
		Timestamp:  time.Now().UTC(),
	}
	s.store.SaveResult(res)

	s.logger.Info("proposal screened",
		"proposal_id", id,
		"proposer", p.Proposer,
		"approved", res.Approved,
		"reasons", res.Reasons,
	)

	if res.Approved && s.autonomous {
		res = s.execute(ctx, id, res)
	}

	s.emitScreening(ctx, &res)
	return res, nil
}

// Execute triggers an on-chain execution outside the autonomous path. Unless
// forced, the proposal must have a prior approved screening result. A
// recorded successful execution always fails with domain.ErrAlreadyExecuted.
func (s *ScreeningService) Execute(ctx context.Context, id string, force bool) (proposal.ExecutionStatus, error) {
	if id == "" {
		return proposal.ExecutionStatus{}, fmt.Errorf("%w: missing proposal id", domain.ErrBadRequest)
	}
	if s.executor == nil {
		return proposal.ExecutionStatus{}, fmt.Errorf("%w: no executor configured", domain.ErrBadRequest)
	}

	if !force {
		res, ok := s.store.Result(id)
		if !ok {
			return proposal.ExecutionStatus{}, fmt.Errorf("%w: proposal %s not screened", domain.ErrBadRequest, id)
		}
		if !res.Approved {
			return proposal.ExecutionStatus{}, fmt.Errorf("%w: proposal %s not approved", domain.ErrBadRequest, id)
		}
	}

	attemptID, release, err := s.tracker.Begin(id)
	if err != nil {
		return proposal.ExecutionStatus{}, err
	}
	defer release()

	st := s.attempt(ctx, id, attemptID)

	if res, ok := s.store.Result(id); ok {
		res.Execution = &st
		if st.Success {
			res.Reasons = append(res.Reasons, fmt.Sprintf("executed in transaction %s", st.TxHash))
		} else {
			res.Reasons = append(res.Reasons, fmt.Sprintf("execution failed: %s", st.Error))
		}
		s.store.SaveResult(res)
	}

	return st, nil
}

// Result returns the stored screening result for a proposal.
func (s *ScreeningService) Result(id string) (proposal.ScreeningResult, error) {
	res, ok := s.store.Result(id)
	if !ok {
		return proposal.ScreeningResult{}, fmt.Errorf("%w: proposal %s", domain.ErrNotFound, id)
	}
	return res, nil
}

// Results returns all stored screening results.
func (s *ScreeningService) Results() []proposal.ScreeningResult {
	return s.store.Results()
}

// Totals returns aggregate screening and execution counts.
func (s *ScreeningService) Totals() store.Totals {
	return s.store.Totals()
}

// ClearHistory wipes all in-memory screening and execution state.
func (s *ScreeningService) ClearHistory() {
	s.store.Clear()
	s.logger.Info("screening history cleared")
}

// execute runs the autonomous execution branch under the tracker guard and
// folds the outcome into the screening result.
func (s *ScreeningService) execute(ctx context.Context, id string, res proposal.ScreeningResult) proposal.ScreeningResult {
	attemptID, release, err := s.tracker.Begin(id)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExecuted) {
			res.Reasons = append(res.Reasons, "already executed")
			if st, ok := s.store.Execution(id); ok {
				res.Execution = &st
			}
			s.store.SaveResult(res)
			return res
		}
		res.Reasons = append(res.Reasons, fmt.Sprintf("execution failed: %s", err))
		s.store.SaveResult(res)
		return res
	}
	defer release()

	st := s.attempt(ctx, id, attemptID)
	res.Execution = &st
	if st.Success {
		res.Reasons = append(res.Reasons, fmt.Sprintf("executed in transaction %s", st.TxHash))
	} else {
		res.Reasons = append(res.Reasons, fmt.Sprintf("execution failed: %s", st.Error))
	}
	s.store.SaveResult(res)
	return res
}

// attempt performs the on-chain call and records the settled status. The
// caller must hold the tracker's per-id critical section.
func (s *ScreeningService) attempt(ctx context.Context, id, attemptID string) proposal.ExecutionStatus {
	ctx, span := otel.StartExecutionSpan(ctx, id, attemptID)
	defer span.End()

	receipt, err := s.executor.Execute(ctx, id)
	st := s.tracker.Finish(id, attemptID, receipt, err)

	if err != nil {
		if errors.Is(err, executor.ErrInsufficientDeposit) {
			s.logger.Error("execution failed: insufficient deposit", "proposal_id", id, "attempt_id", attemptID)
		} else {
			s.logger.Error("execution failed", "proposal_id", id, "attempt_id", attemptID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.ExecutionsFailed.Add(ctx, 1)
		}
	} else {
		s.logger.Info("proposal executed", "proposal_id", id, "attempt_id", attemptID, "tx_hash", st.TxHash)
		if s.metrics != nil {
			s.metrics.ExecutionsSucceeded.Add(ctx, 1)
		}
	}

	s.emitExecution(ctx, &st)
	return st
}

func (s *ScreeningService) recordDecision(ctx context.Context, v proposal.Verdict, took time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Screenings.Add(ctx, 1)
	if v.Approved() {
		s.metrics.Approvals.Add(ctx, 1)
	} else {
		s.metrics.Rejections.Add(ctx, 1)
	}
	s.metrics.JudgmentDuration.Record(ctx, took.Seconds())
}

func (s *ScreeningService) emitScreening(ctx context.Context, res *proposal.ScreeningResult) {
	if s.notifier != nil {
		s.notifier.ScreeningCompleted(ctx, res)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishScreening(ctx, res); err != nil {
			s.logger.Warn("publish screening result", "proposal_id", res.ProposalID, "error", err)
		}
	}
}

func (s *ScreeningService) emitExecution(ctx context.Context, st *proposal.ExecutionStatus) {
	if s.notifier != nil {
		s.notifier.ExecutionSettled(ctx, st)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishExecution(ctx, st); err != nil {
			s.logger.Warn("publish execution status", "proposal_id", st.ProposalID, "error", err)
		}
	}
}
