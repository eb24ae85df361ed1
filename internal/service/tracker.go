package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shadegov/sentinel/internal/domain"
	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/executor"
	"github.com/shadegov/sentinel/internal/port/store"
)

// Tracker enforces at-most-one successful on-chain execution per proposal.
// Begin/Finish bracket the check-then-act critical section: attempts for
// the same id serialize on a per-id mutex, distinct ids run in parallel.
type Tracker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	store store.Store
}

// NewTracker creates a Tracker backed by the given history store.
func NewTracker(st store.Store) *Tracker {
	return &Tracker{
		locks: make(map[string]*sync.Mutex),
		store: st,
	}
}

// IsExecuted reports whether the proposal already has a successful
// execution recorded.
func (t *Tracker) IsExecuted(id string) bool {
	st, ok := t.store.Execution(id)
	return ok && st.Executed && st.Success
}

// Begin claims the execution critical section for the proposal. It returns
// the attempt id and a release func the caller must invoke once the attempt
// settles. If a successful execution is already recorded, Begin fails fast
// with domain.ErrAlreadyExecuted and nothing is held.
func (t *Tracker) Begin(id string) (string, func(), error) {
	lock := t.lockFor(id)
	lock.Lock()

	if t.IsExecuted(id) {
		lock.Unlock()
		return "", nil, domain.ErrAlreadyExecuted
	}

	attemptID := uuid.NewString()
	t.store.SaveExecution(proposal.ExecutionStatus{
		ProposalID:  id,
		AttemptID:   attemptID,
		AttemptedAt: time.Now().UTC(),
	})

	return attemptID, lock.Unlock, nil
}

// Finish records the settled attempt: success flips the proposal to its
// terminal executed state, failure leaves it eligible for a manual retry.
// Must be called while the Begin release func is still held.
func (t *Tracker) Finish(id, attemptID string, receipt executor.Receipt, execErr error) proposal.ExecutionStatus {
	now := time.Now().UTC()
	st := proposal.ExecutionStatus{
		ProposalID:  id,
		AttemptID:   attemptID,
		AttemptedAt: now,
	}
	if prev, ok := t.store.Execution(id); ok && prev.AttemptID == attemptID {
		st.AttemptedAt = prev.AttemptedAt
	}

	if execErr != nil {
		st.Error = execErr.Error()
	} else {
		st.Executed = true
		st.Success = true
		st.TxHash = receipt.TxHash
		st.ExecutedAt = &now
	}

	t.store.SaveExecution(st)
	return st
}

func (t *Tracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[id] = lock
	}
	return lock
}
