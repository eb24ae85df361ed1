// Package memstore implements the store port with in-process maps.
// State lives for the process lifetime only; there is no persistence
// across restarts.
package memstore

import (
	"sync"

	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/store"
)

// Store keeps screening results and execution statuses in memory.
type Store struct {
	mu         sync.RWMutex
	results    map[string]proposal.ScreeningResult
	executions map[string]proposal.ExecutionStatus
}

// New creates an empty store.
func New() *Store {
	return &Store{
		results:    make(map[string]proposal.ScreeningResult),
		executions: make(map[string]proposal.ExecutionStatus),
	}
}

// SaveResult stores a screening result, overwriting any prior result for
// the same proposal id.
func (s *Store) SaveResult(res proposal.ScreeningResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.ProposalID] = res
}

// Result returns the screening result for a proposal id.
func (s *Store) Result(id string) (proposal.ScreeningResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}

// Results returns all stored screening results.
func (s *Store) Results() []proposal.ScreeningResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]proposal.ScreeningResult, 0, len(s.results))
	for _, res := range s.results {
		out = append(out, res)
	}
	return out
}

// SaveExecution stores the execution status for a proposal id.
func (s *Store) SaveExecution(st proposal.ExecutionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[st.ProposalID] = st
}

// Execution returns the execution status for a proposal id.
func (s *Store) Execution(id string) (proposal.ExecutionStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.executions[id]
	return st, ok
}

// Totals summarizes screening and execution counts.
func (s *Store) Totals() store.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := store.Totals{Screened: len(s.results)}
	for _, res := range s.results {
		if res.Approved {
			t.Approved++
		} else {
			t.Rejected++
		}
	}
	for _, st := range s.executions {
		switch {
		case st.Success:
			t.Succeeded++
		case st.Error != "":
			t.Failed++
		default:
			t.Pending++
		}
	}
	return t
}

// Clear drops all screening and execution history.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[string]proposal.ScreeningResult)
	s.executions = make(map[string]proposal.ExecutionStatus)
}
