package memstore

import (
	"testing"
	"time"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

func TestSaveResultOverwrites(t *testing.T) {
	s := New()

	s.SaveResult(proposal.ScreeningResult{ProposalID: "1", Approved: false, Reasons: []string{"first"}})
	s.SaveResult(proposal.ScreeningResult{ProposalID: "1", Approved: true, Reasons: []string{"second"}})

	res, ok := s.Result("1")
	if !ok {
		t.Fatal("expected stored result")
	}
	if !res.Approved || res.Reasons[0] != "second" {
		t.Fatalf("latest result must win, got %+v", res)
	}
	if len(s.Results()) != 1 {
		t.Fatalf("expected single entry, got %d", len(s.Results()))
	}
}

func TestResultMissing(t *testing.T) {
	s := New()
	if _, ok := s.Result("nope"); ok {
		t.Fatal("expected no result for unknown id")
	}
	if _, ok := s.Execution("nope"); ok {
		t.Fatal("expected no execution for unknown id")
	}
}

func TestExecutionSurvivesRescreen(t *testing.T) {
	s := New()

	now := time.Now()
	s.SaveExecution(proposal.ExecutionStatus{
		ProposalID: "1", AttemptID: "a", Executed: true, Success: true,
		TxHash: "tx", AttemptedAt: now, ExecutedAt: &now,
	})
	s.SaveResult(proposal.ScreeningResult{ProposalID: "1", Approved: true})
	s.SaveResult(proposal.ScreeningResult{ProposalID: "1", Approved: false})

	st, ok := s.Execution("1")
	if !ok || !st.Success {
		t.Fatalf("execution state must survive re-screening, got %+v", st)
	}
}

func TestTotals(t *testing.T) {
	s := New()

	s.SaveResult(proposal.ScreeningResult{ProposalID: "1", Approved: true})
	s.SaveResult(proposal.ScreeningResult{ProposalID: "2", Approved: false})
	s.SaveResult(proposal.ScreeningResult{ProposalID: "3", Approved: true})

	now := time.Now()
	s.SaveExecution(proposal.ExecutionStatus{ProposalID: "1", Executed: true, Success: true, ExecutedAt: &now})
	s.SaveExecution(proposal.ExecutionStatus{ProposalID: "3", Error: "rpc timeout"})
	s.SaveExecution(proposal.ExecutionStatus{ProposalID: "4", AttemptedAt: now})

	tot := s.Totals()
	if tot.Screened != 3 || tot.Approved != 2 || tot.Rejected != 1 {
		t.Fatalf("unexpected screening totals: %+v", tot)
	}
	if tot.Succeeded != 1 || tot.Failed != 1 || tot.Pending != 1 {
		t.Fatalf("unexpected execution totals: %+v", tot)
	}
}

func TestClear(t *testing.T) {
	s := New()

	s.SaveResult(proposal.ScreeningResult{ProposalID: "1"})
	s.SaveExecution(proposal.ExecutionStatus{ProposalID: "1"})
	s.Clear()

	if len(s.Results()) != 0 {
		t.Fatal("expected no results after clear")
	}
	if _, ok := s.Execution("1"); ok {
		t.Fatal("expected no executions after clear")
	}
	if tot := s.Totals(); tot.Screened != 0 || tot.Pending != 0 {
		t.Fatalf("expected zero totals, got %+v", tot)
	}
}
