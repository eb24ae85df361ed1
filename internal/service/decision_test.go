package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

type fakeJudge struct {
	calls   atomic.Int64
	verdict proposal.Verdict
	err     error
}

func (f *fakeJudge) Judge(_ context.Context, _ *proposal.Proposal) (proposal.Verdict, error) {
	f.calls.Add(1)
	return f.verdict, f.err
}

func TestDecideDenyList(t *testing.T) {
	j := &fakeJudge{verdict: proposal.Verdict{Decision: proposal.DecisionApprove}}
	svc := NewDecisionService([]string{"foundation.test"}, []string{"scammer.test"}, j)

	v := svc.Decide(context.Background(), &proposal.Proposal{ID: "2", Proposer: "scammer.test"})

	if v.Approved() {
		t.Fatal("expected reject for deny-listed proposer")
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "blocked proposer: scammer.test" {
		t.Fatalf("unexpected reasons: %v", v.Reasons)
	}
	if j.calls.Load() != 0 {
		t.Fatalf("judge should not be consulted, got %d calls", j.calls.Load())
	}
}

func TestDecideAllowList(t *testing.T) {
	j := &fakeJudge{verdict: proposal.Verdict{Decision: proposal.DecisionReject}}
	svc := NewDecisionService([]string{"foundation.test"}, nil, j)

	v := svc.Decide(context.Background(), &proposal.Proposal{ID: "1", Proposer: "foundation.test"})

	if !v.Approved() {
		t.Fatal("expected approve for allow-listed proposer")
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "trusted proposer: foundation.test" {
		t.Fatalf("unexpected reasons: %v", v.Reasons)
	}
	if j.calls.Load() != 0 {
		t.Fatalf("judge should not be consulted, got %d calls", j.calls.Load())
	}
}

func TestDecideDenyOverridesAllow(t *testing.T) {
	j := &fakeJudge{}
	svc := NewDecisionService([]string{"both.test"}, []string{"both.test"}, j)

	v := svc.Decide(context.Background(), &proposal.Proposal{ID: "3", Proposer: "both.test"})

	if v.Approved() {
		t.Fatal("deny-list must take precedence over allow-list")
	}
	if j.calls.Load() != 0 {
		t.Fatal("judge should not be consulted")
	}
}

func TestDecideConsultsJudge(t *testing.T) {
	j := &fakeJudge{verdict: proposal.Verdict{
		Decision: proposal.DecisionApprove,
		Reasons:  []string{"clear budget and scope"},
	}}
	svc := NewDecisionService(nil, nil, j)

	v := svc.Decide(context.Background(), &proposal.Proposal{ID: "4", Proposer: "someone.test"})

	if !v.Approved() {
		t.Fatal("expected judge verdict to pass through")
	}
	if j.calls.Load() != 1 {
		t.Fatalf("expected 1 judge call, got %d", j.calls.Load())
	}
}

func TestDecideJudgeErrorRejects(t *testing.T) {
	j := &fakeJudge{err: errors.New("connection refused")}
	svc := NewDecisionService(nil, nil, j)

	v := svc.Decide(context.Background(), &proposal.Proposal{ID: "5", Proposer: "someone.test"})

	if v.Approved() {
		t.Fatal("provider errors must never approve")
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "judgment provider error: connection refused" {
		t.Fatalf("unexpected reasons: %v", v.Reasons)
	}
}

func TestDecideEmptyProposerGoesToJudge(t *testing.T) {
	j := &fakeJudge{verdict: proposal.Verdict{Decision: proposal.DecisionReject, Reasons: []string{"no proposer"}}}
	svc := NewDecisionService([]string{""}, []string{""}, j)

	svc.Decide(context.Background(), &proposal.Proposal{ID: "6"})

	if j.calls.Load() != 1 {
		t.Fatal("empty proposer must not match either list")
	}
}
