// Package service contains the screening domain logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/judge"
)

// judgeTimeout bounds a single judgment provider call.
const judgeTimeout = 10 * time.Second

// DecisionService classifies proposals. Tiers are strictly ordered:
// deny-list overrides everything, allow-list overrides the judgment
// provider, and the provider is consulted only when neither list matches.
type DecisionService struct {
	denyList  map[string]struct{}
	allowList map[string]struct{}
	judge     judge.Judge
	timeout   time.Duration
}

// NewDecisionService creates a DecisionService from the configured lists
// and judgment provider.
func NewDecisionService(allow, deny []string, j judge.Judge) *DecisionService {
	return &DecisionService{
		denyList:  toSet(deny),
		allowList: toSet(allow),
		judge:     j,
		timeout:   judgeTimeout,
	}
}

// WithTimeout overrides the judgment call timeout.
func (s *DecisionService) WithTimeout(d time.Duration) *DecisionService {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Decide renders an approve/reject verdict for the proposal. It never
// returns an error: provider failures are absorbed into a reject verdict
// so the screening path always yields a result.
func (s *DecisionService) Decide(ctx context.Context, p *proposal.Proposal) proposal.Verdict {
	if p.Proposer != "" {
		if _, ok := s.denyList[p.Proposer]; ok {
			return proposal.Verdict{
				Decision: proposal.DecisionReject,
				Reasons:  []string{fmt.Sprintf("blocked proposer: %s", p.Proposer)},
			}
		}
		if _, ok := s.allowList[p.Proposer]; ok {
			return proposal.Verdict{
				Decision: proposal.DecisionApprove,
				Reasons:  []string{fmt.Sprintf("trusted proposer: %s", p.Proposer)},
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	verdict, err := s.judge.Judge(ctx, p)
	if err != nil {
		return proposal.Verdict{
			Decision: proposal.DecisionReject,
			Reasons:  []string{fmt.Sprintf("judgment provider error: %s", err)},
		}
	}
	return verdict
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
