// Package proposal defines the governance proposal domain types.
package proposal

import "time"

// Proposal is a governance item under screening. Instances are ephemeral:
// they arrive in event payloads or are fetched from the ledger on demand,
// and are never persisted by this service.
type Proposal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Proposer    string `json:"proposer"`
	Budget      string `json:"budget,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Decision values rendered by the judgment provider.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Verdict is the structured outcome of a screening decision.
type Verdict struct {
	Decision string   `json:"decision"`
	Reasons  []string `json:"reasons"`
}

// Approved reports whether the verdict approves the proposal.
func (v Verdict) Approved() bool { return v.Decision == DecisionApprove }

// ScreeningResult records the screening outcome for one proposal.
// The latest screening for an id wins; re-screening overwrites. The only
// mutation after creation is attaching an execution outcome.
type ScreeningResult struct {
	ProposalID string           `json:"proposal_id"`
	Approved   bool             `json:"approved"`
	Reasons    []string         `json:"reasons"`
	Timestamp  time.Time        `json:"timestamp"`
	Execution  *ExecutionStatus `json:"execution,omitempty"`
}

// ExecutionStatus tracks the on-chain execution state for one proposal.
// State moves strictly forward: unattempted, attempted-failed (retryable),
// attempted-succeeded (terminal). At most one successful execution exists
// per proposal id.
type ExecutionStatus struct {
	ProposalID  string     `json:"proposal_id"`
	AttemptID   string     `json:"attempt_id"`
	Executed    bool       `json:"executed"`
	Success     bool       `json:"success"`
	TxHash      string     `json:"tx_hash,omitempty"`
	Error       string     `json:"error,omitempty"`
	AttemptedAt time.Time  `json:"attempted_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
}

// Event types delivered by the ledger stream.
const (
	EventProposalCreated  = "proposal_created"
	EventProposalApproved = "proposal_approved"
)

// Event is one proposal lifecycle notification from the ledger stream.
// Proposal is set when the event payload carried full proposal fields.
type Event struct {
	ProposalID string    `json:"proposal_id"`
	Type       string    `json:"event_type"`
	AccountID  string    `json:"account_id"`
	Proposal   *Proposal `json:"proposal,omitempty"`
}
