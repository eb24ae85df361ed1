// Package executor defines the on-chain execution port.
package executor

import (
	"context"
	"errors"
)

// ErrInsufficientDeposit indicates the executing account cannot cover the
// attached deposit for the governance call.
var ErrInsufficientDeposit = errors.New("insufficient deposit for governance call")

// Receipt is the result of a successful on-chain submission.
type Receipt struct {
	TxHash string `json:"tx_hash"`
}

// Executor submits the single on-chain approval call for a proposal.
// Implementations are interchangeable transports (sidecar agent API or
// transaction relay) behind the same contract; callers never branch on
// which one is configured.
type Executor interface {
	Execute(ctx context.Context, proposalID string) (Receipt, error)
}
