// Package judge defines the external judgment provider port.
package judge

import (
	"context"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

// Judge renders an approve/reject verdict with reasons from a proposal's
// text fields.
type Judge interface {
	Judge(ctx context.Context, p *proposal.Proposal) (proposal.Verdict, error)
}
