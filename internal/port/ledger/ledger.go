// Package ledger defines the proposal fetching port.
package ledger

import (
	"context"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

// Fetcher resolves full proposal fields from the ledger by id. Events often
// carry only partial data; the fetcher fills in the rest.
type Fetcher interface {
	// Fetch returns the proposal, or an error wrapping domain.ErrNotFound
	// when the ledger reports no such id.
	Fetch(ctx context.Context, id string) (*proposal.Proposal, error)
}
