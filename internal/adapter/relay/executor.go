// Package relay implements the executor port against a transaction relay.
// The relay signs function calls with a registered signer account and
// submits them directly to the network, bypassing the agent sidecar.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shadegov/sentinel/internal/port/executor"
	"github.com/shadegov/sentinel/internal/resilience"
)

// oneYocto is the deposit the proxy contract attaches to governance calls.
const oneYocto = "1"

// Executor submits approve_proposal function-call jobs to a relay.
type Executor struct {
	baseURL    string
	signerID   string
	receiverID string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// New creates a relay executor. receiverID is the agent proxy contract that
// forwards the approval to the voting contract.
func New(baseURL, signerID, receiverID string) *Executor {
	return &Executor{
		baseURL:    baseURL,
		signerID:   signerID,
		receiverID: receiverID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (e *Executor) SetBreaker(b *resilience.Breaker) {
	e.breaker = b
}

// SetTimeout overrides the per-call HTTP timeout.
func (e *Executor) SetTimeout(d time.Duration) {
	if d > 0 {
		e.httpClient.Timeout = d
	}
}

type relayJob struct {
	SignerID   string          `json:"signer_id"`
	ReceiverID string          `json:"receiver_id"`
	Method     string          `json:"method"`
	Args       json.RawMessage `json:"args"`
	Deposit    string          `json:"deposit"`
}

// Execute submits the approval call for a proposal through the relay.
func (e *Executor) Execute(ctx context.Context, proposalID string) (executor.Receipt, error) {
	args, err := json.Marshal(map[string]string{"proposal_id": proposalID})
	if err != nil {
		return executor.Receipt{}, fmt.Errorf("marshal args: %w", err)
	}
	body, err := json.Marshal(relayJob{
		SignerID:   e.signerID,
		ReceiverID: e.receiverID,
		Method:     "approve_proposal",
		Args:       args,
		Deposit:    oneYocto,
	})
	if err != nil {
		return executor.Receipt{}, fmt.Errorf("marshal relay job: %w", err)
	}

	var out struct {
		TxHash string `json:"tx_hash"`
	}
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/call", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("relay request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			msg := strings.ToLower(string(data))
			if strings.Contains(msg, "insufficient") || strings.Contains(msg, "notenoughbalance") {
				return fmt.Errorf("%w: %s", executor.ErrInsufficientDeposit, strings.TrimSpace(string(data)))
			}
			return fmt.Errorf("relay error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return json.Unmarshal(data, &out)
	}

	if e.breaker != nil {
		err = e.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return executor.Receipt{}, fmt.Errorf("relay proposal %s: %w", proposalID, err)
	}
	if out.TxHash == "" {
		return executor.Receipt{}, fmt.Errorf("relay proposal %s: no transaction hash returned", proposalID)
	}
	return executor.Receipt{TxHash: out.TxHash}, nil
}
