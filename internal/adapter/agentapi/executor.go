// Package agentapi implements the executor port against the shade-agent
// sidecar API. The sidecar holds the worker key, signs the governance call
// on the proxy contract, and broadcasts it.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shadegov/sentinel/internal/port/executor"
	"github.com/shadegov/sentinel/internal/resilience"
)

// Executor submits approve_proposal calls through the agent sidecar.
type Executor struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// New creates an agent-API executor for the given sidecar base URL.
func New(baseURL string) *Executor {
	return &Executor{
		baseURL: baseURL,
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

type callRequest struct {
	MethodName string         `json:"methodName"`
	Args       map[string]any `json:"args"`
}

type callResponse struct {
	TransactionHash string `json:"transaction_hash"`
	Error           string `json:"error,omitempty"`
}

// Execute asks the sidecar to call approve_proposal on the proxy contract.
func (e *Executor) Execute(ctx context.Context, proposalID string) (executor.Receipt, error) {
	body, err := json.Marshal(callRequest{
		MethodName: "approve_proposal",
		Args:       map[string]any{"proposal_id": proposalArg(proposalID)},
	})
	if err != nil {
		return executor.Receipt{}, fmt.Errorf("marshal call request: %w", err)
	}

	var out callResponse
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/agent/call", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("agent request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return agentError(resp.StatusCode, data)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if out.Error != "" {
			return agentError(resp.StatusCode, data)
		}
		return nil
	}

	if e.breaker != nil {
		err = e.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return executor.Receipt{}, fmt.Errorf("execute proposal %s: %w", proposalID, err)
	}

	if out.TransactionHash == "" {
		return executor.Receipt{}, fmt.Errorf("execute proposal %s: agent returned no transaction hash", proposalID)
	}
	return executor.Receipt{TxHash: out.TransactionHash}, nil
}

// agentError maps sidecar failures, distinguishing the insufficient-deposit
// case so callers can surface it separately.
func agentError(status int, body []byte) error {
	msg := strings.ToLower(string(body))
	if strings.Contains(msg, "insufficient") ||
		strings.Contains(msg, "notenoughbalance") ||
		strings.Contains(msg, "lackbalanceforstate") {
		return fmt.Errorf("%w: %s", executor.ErrInsufficientDeposit, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("agent API error %d: %s", status, strings.TrimSpace(string(body)))
}

// proposalArg preserves numeric ids as numbers for the contract ABI.
func proposalArg(id string) any {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return n
	}
	return id
}
