// Package nearrpc implements ledger views over the NEAR JSON-RPC API.
package nearrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shadegov/sentinel/internal/domain"
	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/resilience"
)

// Client performs view calls against a NEAR RPC node.
type Client struct {
	url            string
	votingContract string
	agentContract  string
	httpClient     *http.Client
	breaker        *resilience.Breaker
}

// NewClient creates a NEAR RPC client for the given node URL and contracts.
func NewClient(url, votingContract, agentContract string) *Client {
	return &Client{
		url:            url,
		votingContract: votingContract,
		agentContract:  agentContract,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing RPC calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// proposalView mirrors the voting contract's get_proposal return value.
type proposalView struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ProposerID  string      `json:"proposer_id"`
	Budget      string      `json:"budget,omitempty"`
	Link        string      `json:"link,omitempty"`
}

// Fetch resolves full proposal fields from the voting contract.
// Returns an error wrapping domain.ErrNotFound when the contract has no
// proposal with this id.
func (c *Client) Fetch(ctx context.Context, id string) (*proposal.Proposal, error) {
	args, err := proposalArgs(id)
	if err != nil {
		return nil, err
	}

	raw, err := c.viewFunction(ctx, c.votingContract, "get_proposal", args)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("proposal %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetch proposal %s: %w", id, err)
	}

	var view proposalView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("unmarshal proposal %s: %w", id, err)
	}

	return &proposal.Proposal{
		ID:          id,
		Title:       view.Title,
		Description: view.Description,
		Proposer:    view.ProposerID,
		Budget:      view.Budget,
		Link:        view.Link,
	}, nil
}

// AgentBalance returns the agent proxy contract's balance in yoctoNEAR.
// The proxy funds governance deposits from this balance.
func (c *Client) AgentBalance(ctx context.Context) (string, error) {
	if c.agentContract == "" {
		return "", fmt.Errorf("agent contract not configured")
	}

	params := map[string]any{
		"request_type": "view_account",
		"finality":     "final",
		"account_id":   c.agentContract,
	}
	var result struct {
		Amount string `json:"amount"`
	}
	if err := c.query(ctx, params, &result); err != nil {
		return "", fmt.Errorf("view account %s: %w", c.agentContract, err)
	}
	return result.Amount, nil
}

// proposalArgs encodes the get_proposal argument. The contract takes a
// numeric proposal id; non-numeric ids pass through as strings.
func proposalArgs(id string) (json.RawMessage, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return json.Marshal(map[string]uint64{"proposal_id": n})
	}
	return json.Marshal(map[string]string{"proposal_id": id})
}

// viewFunction performs a call_function query and returns the raw result bytes.
func (c *Client) viewFunction(ctx context.Context, accountID, method string, args json.RawMessage) ([]byte, error) {
	params := map[string]any{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   accountID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(args),
	}

	// NEAR encodes call_function results as an array of byte values.
	var result struct {
		Raw   []int  `json:"result"`
		Error string `json:"error"`
	}
	if err := c.query(ctx, params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("contract error: %s", result.Error)
	}

	out := make([]byte, len(result.Raw))
	for i, b := range result.Raw {
		out[i] = byte(b)
	}
	return out, nil
}

type rpcError struct {
	Name  string `json:"name"`
	Cause struct {
		Name string `json:"name"`
	} `json:"cause"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (e *rpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Data) > 0 {
		return string(e.Data)
	}
	return e.Name
}

// query performs one JSON-RPC 2.0 request and decodes the result into out.
func (c *Client) query(ctx context.Context, params map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "sentinel",
		"method":  "query",
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}

	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("rpc request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("rpc status %d: %s", resp.StatusCode, string(data))
		}

		var envelope struct {
			Result json.RawMessage `json:"result"`
			Error  *rpcError       `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("unmarshal rpc envelope: %w", err)
		}
		if envelope.Error != nil {
			return envelope.Error
		}
		return json.Unmarshal(envelope.Result, out)
	}

	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}

// isNotFound recognizes the contract panics and RPC errors that mean the
// proposal id does not exist on the ledger.
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "does not exist")
}
