// Package http exposes the screening API over chi.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shadegov/sentinel/internal/adapter/stream"
	"github.com/shadegov/sentinel/internal/config"
	"github.com/shadegov/sentinel/internal/domain/proposal"
	"github.com/shadegov/sentinel/internal/port/store"
	"github.com/shadegov/sentinel/internal/service"
)

// StreamReporter exposes the event stream listener's connection state.
type StreamReporter interface {
	Status() stream.Status
}

// BalanceViewer reads the agent proxy contract's balance.
type BalanceViewer interface {
	AgentBalance(ctx context.Context) (string, error)
}

// BreakerReporter exposes a circuit breaker's state for status reporting.
type BreakerReporter interface {
	State() string
}

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	Screening    *service.ScreeningService
	Config       config.Completeness
	Stream       StreamReporter  // nil when the listener is disabled
	Balance      BalanceViewer   // nil when no agent contract is configured
	JudgeBreaker BreakerReporter // nil when no breaker is attached
}

// NewHandlers creates the handler set.
func NewHandlers(screening *service.ScreeningService, completeness config.Completeness, stream StreamReporter, balance BalanceViewer) *Handlers {
	return &Handlers{
		Screening: screening,
		Config:    completeness,
		Stream:    stream,
		Balance:   balance,
	}
}

type screenRequest struct {
	ProposalID string             `json:"proposalId"`
	Proposal   *proposal.Proposal `json:"proposal,omitempty"`
}

// Screen runs the screening pipeline for a submitted proposal.
// POST /api/v1/screen
func (h *Handlers) Screen(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[screenRequest](w, r)
	if !ok {
		return
	}
	if req.ProposalID == "" {
		writeError(w, http.StatusBadRequest, "proposalId is required")
		return
	}

	res, err := h.Screening.ScreenAndMaybeExecute(r.Context(), req.ProposalID, req.Proposal)
	if err != nil {
		writeDomainError(w, err, "proposal not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type proposalStatusResponse struct {
	ProposalID string                    `json:"proposal_id"`
	Screened   bool                      `json:"screened"`
	Approved   bool                      `json:"approved"`
	Reasons    []string                  `json:"reasons,omitempty"`
	Timestamp  *time.Time                `json:"timestamp,omitempty"`
	Execution  *proposal.ExecutionStatus `json:"execution,omitempty"`
}

// ProposalStatus returns the screening state of one proposal.
// GET /api/v1/status/{proposalID}
func (h *Handlers) ProposalStatus(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "proposalID")

	res, err := h.Screening.Result(id)
	if err != nil {
		writeJSON(w, http.StatusOK, proposalStatusResponse{ProposalID: id, Screened: false})
		return
	}

	writeJSON(w, http.StatusOK, proposalStatusResponse{
		ProposalID: id,
		Screened:   true,
		Approved:   res.Approved,
		Reasons:    res.Reasons,
		Timestamp:  &res.Timestamp,
		Execution:  res.Execution,
	})
}

type executeRequest struct {
	Force bool `json:"force"`
}

// Execute triggers a manual on-chain execution for a proposal.
// POST /api/v1/execute/{proposalID}
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "proposalID")

	var req executeRequest
	if r.ContentLength > 0 {
		var ok bool
		if req, ok = readJSON[executeRequest](w, r); !ok {
			return
		}
	}

	st, err := h.Screening.Execute(r.Context(), id, req.Force)
	if err != nil {
		writeDomainError(w, err, "proposal not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type statusResponse struct {
	Autonomous   bool                `json:"autonomous"`
	Config       config.Completeness `json:"config"`
	Totals       store.Totals        `json:"totals"`
	Stream       *stream.Status      `json:"stream,omitempty"`
	JudgeBreaker string              `json:"judge_breaker,omitempty"`
	AgentBalance string              `json:"agent_balance,omitempty"`
}

// Status reports aggregate service state.
// GET /api/v1/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Autonomous: h.Screening.Autonomous(),
		Config:     h.Config,
		Totals:     h.Screening.Totals(),
	}

	if h.Stream != nil {
		st := h.Stream.Status()
		resp.Stream = &st
	}
	if h.JudgeBreaker != nil {
		resp.JudgeBreaker = h.JudgeBreaker.State()
	}

	if h.Balance != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if balance, err := h.Balance.AgentBalance(ctx); err == nil {
			resp.AgentBalance = balance
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type resultSummary struct {
	ProposalID string    `json:"proposal_id"`
	Approved   bool      `json:"approved"`
	Reasons    []string  `json:"reasons"`
	Timestamp  time.Time `json:"timestamp"`
	Executed   bool      `json:"executed"`
	TxHash     string    `json:"tx_hash,omitempty"`
}

// Results lists all stored screening results.
// GET /api/v1/results
func (h *Handlers) Results(w http.ResponseWriter, _ *http.Request) {
	results := h.Screening.Results()

	summaries := make([]resultSummary, 0, len(results))
	for _, res := range results {
		s := resultSummary{
			ProposalID: res.ProposalID,
			Approved:   res.Approved,
			Reasons:    res.Reasons,
			Timestamp:  res.Timestamp,
		}
		if res.Execution != nil && res.Execution.Success {
			s.Executed = true
			s.TxHash = res.Execution.TxHash
		}
		summaries = append(summaries, s)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(summaries),
		"results": summaries,
	})
}

// ClearHistory wipes all in-memory screening and execution state.
// DELETE /api/v1/history
func (h *Handlers) ClearHistory(w http.ResponseWriter, _ *http.Request) {
	h.Screening.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Health is the liveness probe.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
