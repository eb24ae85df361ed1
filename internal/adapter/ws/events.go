package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

// Event type constants for WebSocket messages.
const (
	EventScreeningResult = "screening.result"
	EventExecutionResult = "execution.result"
	EventStreamStatus    = "stream.status"
)

// ScreeningEvent is broadcast when a proposal finishes screening.
type ScreeningEvent struct {
	ProposalID string   `json:"proposal_id"`
	Approved   bool     `json:"approved"`
	Reasons    []string `json:"reasons"`
}

// ExecutionEvent is broadcast when an on-chain execution attempt settles.
type ExecutionEvent struct {
	ProposalID string `json:"proposal_id"`
	AttemptID  string `json:"attempt_id"`
	Success    bool   `json:"success"`
	TxHash     string `json:"tx_hash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StreamStatusEvent is broadcast when the upstream event stream changes state.
type StreamStatusEvent struct {
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
}

// ScreeningCompleted broadcasts a finished screening to all clients.
func (h *Hub) ScreeningCompleted(ctx context.Context, res *proposal.ScreeningResult) {
	h.BroadcastEvent(ctx, EventScreeningResult, ScreeningEvent{
		ProposalID: res.ProposalID,
		Approved:   res.Approved,
		Reasons:    res.Reasons,
	})
}

// ExecutionSettled broadcasts a settled execution attempt to all clients.
func (h *Hub) ExecutionSettled(ctx context.Context, st *proposal.ExecutionStatus) {
	h.BroadcastEvent(ctx, EventExecutionResult, ExecutionEvent{
		ProposalID: st.ProposalID,
		AttemptID:  st.AttemptID,
		Success:    st.Success,
		TxHash:     st.TxHash,
		Error:      st.Error,
	})
}

// StreamStatusChanged broadcasts an upstream event stream state transition.
func (h *Hub) StreamStatusChanged(ctx context.Context, state string, attempts int) {
	h.BroadcastEvent(ctx, EventStreamStatus, StreamStatusEvent{
		State:    state,
		Attempts: attempts,
	})
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
