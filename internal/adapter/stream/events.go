package stream

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

// eventCategory is the server-side subscription filter for proposal
// lifecycle events.
const eventCategory = "proposal"

// subscribeFrame builds the filter message sent after connecting, selecting
// only events emitted by the target contract.
func subscribeFrame(contract string) []byte {
	data, _ := json.Marshal(map[string]string{
		"action":         "subscribe",
		"account_id":     contract,
		"event_category": eventCategory,
	})
	return data
}

// flexID tolerates proposal ids framed as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	*f = flexID(s)
	return nil
}

// wireEvent is the stream's event shape. Data is present when the emitter
// included full proposal fields in the payload.
type wireEvent struct {
	ProposalID flexID        `json:"proposal_id"`
	EventType  string        `json:"event_type"`
	AccountID  string        `json:"account_id"`
	Data       *wireProposal `json:"data,omitempty"`
}

type wireProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProposerID  string `json:"proposer_id"`
	Budget      string `json:"budget,omitempty"`
	Link        string `json:"link,omitempty"`
}

// ParseFrame decodes one stream message into filtered events. Both
// single-event and array-of-events framing are accepted. Events for other
// contracts or missing required fields are dropped; the server-side filter
// is not trusted.
func ParseFrame(data []byte, contract string) []proposal.Event {
	raw, ok := decodeFrame(data)
	if !ok {
		slog.Debug("stream frame discarded", "size", len(data))
		return nil
	}

	out := make([]proposal.Event, 0, len(raw))
	for _, we := range raw {
		if we.AccountID != contract {
			slog.Debug("stream event for other account dropped", "account", we.AccountID)
			continue
		}
		if we.ProposalID == "" || we.EventType == "" {
			continue
		}

		ev := proposal.Event{
			ProposalID: string(we.ProposalID),
			Type:       we.EventType,
			AccountID:  we.AccountID,
		}
		if we.Data != nil {
			ev.Proposal = &proposal.Proposal{
				ID:          ev.ProposalID,
				Title:       we.Data.Title,
				Description: we.Data.Description,
				Proposer:    we.Data.ProposerID,
				Budget:      we.Data.Budget,
				Link:        we.Data.Link,
			}
		}
		out = append(out, ev)
	}
	return out
}

func decodeFrame(data []byte) ([]wireEvent, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false
	}

	if trimmed[0] == '[' {
		var events []wireEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, false
		}
		return events, true
	}

	var single wireEvent
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, false
	}
	return []wireEvent{single}, true
}
